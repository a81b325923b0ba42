package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "portraits/internal/core/context"
	"portraits/internal/core/id"
)

// SnapshotKind names the report a snapshot holds.
type SnapshotKind string

const (
	SnapshotCollection SnapshotKind = "collection"
	SnapshotEmployment SnapshotKind = "employment"
	SnapshotAnalysis   SnapshotKind = "analysis"
)

// Valid reports whether k is a known kind.
func (k SnapshotKind) Valid() bool {
	switch k {
	case SnapshotCollection, SnapshotEmployment, SnapshotAnalysis:
		return true
	}
	return false
}

// Snapshot is a persisted report of one run.
type Snapshot struct {
	ID        id.ID           `json:"id"`
	RunID     string          `json:"runId"`
	Kind      SnapshotKind    `json:"kind"`
	Year      int             `json:"year"`
	CreatedAt time.Time       `json:"createdAt"`
	Payload   json.RawMessage `json:"payload"`
}

// NewSnapshot marshals v as the payload of a new snapshot. The run ID is
// taken from ctx.
func NewSnapshot(ctx context.Context, kind SnapshotKind, year int, v any) (Snapshot, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal %s snapshot: %w", kind, err)
	}
	return Snapshot{
		ID:        id.New(),
		RunID:     appctx.GetRunID(ctx),
		Kind:      kind,
		Year:      year,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}, nil
}

// SnapshotFilter selects stored snapshots. Zero fields match everything.
type SnapshotFilter struct {
	Kind  SnapshotKind
	Year  int
	Limit int
}
