package reports

import (
	"context"
)

// SnapshotSink receives finished reports.
type SnapshotSink interface {
	Save(ctx context.Context, s Snapshot) error
}

// Repository defines snapshot data access.
type Repository interface {
	SnapshotSink

	// Latest returns the newest snapshot of a kind, or a not-found error.
	Latest(ctx context.Context, kind SnapshotKind) (Snapshot, error)

	// List returns snapshots newest first.
	List(ctx context.Context, filter SnapshotFilter) ([]Snapshot, error)
}
