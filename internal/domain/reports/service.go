package reports

import (
	"context"
	"fmt"

	"portraits/internal/core/apperror"
	"portraits/pkg/logger"
)

// Service records and reads report snapshots. A Service without a repository
// accepts and discards every snapshot.
type Service struct {
	repo Repository
}

// NewService creates a new snapshot service. repo may be nil.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enabled reports whether snapshots are persisted.
func (s *Service) Enabled() bool {
	return s.repo != nil
}

// Record stores v as a snapshot of the given kind.
func (s *Service) Record(ctx context.Context, kind SnapshotKind, year int, v any) (*Snapshot, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation("unknown snapshot kind").WithDetail("kind", kind)
	}
	if s.repo == nil {
		return nil, nil
	}

	snap, err := NewSnapshot(ctx, kind, year, v)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save %s snapshot: %w", kind, err)
	}

	logger.Info(ctx, "snapshot saved", "snapshot_id", snap.ID, "kind", kind, "year", year, "bytes", len(snap.Payload))
	return &snap, nil
}

// Latest returns the newest snapshot of a kind.
func (s *Service) Latest(ctx context.Context, kind SnapshotKind) (Snapshot, error) {
	if s.repo == nil {
		return Snapshot{}, apperror.NewNotFound("snapshot", kind)
	}
	return s.repo.Latest(ctx, kind)
}

// List returns snapshots newest first.
func (s *Service) List(ctx context.Context, filter SnapshotFilter) ([]Snapshot, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperror.NewValidation("unknown snapshot kind").WithDetail("kind", filter.Kind)
	}
	if s.repo == nil {
		return nil, nil
	}

	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}

	snaps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}
