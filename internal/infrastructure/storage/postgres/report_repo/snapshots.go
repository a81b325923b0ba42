// Package report_repo provides the PostgreSQL snapshot repository.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portraits/internal/core/apperror"
	"portraits/internal/core/id"
	"portraits/internal/core/tx"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/storage/postgres"
)

const snapshotsTable = "report_snapshots"

// Schema creates the snapshot table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS report_snapshots (
	id               uuid PRIMARY KEY,
	run_id           text NOT NULL,
	kind             text NOT NULL,
	target_year      integer NOT NULL,
	payload          bytea NOT NULL,
	compression_algo text NOT NULL DEFAULT 'none',
	created_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS report_snapshots_kind_created_idx
	ON report_snapshots (kind, created_at DESC);
`

var tracer = otel.Tracer("portraits/report_repo")

var (
	_ reports.Repository = (*SnapshotRepo)(nil)
	_ TxManager          = (*postgres.TxManager)(nil)
)

// TxManager is the transaction surface the repository needs: read-write and
// read-only transactions, and the querier bound to the transaction in ctx.
type TxManager interface {
	tx.ReadOnlyManager
	GetQuerier(ctx context.Context) postgres.Querier
}

type snapshotRow struct {
	ID          id.ID     `db:"id"`
	RunID       string    `db:"run_id"`
	Kind        string    `db:"kind"`
	Year        int       `db:"target_year"`
	Payload     []byte    `db:"payload"`
	Compression string    `db:"compression_algo"`
	CreatedAt   time.Time `db:"created_at"`
}

var snapshotColumns = postgres.ExtractDBColumns[snapshotRow]()

// SnapshotRepo implements reports.Repository.
type SnapshotRepo struct {
	txm     TxManager
	codec   *postgres.PayloadCodec
	builder squirrel.StatementBuilderType
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txm TxManager, codec *postgres.PayloadCodec) *SnapshotRepo {
	return &SnapshotRepo{
		txm:     txm,
		codec:   codec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, Schema); err != nil {
		return apperror.NewDatabase("ensure snapshot schema", err)
	}
	return nil
}

// Save inserts a snapshot, compressing large payloads.
func (r *SnapshotRepo) Save(ctx context.Context, s reports.Snapshot) (err error) {
	ctx, span := tracer.Start(ctx, "snapshot.save",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("snapshot.kind", string(s.Kind)),
			attribute.Int("snapshot.year", s.Year),
			attribute.Int("snapshot.bytes", len(s.Payload)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	query, args, err := r.insertQuery(r.toRow(s))
	if err != nil {
		return fmt.Errorf("build snapshot insert: %w", err)
	}

	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
			return apperror.NewDatabase("insert snapshot", err)
		}
		return nil
	})
}

// Latest returns the newest snapshot of a kind.
func (r *SnapshotRepo) Latest(ctx context.Context, kind reports.SnapshotKind) (reports.Snapshot, error) {
	query, args, err := r.listQuery(reports.SnapshotFilter{Kind: kind, Limit: 1})
	if err != nil {
		return reports.Snapshot{}, fmt.Errorf("build snapshot query: %w", err)
	}

	var row snapshotRow
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, query, args...)
	})
	if pgxscan.NotFound(err) {
		return reports.Snapshot{}, apperror.NewNotFound("snapshot", kind)
	}
	if err != nil {
		return reports.Snapshot{}, apperror.NewDatabase("select snapshot", err)
	}
	return r.fromRow(row)
}

// List returns snapshots newest first.
func (r *SnapshotRepo) List(ctx context.Context, filter reports.SnapshotFilter) ([]reports.Snapshot, error) {
	query, args, err := r.listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	var rows []snapshotRow
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, query, args...)
	})
	if err != nil {
		return nil, apperror.NewDatabase("select snapshots", err)
	}

	out := make([]reports.Snapshot, 0, len(rows))
	for _, row := range rows {
		s, err := r.fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SnapshotRepo) insertQuery(row snapshotRow) (string, []any, error) {
	return r.builder.Insert(snapshotsTable).SetMap(postgres.StructToMap(row)).ToSql()
}

func (r *SnapshotRepo) listQuery(filter reports.SnapshotFilter) (string, []any, error) {
	q := r.builder.Select(snapshotColumns...).From(snapshotsTable)
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}
	if filter.Year > 0 {
		q = q.Where(squirrel.Eq{"target_year": filter.Year})
	}
	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q.ToSql()
}

func (r *SnapshotRepo) toRow(s reports.Snapshot) snapshotRow {
	payload, algo := r.codec.Encode(s.Payload)
	return snapshotRow{
		ID:          s.ID,
		RunID:       s.RunID,
		Kind:        string(s.Kind),
		Year:        s.Year,
		Payload:     payload,
		Compression: string(algo),
		CreatedAt:   s.CreatedAt,
	}
}

func (r *SnapshotRepo) fromRow(row snapshotRow) (reports.Snapshot, error) {
	payload, err := r.codec.Decode(row.Payload, postgres.CompressionAlgo(row.Compression))
	if err != nil {
		return reports.Snapshot{}, apperror.NewInternal(err).WithDetail("snapshot", row.ID.String())
	}
	return reports.Snapshot{
		ID:        row.ID,
		RunID:     row.RunID,
		Kind:      reports.SnapshotKind(row.Kind),
		Year:      row.Year,
		CreatedAt: row.CreatedAt,
		Payload:   payload,
	}, nil
}
