package report_repo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
	"portraits/internal/core/id"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/storage/postgres"
)

func newTestRepo(t *testing.T) *SnapshotRepo {
	t.Helper()
	codec, err := postgres.NewPayloadCodec(128)
	require.NoError(t, err)
	return NewSnapshotRepo(nil, codec)
}

func TestSnapshotColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "run_id", "kind", "target_year", "payload", "compression_algo", "created_at"},
		snapshotColumns)
}

func TestListQuery(t *testing.T) {
	r := newTestRepo(t)

	t.Run("all filters", func(t *testing.T) {
		query, args, err := r.listQuery(reports.SnapshotFilter{Kind: reports.SnapshotCollection, Year: 2024, Limit: 5})
		require.NoError(t, err)
		assert.Contains(t, query, "FROM report_snapshots")
		assert.Contains(t, query, "WHERE kind = $1 AND target_year = $2")
		assert.Contains(t, query, "ORDER BY created_at DESC")
		assert.Contains(t, query, "LIMIT 5")
		assert.Equal(t, []any{"collection", 2024}, args)
	})

	t.Run("no filters", func(t *testing.T) {
		query, args, err := r.listQuery(reports.SnapshotFilter{})
		require.NoError(t, err)
		assert.NotContains(t, query, "WHERE")
		assert.NotContains(t, query, "LIMIT")
		assert.Empty(t, args)
	})
}

func TestInsertQuery(t *testing.T) {
	r := newTestRepo(t)
	row := r.toRow(reports.Snapshot{
		ID:        id.New(),
		RunID:     "run-1",
		Kind:      reports.SnapshotAnalysis,
		Year:      2024,
		CreatedAt: time.Now().UTC(),
		Payload:   []byte(`{}`),
	})

	query, args, err := r.insertQuery(row)
	require.NoError(t, err)
	assert.Contains(t, query, "INSERT INTO report_snapshots")
	assert.Contains(t, query, "$7")
	assert.Len(t, args, 7)
}

func TestRowRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	snap := reports.Snapshot{
		ID:        id.New(),
		RunID:     "run-1",
		Kind:      reports.SnapshotCollection,
		Year:      2024,
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Payload:   bytes.Repeat([]byte(`{"name":"工学部"},`), 50),
	}

	row := r.toRow(snap)
	assert.Equal(t, string(postgres.CompressionZstd), row.Compression)
	assert.Less(t, len(row.Payload), len(snap.Payload))

	back, err := r.fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, snap, back)
}

func TestFromRowCorruptPayload(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.fromRow(snapshotRow{ID: id.New(), Payload: []byte("junk"), Compression: "zstd"})
	assert.Error(t, err)
}

type txKey struct{}

// fakeTxManager marks ctx inside a transaction and hands out a querier that
// records the statements it sees.
type fakeTxManager struct {
	readWrite int
	readOnly  int
	roErr     error
	querier   *fakeQuerier
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readWrite++
	return fn(context.WithValue(ctx, txKey{}, "rw"))
}

func (m *fakeTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnly++
	if m.roErr != nil {
		return m.roErr
	}
	return fn(context.WithValue(ctx, txKey{}, "ro"))
}

func (m *fakeTxManager) GetQuerier(ctx context.Context) postgres.Querier {
	m.querier.tx, _ = ctx.Value(txKey{}).(string)
	return m.querier
}

type fakeQuerier struct {
	tx    string
	execs []string
	args  [][]any
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func newFakeRepo(t *testing.T, txm *fakeTxManager) *SnapshotRepo {
	t.Helper()
	codec, err := postgres.NewPayloadCodec(128)
	require.NoError(t, err)
	return NewSnapshotRepo(txm, codec)
}

func TestSave_InsertsInsideTransaction(t *testing.T) {
	txm := &fakeTxManager{querier: &fakeQuerier{}}
	r := newFakeRepo(t, txm)

	err := r.Save(context.Background(), reports.Snapshot{
		ID:        id.New(),
		RunID:     "run-1",
		Kind:      reports.SnapshotAnalysis,
		Year:      2024,
		CreatedAt: time.Now().UTC(),
		Payload:   []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, txm.readWrite)
	assert.Zero(t, txm.readOnly)
	assert.Equal(t, "rw", txm.querier.tx)
	require.Len(t, txm.querier.execs, 1)
	assert.Contains(t, txm.querier.execs[0], "INSERT INTO report_snapshots")
	assert.Len(t, txm.querier.args[0], 7)
}

func TestEnsureSchema_UsesQuerierOutsideTransaction(t *testing.T) {
	txm := &fakeTxManager{querier: &fakeQuerier{}}
	r := newFakeRepo(t, txm)

	require.NoError(t, r.EnsureSchema(context.Background()))
	assert.Zero(t, txm.readWrite)
	assert.Empty(t, txm.querier.tx)
	assert.Equal(t, []string{Schema}, txm.querier.execs)
}

func TestReads_UseReadOnlyTransaction(t *testing.T) {
	txm := &fakeTxManager{querier: &fakeQuerier{}, roErr: errors.New("connection refused")}
	r := newFakeRepo(t, txm)

	_, err := r.List(context.Background(), reports.SnapshotFilter{Kind: reports.SnapshotCollection})
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))

	_, err = r.Latest(context.Background(), reports.SnapshotCollection)
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))

	assert.Equal(t, 2, txm.readOnly)
	assert.Zero(t, txm.readWrite)
	assert.Empty(t, txm.querier.execs)
}
