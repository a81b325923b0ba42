package reports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
	appctx "portraits/internal/core/context"
)

type fakeRepo struct {
	saved   []Snapshot
	filter  SnapshotFilter
	saveErr error
}

func (r *fakeRepo) Save(_ context.Context, s Snapshot) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, s)
	return nil
}

func (r *fakeRepo) Latest(_ context.Context, kind SnapshotKind) (Snapshot, error) {
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].Kind == kind {
			return r.saved[i], nil
		}
	}
	return Snapshot{}, apperror.NewNotFound("snapshot", kind)
}

func (r *fakeRepo) List(_ context.Context, filter SnapshotFilter) ([]Snapshot, error) {
	r.filter = filter
	return r.saved, nil
}

func TestService_Record(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{RunID: "run-42"})

	snap, err := svc.Record(ctx, SnapshotEmployment, 2024, map[string]int{"total": 3})
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	assert.Equal(t, "run-42", saved.RunID)
	assert.Equal(t, SnapshotEmployment, saved.Kind)
	assert.Equal(t, 2024, saved.Year)
	assert.JSONEq(t, `{"total":3}`, string(saved.Payload))
	assert.False(t, saved.CreatedAt.IsZero())

	latest, err := svc.Latest(ctx, SnapshotEmployment)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, latest.ID)

	_, err = svc.Latest(ctx, SnapshotAnalysis)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RecordErrors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewService(&fakeRepo{}).Record(context.Background(), "bogus", 2024, nil)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		_, err := NewService(&fakeRepo{}).Record(context.Background(), SnapshotAnalysis, 2024, func() {})
		var jsonErr *json.UnsupportedTypeError
		assert.ErrorAs(t, err, &jsonErr)
	})

	t.Run("repository failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewService(&fakeRepo{saveErr: boom}).Record(context.Background(), SnapshotAnalysis, 2024, 1)
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Disabled(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Enabled())

	snap, err := svc.Record(context.Background(), SnapshotCollection, 2024, 1)
	require.NoError(t, err)
	assert.Nil(t, snap)

	_, err = svc.Latest(context.Background(), SnapshotCollection)
	assert.True(t, apperror.IsNotFound(err))

	list, err := svc.List(context.Background(), SnapshotFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_ListLimits(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), SnapshotFilter{})
	require.NoError(t, err)
	assert.Equal(t, 20, repo.filter.Limit)

	_, err = svc.List(context.Background(), SnapshotFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 200, repo.filter.Limit)

	_, err = svc.List(context.Background(), SnapshotFilter{Kind: "bogus"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
