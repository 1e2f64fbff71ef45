package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink запоминает поставленные в очередь операции.
type recordingSink struct {
	ops []models.PendingOp
	err error
}

func (s *recordingSink) Enqueue(_ context.Context, op models.PendingOp) error {
	s.ops = append(s.ops, op)
	return s.err
}

func newReconciling(t *testing.T) (*remoteFixture, *recordingSink, *ReconcilingStore) {
	t.Helper()
	f := newRemoteFixture(t)
	sink := &recordingSink{}
	return f, sink, NewReconcilingStore(f.local, f.remote, sink, logging.Discard())
}

func TestReconcilingStore_GetServesCache(t *testing.T) {
	f, _, s := newReconciling(t)
	ctx := context.Background()
	require.NoError(t, f.local.Set(ctx, store.KeyReviews, []byte(`[{"id":"local"}]`)))

	b, err := s.Get(ctx, store.KeyReviews)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"local"}]`, string(b))

	f.remote.replaceCache([]models.Review{{ID: "cached"}})
	got := store.GetJSON(ctx, s, store.KeyReviews, []models.Review{})
	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].ID)
}

func TestReconcilingStore_SetDiffs(t *testing.T) {
	f, sink, s := newReconciling(t)
	ctx := context.Background()
	f.remote.replaceCache([]models.Review{
		rv("a", "A", ptr(1.0), ptr(2.0)),
		rv("b", "B", ptr(1.0), ptr(2.0)),
	})

	edited := rv("a", "A2", ptr(1.0), ptr(2.0))
	edited.SchemaVersion = models.CurrentReviewVersion
	fresh := rv("c", "C", ptr(1.0), ptr(2.0))
	fresh.SchemaVersion = models.CurrentReviewVersion
	require.NoError(t, store.SetJSON(ctx, s, store.KeyReviews, []models.Review{edited, fresh}))

	require.Len(t, sink.ops, 2)
	assert.Equal(t, models.OpDelete, sink.ops[0].Kind)
	assert.Equal(t, "b", sink.ops[0].ReviewID)
	assert.Equal(t, models.OpUpdate, sink.ops[1].Kind)
	assert.Equal(t, "a", sink.ops[1].ReviewID)

	// кэш и локальное зеркало обновлены синхронно
	cache := f.remote.Cache()
	require.Len(t, cache, 2)
	assert.Equal(t, "A2", cache[0].Name)
	mirror := store.GetJSON(ctx, f.local, store.KeyReviews, []models.Review{})
	assert.Len(t, mirror, 2)
}

func TestReconcilingStore_FormTypedFieldsUpdate(t *testing.T) {
	f, sink, s := newReconciling(t)
	f.remote.replaceCache([]models.Review{rv("a", "Chez A", ptr(1.0), ptr(2.0))})

	// страница из старой версии пишет координаты и оценку строками
	written := `[{"id":"a","name":"Chez A","category":"snack","note":"4","lat":"48.5","lng":2,"schema_version":2}]`
	require.NoError(t, s.Set(context.Background(), store.KeyReviews, []byte(written)))

	require.Len(t, sink.ops, 1)
	assert.Equal(t, models.OpUpdate, sink.ops[0].Kind)
	assert.Equal(t, "a", sink.ops[0].ReviewID)

	var patch models.ReviewPatch
	require.NoError(t, json.Unmarshal(sink.ops[0].Payload, &patch))
	require.NotNil(t, patch.Lat)
	assert.Equal(t, 48.5, *patch.Lat)
	require.NotNil(t, patch.Note)
	assert.Equal(t, 4.0, *patch.Note)

	cache := f.remote.Cache()
	require.Len(t, cache, 1)
	require.NotNil(t, cache[0].Lat)
	assert.Equal(t, 48.5, *cache[0].Lat)
}

func TestReconcilingStore_MalformedFieldsNeverDelete(t *testing.T) {
	f, sink, s := newReconciling(t)
	f.remote.replaceCache([]models.Review{
		rv("a", "A", ptr(1.0), ptr(2.0)),
		rv("b", "B", ptr(1.0), ptr(2.0)),
	})

	written := `[{"id":"a","name":"A","category":{"bad":true},"note":3,"lat":1,"lng":2,"created_at":[1]},
		{"id":"b","name":"B","category":"snack","note":3,"lat":1,"lng":2,"schema_version":2}]`
	require.NoError(t, s.Set(context.Background(), store.KeyReviews, []byte(written)))

	for _, op := range sink.ops {
		assert.NotEqual(t, models.OpDelete, op.Kind, "review %s", op.ReviewID)
	}
	assert.Len(t, f.remote.Cache(), 2)
}

func TestReconcilingStore_SinkErrorIsHidden(t *testing.T) {
	f, sink, s := newReconciling(t)
	sink.err = errors.New("disk full")
	f.remote.replaceCache([]models.Review{rv("a", "A", nil, nil)})

	require.NoError(t, s.Set(context.Background(), store.KeyReviews, []byte(`[]`)))
	assert.Len(t, sink.ops, 1)
	assert.Empty(t, f.remote.Cache())
}

func TestReconcilingStore_NonArrayClearsCache(t *testing.T) {
	f, sink, s := newReconciling(t)
	f.remote.replaceCache([]models.Review{rv("a", "A", nil, nil)})

	require.NoError(t, s.Set(context.Background(), store.KeyReviews, []byte(`{"x":1}`)))
	require.Len(t, sink.ops, 1)
	assert.Equal(t, models.OpDelete, sink.ops[0].Kind)
}

func TestReconcilingStore_OtherKeysPassThrough(t *testing.T) {
	f, sink, s := newReconciling(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, store.KeySettings, []byte(`{"theme":"dark"}`)))
	raw, err := f.local.Get(ctx, store.KeySettings)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
	assert.Empty(t, sink.ops)

	require.NoError(t, s.Delete(ctx, store.KeySettings))
	raw, _ = s.Get(ctx, store.KeySettings)
	assert.Nil(t, raw)
}

func storeSetJSON(ctx context.Context, s store.Store, v []models.Review) error {
	return store.SetJSON(ctx, s, store.KeyReviews, v)
}
