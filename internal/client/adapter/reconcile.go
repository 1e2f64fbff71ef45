package adapter

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// OpSink accepts reconciliation ops.
type OpSink interface {
	Enqueue(ctx context.Context, op models.PendingOp) error
}

// ReconcilingStore wraps the local store in remote mode. Reads of the
// reviews document serve the remote cache; whole-array writes are diffed
// against it and the resulting ops handed to the sink. Other keys pass
// through.
type ReconcilingStore struct {
	local  store.Store
	remote *Remote
	sink   OpSink
	logger logging.Logger
}

func NewReconcilingStore(local store.Store, remote *Remote, sink OpSink, logger logging.Logger) *ReconcilingStore {
	return &ReconcilingStore{local: local, remote: remote, sink: sink, logger: logger.With("component", "reconcile")}
}

func (s *ReconcilingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == store.KeyReviews {
		if cache := s.remote.Cache(); len(cache) > 0 {
			return json.Marshal(cache)
		}
	}
	return s.local.Get(ctx, key)
}

// Set of the reviews document never fails because of the remote side: op
// failures end up in the outbox. The local mirror is written in every case
// and its error is returned.
func (s *ReconcilingStore) Set(ctx context.Context, key string, value []byte) error {
	if key != store.KeyReviews {
		return s.local.Set(ctx, key, value)
	}

	next := decodeReviews(value)
	ops := Diff(s.remote.Cache(), next)
	for _, op := range ops {
		if err := s.sink.Enqueue(ctx, op); err != nil {
			s.logger.Error(ctx, "reconciliation op not queued", "op", op.Kind, "review_id", op.ReviewID, "error", err)
		}
	}
	if len(ops) > 0 {
		s.logger.Debug(ctx, "reviews reconciled", "ops", len(ops))
	}
	s.remote.replaceCache(next)
	return s.local.Set(ctx, key, value)
}

func (s *ReconcilingStore) Delete(ctx context.Context, key string) error {
	return s.local.Delete(ctx, key)
}

// decodeReviews reads a written reviews document. Anything but an array
// reads as empty. Elements are read leniently, so a review still present in
// the array is never mistaken for a removed one.
func decodeReviews(value []byte) []models.Review {
	var raw []json.RawMessage
	if err := json.Unmarshal(value, &raw); err != nil {
		return []models.Review{}
	}
	res, err := models.MigrateReviews(raw, nil)
	if err != nil {
		return []models.Review{}
	}
	return res.Reviews
}
