package store

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/allergozyme/internal/client/repositories/kv"
	"github.com/dmitrijs2005/allergozyme/internal/dbx"
)

// SQLiteStore keeps documents in the kv table of the local database.
type SQLiteStore struct {
	db   *sql.DB
	repo kv.Repository
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, repo: kv.NewSQLiteRepository(db)}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, key)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, key, value)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// Keys lists the stored keys with their sizes in bytes.
func (s *SQLiteStore) Keys(ctx context.Context) (map[string]int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(all))
	for k, v := range all {
		out[k] = len(v)
	}
	return out, nil
}

// WithTx runs fn against a store bound to one transaction.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &txStore{repo: kv.NewSQLiteRepository(tx)})
	})
}

type txStore struct {
	repo kv.Repository
}

func (t *txStore) Get(ctx context.Context, key string) ([]byte, error) { return t.repo.Get(ctx, key) }

func (t *txStore) Set(ctx context.Context, key string, value []byte) error {
	return t.repo.Set(ctx, key, value)
}

func (t *txStore) Delete(ctx context.Context, key string) error { return t.repo.Delete(ctx, key) }
