// Package store is the key/value facade over browser-context storage. Values
// are JSON documents; reads degrade to a caller-supplied default.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage keys.
const (
	KeyUsers         = "az_users"
	KeySession       = "az_session"
	KeyReviews       = "az_reviews"
	KeySettings      = "az_settings"
	KeyRemoteSession = "az_remote_session"
)

// Store reads and writes raw documents. Get returns (nil, nil) for a missing
// key and Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// TxStore is a Store that can apply several writes atomically.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// GetJSON decodes the document under key into a T. It returns def when the
// key is missing, the read fails or the document does not decode.
func GetJSON[T any](ctx context.Context, s Store, key string, def T) T {
	raw, err := s.Get(ctx, key)
	if err != nil || raw == nil {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
