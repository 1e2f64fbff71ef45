// Package kv persists the browser-context key/value documents (users,
// session, reviews, settings) in the local SQLite database.
package kv

import (
	"context"
)

// Repository is a byte-valued key/value table. A missing key reads as
// (nil, nil).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
