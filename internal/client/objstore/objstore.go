// Package objstore stores export backups in an S3-compatible bucket. Two
// backends are available: the AWS SDK (S3 and compatible endpoints) and the
// MinIO client.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Backend is the object storage used for backups.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns a *common.Error of kind ErrNotFound for missing keys.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

const (
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

// ErrDisabled is returned by New when no provider is configured.
var ErrDisabled = errors.New("object storage disabled")

// Config selects and configures a backend.
type Config struct {
	Provider  string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// New builds the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, ErrDisabled
	case ProviderS3:
		return NewS3Backend(ctx, cfg)
	case ProviderMinio:
		return NewMinioBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown object storage provider %q", cfg.Provider)
	}
}
