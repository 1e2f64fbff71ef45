package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/objstore"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/google/uuid"
)

const exportContentType = "application/json"

// BackupService copies export documents to object storage and back.
type BackupService struct {
	backend  objstore.Backend
	transfer *TransferService
	logger   logging.Logger
	now      func() time.Time
}

func NewBackupService(backend objstore.Backend, transfer *TransferService, logger logging.Logger) *BackupService {
	return &BackupService{
		backend:  backend,
		transfer: transfer,
		logger:   logger.With("component", "backup"),
		now:      time.Now,
	}
}

// BackupKey is the object key of a backup taken at t.
func BackupKey(t time.Time, id string) string {
	return fmt.Sprintf("exports/%s/%s.json", t.UTC().Format("2006/01/02"), id)
}

// Upload stores the current export document and returns its key.
func (b *BackupService) Upload(ctx context.Context) (string, error) {
	text, err := b.transfer.ExportDocument(ctx)
	if err != nil {
		return "", err
	}
	if err := b.backend.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := BackupKey(b.now(), uuid.NewString())
	data := []byte(text)
	if err := b.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return "", err
	}
	b.logger.Info(ctx, "backup uploaded", "bucket", b.backend.Bucket(), "key", key, "size", len(data))
	return key, nil
}

// Restore downloads the backup under key and imports it.
func (b *BackupService) Restore(ctx context.Context, key string) (ImportCounts, error) {
	rc, err := b.backend.Get(ctx, key)
	if err != nil {
		return ImportCounts{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ImportCounts{}, fmt.Errorf("read backup %s: %w", key, err)
	}
	return b.transfer.ImportDocument(ctx, string(data))
}
