package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/cryptox"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// ImportCounts is the size of the collections after an import.
type ImportCounts struct {
	Users   int `json:"users"`
	Reviews int `json:"reviews"`
}

// TransferService exports and imports the whole local state.
type TransferService struct {
	store   store.TxStore
	reviews *ReviewService
	version string
	logger  logging.Logger
}

func NewTransferService(s store.TxStore, reviews *ReviewService, version string, logger logging.Logger) *TransferService {
	return &TransferService{store: s, reviews: reviews, version: version, logger: logger.With("component", "transfer")}
}

// Export migrates the reviews and returns the current state.
func (t *TransferService) Export(ctx context.Context) (models.ExportDocument, error) {
	if _, err := t.reviews.Migrate(ctx); err != nil {
		t.logger.Warn(ctx, "review migration failed before export", "error", err)
	}
	reviews, err := t.reviews.All(ctx)
	if err != nil {
		return models.ExportDocument{}, err
	}
	users, err := loadUsers(ctx, t.store)
	if err != nil {
		return models.ExportDocument{}, err
	}
	if n := users.Unreadable(); n > 0 {
		t.logger.Warn(ctx, "user records left out of the export", "count", n)
	}
	return models.ExportDocument{
		Version: t.version,
		Users:   users.Users,
		Reviews: reviews,
	}, nil
}

// ExportDocument returns the export as indented JSON.
func (t *TransferService) ExportDocument(ctx context.Context) (string, error) {
	doc, err := t.Export(ctx)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return string(b), nil
}

// WriteExport writes the indented export document to w.
func (t *TransferService) WriteExport(ctx context.Context, w io.Writer) error {
	text, err := t.ExportDocument(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text+"\n")
	return err
}

// ImportDocument replaces the local users and/or reviews with the arrays
// present in text. Both writes happen in one transaction; reviews are
// migrated afterwards.
func (t *TransferService) ImportDocument(ctx context.Context, text string) (ImportCounts, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return ImportCounts{}, common.Validation("invalid JSON")
	}

	users, hasUsers := arrayField(doc, "users")
	reviews, hasReviews := arrayField(doc, "reviews")

	err := t.store.WithTx(ctx, func(ctx context.Context, s store.Store) error {
		if hasUsers {
			if err := s.Set(ctx, store.KeyUsers, users); err != nil {
				return fmt.Errorf("save users: %w", err)
			}
		}
		if hasReviews {
			if err := s.Set(ctx, store.KeyReviews, reviews); err != nil {
				return fmt.Errorf("save reviews: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportCounts{}, err
	}

	if _, err := t.reviews.Migrate(ctx); err != nil {
		t.logger.Warn(ctx, "review migration failed after import", "error", err)
	}
	all, err := t.reviews.All(ctx)
	if err != nil {
		return ImportCounts{}, err
	}
	userDoc, err := loadUsers(ctx, t.store)
	if err != nil {
		return ImportCounts{}, err
	}
	counts := ImportCounts{
		Users:   len(userDoc.Users),
		Reviews: len(all),
	}
	t.logger.Info(ctx, "import done", "users", counts.Users, "reviews", counts.Reviews)
	return counts, nil
}

// arrayField returns doc[name] when it holds a JSON array.
func arrayField(doc map[string]json.RawMessage, name string) ([]byte, bool) {
	raw, ok := doc[name]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	return raw, true
}

// SealExport returns the export document encrypted under passphrase.
func (t *TransferService) SealExport(ctx context.Context, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, common.Validation("passphrase required")
	}
	text, err := t.ExportDocument(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.Seal([]byte(text), []byte(passphrase))
}

// OpenSealed decrypts a sealed export and imports it.
func (t *TransferService) OpenSealed(ctx context.Context, blob []byte, passphrase string) (ImportCounts, error) {
	plain, err := cryptox.Open(blob, []byte(passphrase))
	if err != nil {
		if errors.Is(err, cryptox.ErrSealed) {
			return ImportCounts{}, common.Validation("cannot open sealed export")
		}
		return ImportCounts{}, err
	}
	return t.ImportDocument(ctx, string(plain))
}
