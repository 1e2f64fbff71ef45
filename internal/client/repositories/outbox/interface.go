package outbox

import (
	"context"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
)

// Repository stores pending ops. Mark* return a common.ErrNotFound error
// for unknown ids.
type Repository interface {
	Create(ctx context.Context, op *models.PendingOp) error
	ListPending(ctx context.Context, limit int) ([]models.PendingOp, error)
	ListFailed(ctx context.Context) ([]models.PendingOp, error)
	MarkCompleted(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error
	Counts(ctx context.Context) (map[models.OpState]int, error)
	PruneCompleted(ctx context.Context) (int64, error)
}
