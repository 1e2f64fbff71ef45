package reviews

import (
	"context"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
)

// Repository stores reviews. Update and Delete only touch rows owned by
// userID.
type Repository interface {
	List(ctx context.Context) ([]models.Review, error)
	Insert(ctx context.Context, userID string, r models.Review) (*models.Review, error)
	Update(ctx context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, userID, id string) error
}
