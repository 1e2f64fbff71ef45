package profiles

import (
	"context"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
)

// Repository stores profiles keyed by the auth user id.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.PublicUser, error)
	Insert(ctx context.Context, p models.PublicUser) error
	Update(ctx context.Context, p models.PublicUser) (*models.PublicUser, error)
}
