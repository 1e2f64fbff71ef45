package accounts

import (
	"context"

	"github.com/dmitrijs2005/allergozyme/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
