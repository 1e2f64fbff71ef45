package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/allergozyme/internal/dbx"
	"github.com/dmitrijs2005/allergozyme/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/allergozyme/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/allergozyme/internal/server/repositories/reviews"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Reviews(db dbx.DBTX) reviews.Repository
}
