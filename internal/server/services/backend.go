// Package services contains the hosted backend of AllergoZyme. Backend
// implements client.Service on Postgres: bcrypt credentials, stateless JWT
// access tokens and the profiles and reviews tables.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/dbx"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/dmitrijs2005/allergozyme/internal/server/auth"
	srvmodels "github.com/dmitrijs2005/allergozyme/internal/server/models"
	"github.com/dmitrijs2005/allergozyme/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = common.Auth("invalid login credentials")

// Backend is the hosted auth and table service.
type Backend struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	logger                      logging.Logger
}

var _ client.Service = (*Backend)(nil)

// NewBackend constructs a Backend on db.
func NewBackend(db *sql.DB, m repomanager.RepositoryManager, secret string, ttl time.Duration, logger logging.Logger) *Backend {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Backend{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(secret),
		accessTokenValidityDuration: ttl,
		bcryptCost:                  bcrypt.DefaultCost,
		logger:                      logger.With("component", "backend"),
	}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Open connects to the Postgres database at dsn through the pgx driver.
func Open(ctx context.Context, dsn, secret string, ttl time.Duration, logger logging.Logger) (*Backend, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewBackend(db, repomanager.NewPostgresRepositoryManager(), secret, ttl, logger), nil
}

// Migrate applies the hosted migrations to the database at dsn. It needs
// no token secret.
func Migrate(ctx context.Context, dsn string, logger logging.Logger) error {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info(ctx, "applying hosted migrations")
	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate hosted database: %w", err)
	}
	return nil
}

// RunMigrations creates or upgrades the hosted tables.
func (b *Backend) RunMigrations(ctx context.Context) error {
	if err := b.repomanager.RunMigrations(ctx, b.db); err != nil {
		return fmt.Errorf("migrate hosted database: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (b *Backend) SignUp(ctx context.Context, email, password string) (*client.AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, common.Validation("email required")
	}
	if password == "" {
		return nil, common.Validation("password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.Validation("password too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a, err := b.repomanager.Accounts(b.db).Create(ctx, &srvmodels.Account{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	b.logger.Info(ctx, "account created", "user_id", a.ID)
	return &client.AuthUser{ID: a.ID, Email: a.Email}, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*client.AuthSession, error) {
	a, err := b.repomanager.Accounts(b.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}

	token, expires, err := auth.GenerateToken(a.ID, a.Email, b.jwtSecret, b.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &client.AuthSession{
		AccessToken: token,
		ExpiresAt:   expires,
		User:        client.AuthUser{ID: a.ID, Email: a.Email},
	}, nil
}

// SignOut only checks the token; access tokens are stateless and simply
// expire.
func (b *Backend) SignOut(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := auth.ParseToken(token, b.jwtSecret); err != nil {
		return common.Auth("invalid token")
	}
	return nil
}

func (b *Backend) GetUser(_ context.Context, token string) (*client.AuthUser, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := auth.ParseToken(token, b.jwtSecret)
	if err != nil {
		return nil, nil
	}
	return &client.AuthUser{ID: claims.UserID, Email: claims.Email}, nil
}

func (b *Backend) GetProfile(ctx context.Context, userID string) (*models.PublicUser, error) {
	return b.repomanager.Profiles(b.db).Get(ctx, userID)
}

func (b *Backend) InsertProfile(ctx context.Context, p models.PublicUser) error {
	p.Email = normalizeEmail(p.Email)
	p.Profile = p.Profile.Sanitize()
	return b.repomanager.Profiles(b.db).Insert(ctx, p)
}

// UpdateProfile merges patch into the stored profile in one transaction.
func (b *Backend) UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.PublicUser, error) {
	var out *models.PublicUser
	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := b.repomanager.Profiles(tx)
		p, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}
		p.Profile = patch.Apply(p.Profile)
		out, err = repo.Update(ctx, *p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) ListReviews(ctx context.Context) ([]models.Review, error) {
	return b.repomanager.Reviews(b.db).List(ctx)
}

func (b *Backend) InsertReview(ctx context.Context, userID string, r models.Review) (*models.Review, error) {
	if userID == "" {
		return nil, common.Auth("not signed in")
	}
	return b.repomanager.Reviews(b.db).Insert(ctx, userID, r)
}

func (b *Backend) UpdateReview(ctx context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error) {
	return b.repomanager.Reviews(b.db).Update(ctx, userID, id, patch)
}

func (b *Backend) DeleteReview(ctx context.Context, userID, id string) error {
	return b.repomanager.Reviews(b.db).Delete(ctx, userID, id)
}

func (b *Backend) Close() error {
	return b.db.Close()
}
