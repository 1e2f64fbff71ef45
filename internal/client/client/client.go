package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
)

// AuthUser is the identity the hosted service knows a user by.
type AuthUser struct {
	ID    string
	Email string
}

// AuthSession is the result of a successful sign-in.
type AuthSession struct {
	AccessToken string
	ExpiresAt   time.Time
	User        AuthUser
}

// Service is the hosted auth + table backend the remote adapter talks to.
// Errors that carry a user-facing message are *common.Error values.
type Service interface {
	SignUp(ctx context.Context, email, password string) (*AuthUser, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context, token string) error
	// GetUser returns nil, nil for empty, invalid or expired tokens.
	GetUser(ctx context.Context, token string) (*AuthUser, error)

	GetProfile(ctx context.Context, userID string) (*models.PublicUser, error)
	InsertProfile(ctx context.Context, p models.PublicUser) error
	UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.PublicUser, error)

	// ListReviews returns every review, newest first.
	ListReviews(ctx context.Context) ([]models.Review, error)
	InsertReview(ctx context.Context, userID string, r models.Review) (*models.Review, error)
	UpdateReview(ctx context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error)
	DeleteReview(ctx context.Context, userID, id string) error

	Close() error
}
