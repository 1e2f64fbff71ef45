package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/stretchr/testify/require"
)

// recordingNav запоминает все переходы.
type recordingNav struct {
	targets []string
}

func (n *recordingNav) Go(target string) { n.targets = append(n.targets, target) }

func (n *recordingNav) Last() string {
	if len(n.targets) == 0 {
		return ""
	}
	return n.targets[len(n.targets)-1]
}

// failingStore fails every Set on the given key.
type failingStore struct {
	store.Store
	key string
}

var errQuota = errors.New("quota exceeded")

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return errQuota
	}
	return f.Store.Set(ctx, key, value)
}

type fixture struct {
	store   *store.MemoryStore
	nav     *recordingNav
	auth    *AuthService
	reviews *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	nav := &recordingNav{}
	auth := NewAuthService(s, nav, "", logging.Discard())
	return &fixture{
		store:   s,
		nav:     nav,
		auth:    auth,
		reviews: NewReviewService(s, auth.CurrentUser, logging.Discard()),
	}
}

func (f *fixture) signUp(t *testing.T, email, first string) *models.PublicUser {
	t.Helper()
	u, err := f.auth.CreateUser(context.Background(), models.NewUser{
		Email:    email,
		Password: "secret1",
		Profile:  models.Profile{Firstname: first},
	})
	require.NoError(t, err)
	return u
}
