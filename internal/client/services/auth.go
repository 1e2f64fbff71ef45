// Package services contains the local application services of AllergoZyme:
// accounts and sessions, reviews, export/import and backups. They keep
// their state in a store.Store.
package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/cryptox"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/google/uuid"
)

// AuthService manages local accounts and the single local session.
type AuthService struct {
	store     store.Store
	nav       Navigator
	algorithm string
	logger    logging.Logger
}

// NewAuthService binds the service to s. algorithm picks the password
// digest for new accounts (see cryptox); an unavailable one falls back to
// the reversible b64 encoding with a warning.
func NewAuthService(s store.Store, nav Navigator, algorithm string, logger logging.Logger) *AuthService {
	if nav == nil {
		nav = NopNavigator{}
	}
	if algorithm == "" {
		algorithm = cryptox.AlgSHA256
	}
	return &AuthService{store: s, nav: nav, algorithm: algorithm, logger: logger.With("component", "auth")}
}

// loadUsers reads the stored users. A failed read or a document that is
// not an array is an error, so the collection is never rewritten from a
// default.
func loadUsers(ctx context.Context, s store.Store) (models.UserDocument, error) {
	raw, err := s.Get(ctx, store.KeyUsers)
	if err != nil {
		return models.UserDocument{}, fmt.Errorf("load users: %w", err)
	}
	doc, err := models.DecodeUserDocument(raw)
	if err != nil {
		return models.UserDocument{}, fmt.Errorf("load users: %w", err)
	}
	return doc, nil
}

func (a *AuthService) users(ctx context.Context) []models.User {
	doc, err := loadUsers(ctx, a.store)
	if err != nil {
		a.logger.Warn(ctx, "users unreadable", "error", err)
		return []models.User{}
	}
	return doc.Users
}

func (a *AuthService) session(ctx context.Context) *models.Session {
	return store.GetJSON[*models.Session](ctx, a.store, store.KeySession, nil)
}

func (a *AuthService) startSession(ctx context.Context, userID string) error {
	return store.SetJSON(ctx, a.store, store.KeySession, models.Session{UserID: userID, TS: models.NowMillis()})
}

// CreateUser registers a new account and signs it in.
func (a *AuthService) CreateUser(ctx context.Context, in models.NewUser) (*models.PublicUser, error) {
	email := NormalizeEmail(in.Email)
	if !ValidEmail(email) {
		return nil, common.Validation("invalid email")
	}
	if utf8.RuneCountInString(in.Password) < common.MinPasswordLength {
		return nil, common.Validation(fmt.Sprintf("password too short (min %d)", common.MinPasswordLength))
	}

	doc, err := loadUsers(ctx, a.store)
	if err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if NormalizeEmail(u.Email) == email {
			return nil, common.Conflict("email already in use")
		}
	}

	alg := a.algorithm
	if !cryptox.Available(alg) {
		a.logger.Warn(ctx, "password algorithm unavailable, using fallback", "algorithm", alg, "fallback", cryptox.AlgBase64)
		alg = cryptox.AlgBase64
	}

	now := models.NowMillis()
	u := models.User{
		PublicUser: models.PublicUser{
			ID:        uuid.NewString(),
			Email:     email,
			Profile:   in.Profile.Sanitize(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: cryptox.HashPassword(alg, in.Password, uuid.NewString()),
	}

	doc.Users = append(doc.Users, u)
	if err := store.SetJSON(ctx, a.store, store.KeyUsers, doc); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	if err := a.startSession(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	a.logger.Info(ctx, "account created", "user_id", u.ID)
	pub := u.Public()
	return &pub, nil
}

// SignIn checks the credentials of a local account and opens a session.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (*models.PublicUser, error) {
	e := NormalizeEmail(email)

	var found *models.User
	for _, u := range a.users(ctx) {
		if NormalizeEmail(u.Email) == e {
			found = &u
			break
		}
	}
	if found == nil {
		return nil, common.NotFound("account not found")
	}

	ok, err := cryptox.VerifyPassword(found.PasswordHash, password)
	if err != nil {
		a.logger.Warn(ctx, "stored password hash rejected", "user_id", found.ID, "error", err)
	}
	if !ok {
		return nil, common.Auth("wrong password")
	}

	if err := a.startSession(ctx, found.ID); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	pub := found.Public()
	return &pub, nil
}

// CurrentUser returns the signed-in user, or nil when there is none.
func (a *AuthService) CurrentUser(ctx context.Context) (*models.PublicUser, error) {
	s := a.session(ctx)
	if s == nil {
		return nil, nil
	}
	for _, u := range a.users(ctx) {
		if u.ID == s.UserID {
			pub := u.Public()
			return &pub, nil
		}
	}
	return nil, nil
}

// RequireAuth sends the user to redirect (the sign-in page by default)
// when nobody is signed in, and reports whether someone is.
func (a *AuthService) RequireAuth(ctx context.Context, redirect string) bool {
	if u, _ := a.CurrentUser(ctx); u != nil {
		return true
	}
	if redirect == "" {
		redirect = ScreenPath(ScreenSignIn)
	}
	a.nav.Go(redirect)
	return false
}

// SignOut closes the session and goes back to the index page.
func (a *AuthService) SignOut(ctx context.Context) error {
	if err := a.store.Delete(ctx, store.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.nav.Go(ScreenPath(ScreenIndex))
	return nil
}

// UpdateUser merges patch into the signed-in user's profile. The email is
// never changed.
func (a *AuthService) UpdateUser(ctx context.Context, patch models.UserPatch) (*models.PublicUser, error) {
	s := a.session(ctx)
	if s == nil {
		return nil, common.Auth("not signed in")
	}

	doc, err := loadUsers(ctx, a.store)
	if err != nil {
		return nil, err
	}
	users := doc.Users
	i := -1
	for n := range users {
		if users[n].ID == s.UserID {
			i = n
			break
		}
	}
	if i < 0 {
		return nil, common.NotFound("user not found")
	}

	u := users[i]
	u.Profile = patch.Apply(u.Profile)
	u.UpdatedAt = models.NowMillis()
	users[i] = u

	if err := store.SetJSON(ctx, a.store, store.KeyUsers, doc); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	pub := u.Public()
	return &pub, nil
}
