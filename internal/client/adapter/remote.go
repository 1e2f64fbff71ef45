package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/services"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// remoteSession is what survives between page loads under
// store.KeyRemoteSession.
type remoteSession struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   models.Millis `json:"expires_at"`
	UserID      string        `json:"user_id"`
}

// Remote implements the auth and review capabilities on a client.Service.
type Remote struct {
	svc    client.Service
	local  store.Store
	nav    services.Navigator
	logger logging.Logger

	mu      sync.RWMutex
	token   string
	profile *models.PublicUser
	cache   []models.Review
}

// NewRemote binds the adapter. local is the plain local store used for the
// token and the reviews mirror.
func NewRemote(svc client.Service, local store.Store, nav services.Navigator, logger logging.Logger) *Remote {
	if nav == nil {
		nav = services.NopNavigator{}
	}
	return &Remote{svc: svc, local: local, nav: nav, logger: logger.With("component", "remote")}
}

// Restore picks up the persisted session and syncs the profile and the
// reviews. Failures are logged; the adapter stays usable signed out.
func (r *Remote) Restore(ctx context.Context) {
	if s := store.GetJSON[*remoteSession](ctx, r.local, store.KeyRemoteSession, nil); s != nil {
		r.mu.Lock()
		r.token = s.AccessToken
		r.mu.Unlock()
	}
	if _, err := r.loadProfile(ctx); err != nil {
		r.logger.Warn(ctx, "profile sync failed", "error", err)
	}
	if err := r.RefreshReviews(ctx); err != nil {
		r.logger.Warn(ctx, "review sync failed", "error", err)
	}
}

func (r *Remote) accessToken() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

// user asks the service who the current token belongs to. nil means signed
// out.
func (r *Remote) user(ctx context.Context) (*client.AuthUser, error) {
	tok := r.accessToken()
	if tok == "" {
		return nil, nil
	}
	return r.svc.GetUser(ctx, tok)
}

func (r *Remote) requireUser(ctx context.Context) (*client.AuthUser, error) {
	u, err := r.user(ctx)
	if err != nil {
		return nil, common.Surface(err, common.ErrNetwork, "auth check failed")
	}
	if u == nil {
		return nil, common.Auth("not signed in")
	}
	return u, nil
}

// loadProfile fetches the profile row of the current user. A user without
// a row gets a bare profile with id and email.
func (r *Remote) loadProfile(ctx context.Context) (*models.PublicUser, error) {
	u, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		r.setProfile(nil)
		return nil, nil
	}
	p, err := r.svc.GetProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if p == nil {
		p = &models.PublicUser{ID: u.ID, Email: u.Email}
	}
	r.setProfile(p)
	return p, nil
}

func (r *Remote) setProfile(p *models.PublicUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = p
}

func (r *Remote) setSession(ctx context.Context, s *client.AuthSession) {
	r.mu.Lock()
	r.token = s.AccessToken
	r.mu.Unlock()

	err := store.SetJSON(ctx, r.local, store.KeyRemoteSession, remoteSession{
		AccessToken: s.AccessToken,
		ExpiresAt:   models.MillisOf(s.ExpiresAt),
		UserID:      s.User.ID,
	})
	if err != nil {
		r.logger.Warn(ctx, "remote session not persisted", "error", err)
	}
}

// CreateUser signs up, stores the profile row and signs in.
func (r *Remote) CreateUser(ctx context.Context, in models.NewUser) (*models.PublicUser, error) {
	email := services.NormalizeEmail(in.Email)
	if email == "" {
		return nil, common.Validation("email required")
	}
	if utf8.RuneCountInString(in.Password) < common.MinPasswordLength {
		return nil, common.Validation(fmt.Sprintf("password too short (min %d)", common.MinPasswordLength))
	}

	u, err := r.svc.SignUp(ctx, email, in.Password)
	if err != nil {
		return nil, common.Surface(err, common.ErrAuth, "sign-up failed")
	}
	if u == nil {
		return nil, common.Auth("sign-up failed")
	}

	now := models.NowMillis()
	profile := models.PublicUser{
		ID:        u.ID,
		Email:     email,
		Profile:   in.Profile.Sanitize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.svc.InsertProfile(ctx, profile); err != nil && !errors.Is(err, common.ErrConflict) {
		return nil, common.Surface(err, common.ErrNetwork, "profile save failed")
	}
	r.setProfile(&profile)

	if sess, err := r.svc.SignIn(ctx, email, in.Password); err != nil {
		r.logger.Warn(ctx, "sign-in after sign-up failed", "error", err)
	} else {
		r.setSession(ctx, sess)
	}

	if err := r.RefreshReviews(ctx); err != nil {
		r.logger.Warn(ctx, "review sync failed", "error", err)
	}
	r.logger.Info(ctx, "remote account created", "user_id", u.ID)
	out := profile
	return &out, nil
}

// SignIn opens a session on the service and keeps its token.
func (r *Remote) SignIn(ctx context.Context, email, password string) (*models.PublicUser, error) {
	sess, err := r.svc.SignIn(ctx, services.NormalizeEmail(email), password)
	if err != nil {
		return nil, common.Surface(err, common.ErrAuth, "sign-in failed")
	}
	if sess == nil {
		return nil, common.Auth("sign-in failed")
	}
	r.setSession(ctx, sess)

	p, err := r.loadProfile(ctx)
	if err != nil {
		r.logger.Warn(ctx, "profile load failed", "error", err)
		p = &models.PublicUser{ID: sess.User.ID, Email: sess.User.Email}
		r.setProfile(p)
	}
	if err := r.RefreshReviews(ctx); err != nil {
		r.logger.Warn(ctx, "review sync failed", "error", err)
	}
	if p == nil {
		return nil, common.Auth("sign-in failed")
	}
	out := *p
	return &out, nil
}

// SignOut drops the session, the profile, the cache and the local mirror,
// then goes back to the index page.
func (r *Remote) SignOut(ctx context.Context) error {
	if tok := r.accessToken(); tok != "" {
		if err := r.svc.SignOut(ctx, tok); err != nil {
			r.logger.Warn(ctx, "remote sign-out failed", "error", err)
		}
	}

	r.mu.Lock()
	r.token, r.profile, r.cache = "", nil, nil
	r.mu.Unlock()

	if err := r.local.Delete(ctx, store.KeyRemoteSession); err != nil {
		r.logger.Warn(ctx, "remote session not cleared", "error", err)
	}
	r.mirror(ctx, []models.Review{})
	r.nav.Go(services.ScreenPath(services.ScreenIndex))
	return nil
}

// CurrentUser returns the cached profile, nil when signed out.
func (r *Remote) CurrentUser(context.Context) (*models.PublicUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.profile == nil {
		return nil, nil
	}
	out := *r.profile
	return &out, nil
}

// RequireAuth checks the token with the service. Without a user it
// navigates to redirect and returns false.
func (r *Remote) RequireAuth(ctx context.Context, redirect string) bool {
	u, err := r.user(ctx)
	if err != nil {
		r.logger.Warn(ctx, "auth check failed", "error", err)
	}
	if u == nil {
		if redirect == "" {
			redirect = services.ScreenPath(services.ScreenSignIn)
		}
		r.nav.Go(redirect)
		return false
	}
	if _, err := r.loadProfile(ctx); err != nil {
		r.logger.Warn(ctx, "profile sync failed", "error", err)
	}
	return true
}

// UpdateUser updates the profile row of the signed-in user.
func (r *Remote) UpdateUser(ctx context.Context, patch models.UserPatch) (*models.PublicUser, error) {
	u, err := r.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.svc.UpdateProfile(ctx, u.ID, patch)
	if err != nil {
		return nil, common.Surface(err, common.ErrNetwork, "update failed")
	}
	r.setProfile(p)
	out := *p
	return &out, nil
}

// Firstname returns the first name of the cached profile when it belongs to
// userID.
func (r *Remote) Firstname(_ context.Context, userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.profile != nil && r.profile.ID == userID {
		return r.profile.Firstname, true
	}
	return "", false
}

func (r *Remote) firstname() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.profile != nil {
		if f := strings.TrimSpace(r.profile.Firstname); f != "" {
			return f
		}
	}
	return common.AnonymousFirstname
}

// AddReview inserts a review owned by the signed-in user.
func (r *Remote) AddReview(ctx context.Context, in models.NewReview) (*models.Review, error) {
	u, err := r.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	lat, okLat := in.Lat.Float()
	lng, okLng := in.Lng.Float()
	if !okLat || !okLng {
		return nil, common.Validation("invalid coordinates")
	}
	note := in.Note
	if math.IsNaN(note) || math.IsInf(note, 0) {
		note = 0
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = common.DefaultEstablishmentName
	}

	row := models.Review{
		UserID:        u.ID,
		Name:          name,
		Category:      models.NormalizeCategory(in.Category),
		Note:          note,
		Address:       strings.TrimSpace(in.Address),
		Lat:           &lat,
		Lng:           &lng,
		Comment:       strings.TrimSpace(in.Comment),
		SchemaVersion: models.CurrentReviewVersion,
	}
	saved, err := r.svc.InsertReview(ctx, u.ID, row)
	if err != nil {
		return nil, common.Surface(err, common.ErrNetwork, "review save failed")
	}

	out := *saved
	out.UserFirstname = r.firstname()

	r.mu.Lock()
	next := make([]models.Review, 0, len(r.cache)+1)
	next = append(next, out)
	next = append(next, r.cache...)
	r.cache = next
	r.mu.Unlock()
	r.mirror(ctx, next)

	return &out, nil
}

// GetReviews filters the cache, or the local mirror when the cache is
// empty. The result is never nil.
func (r *Remote) GetReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	src := r.Cache()
	if len(src) == 0 {
		src = r.mirrored(ctx)
	}
	return models.FilterReviews(src, filter), nil
}

func (r *Remote) mirrored(ctx context.Context) []models.Review {
	raw := store.GetJSON(ctx, r.local, store.KeyReviews, []json.RawMessage{})
	res, err := models.MigrateReviews(raw, func(id string) (string, bool) { return r.Firstname(ctx, id) })
	if err != nil {
		return []models.Review{}
	}
	return res.Reviews
}

// RefreshReviews replaces the cache with the current listing and mirrors
// it locally.
func (r *Remote) RefreshReviews(ctx context.Context) error {
	rows, err := r.svc.ListReviews(ctx)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []models.Review{}
	}
	r.replaceCache(rows)
	r.mirror(ctx, rows)
	return nil
}

// Cache returns a copy of the cached listing.
func (r *Remote) Cache() []models.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Review(nil), r.cache...)
}

func (r *Remote) replaceCache(rows []models.Review) {
	next := append([]models.Review(nil), rows...)
	r.mu.Lock()
	r.cache = next
	r.mu.Unlock()
}

func (r *Remote) mirror(ctx context.Context, rows []models.Review) {
	if err := store.SetJSON(ctx, r.local, store.KeyReviews, rows); err != nil {
		r.logger.Warn(ctx, "local review mirror not written", "error", err)
	}
}

// UpdateReview changes a review of the signed-in user.
func (r *Remote) UpdateReview(ctx context.Context, id string, patch models.ReviewPatch) (*models.Review, error) {
	u, err := r.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Lat == nil || patch.Lng == nil || !finite(*patch.Lat) || !finite(*patch.Lng) {
		patch.Lat, patch.Lng = nil, nil
	}
	saved, err := r.svc.UpdateReview(ctx, u.ID, id, patch)
	if err != nil {
		return nil, common.Surface(err, common.ErrNetwork, "update failed")
	}

	r.mu.Lock()
	next := append([]models.Review(nil), r.cache...)
	for i := range next {
		if next[i].ID == id {
			next[i] = *saved
		}
	}
	r.cache = next
	r.mu.Unlock()
	r.mirror(ctx, next)

	out := *saved
	return &out, nil
}

// DeleteReview removes a review of the signed-in user.
func (r *Remote) DeleteReview(ctx context.Context, id string) error {
	u, err := r.requireUser(ctx)
	if err != nil {
		return err
	}
	if err := r.svc.DeleteReview(ctx, u.ID, id); err != nil {
		return common.Surface(err, common.ErrNetwork, "delete failed")
	}

	r.mu.Lock()
	next := make([]models.Review, 0, len(r.cache))
	for _, rv := range r.cache {
		if rv.ID != id {
			next = append(next, rv)
		}
	}
	r.cache = next
	r.mu.Unlock()
	r.mirror(ctx, next)
	return nil
}

// errNotSignedIn marks ops found without a session at dispatch time.
var errNotSignedIn = common.Auth("not signed in")

// Apply replays one pending op in the scope of the user signed in now,
// then refreshes the cache.
func (r *Remote) Apply(ctx context.Context, op models.PendingOp) error {
	u, err := r.user(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		return errNotSignedIn
	}

	switch op.Kind {
	case models.OpUpdate:
		patch, err := op.Patch()
		if err != nil {
			return fmt.Errorf("decode patch: %w", err)
		}
		if _, err := r.svc.UpdateReview(ctx, u.ID, op.ReviewID, patch); err != nil {
			return err
		}
	case models.OpDelete:
		if err := r.svc.DeleteReview(ctx, u.ID, op.ReviewID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}

	if err := r.RefreshReviews(ctx); err != nil {
		r.logger.Warn(ctx, "review sync after replay failed", "error", err)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
