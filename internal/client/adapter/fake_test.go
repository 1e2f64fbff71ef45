package adapter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/google/uuid"
)

type account struct {
	user     client.AuthUser
	password string
}

// fakeService — это client.Service в памяти: аккаунты, профили, отзывы.
// Ошибки можно подставить, последние аргументы запоминаются.
type fakeService struct {
	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]client.AuthUser
	profiles map[string]models.PublicUser
	reviews  []models.Review

	SignUpErr        error
	SignInErr        error
	InsertProfileErr error
	UpdateProfileErr error
	ListErr          error
	InsertReviewErr  error
	UpdateReviewErr  error
	DeleteReviewErr  error
	// failures before UpdateReview/DeleteReview start succeeding
	FailFirst int

	Calls            map[string]int
	LastUpdateUserID string
	LastUpdateID     string
	LastUpdatePatch  models.ReviewPatch
	LastDeleteUserID string
	LastDeleteID     string
	LastSignOutToken string
}

func newFakeService() *fakeService {
	return &fakeService{
		accounts: map[string]account{},
		tokens:   map[string]client.AuthUser{},
		profiles: map[string]models.PublicUser{},
		Calls:    map[string]int{},
	}
}

func (f *fakeService) call(name string) {
	f.Calls[name]++
}

func (f *fakeService) SignUp(_ context.Context, email, password string) (*client.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("SignUp")
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if _, ok := f.accounts[email]; ok {
		return nil, common.Conflict("user already registered")
	}
	u := client.AuthUser{ID: uuid.NewString(), Email: email}
	f.accounts[email] = account{user: u, password: password}
	return &u, nil
}

func (f *fakeService) SignIn(_ context.Context, email, password string) (*client.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("SignIn")
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return nil, common.Auth("invalid login credentials")
	}
	tok := "tok-" + uuid.NewString()
	f.tokens[tok] = a.user
	return &client.AuthSession{AccessToken: tok, ExpiresAt: time.Now().Add(time.Hour), User: a.user}, nil
}

func (f *fakeService) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("SignOut")
	f.LastSignOutToken = token
	delete(f.tokens, token)
	return nil
}

func (f *fakeService) GetUser(_ context.Context, token string) (*client.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.tokens[token]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeService) GetProfile(_ context.Context, userID string) (*models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.NotFound("profile not found")
	}
	return &p, nil
}

func (f *fakeService) InsertProfile(_ context.Context, p models.PublicUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("InsertProfile")
	if f.InsertProfileErr != nil {
		return f.InsertProfileErr
	}
	if _, ok := f.profiles[p.ID]; ok {
		return common.Conflict("duplicate key value")
	}
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeService) UpdateProfile(_ context.Context, userID string, patch models.UserPatch) (*models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateProfileErr != nil {
		return nil, f.UpdateProfileErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.NotFound("profile not found")
	}
	p.Profile = patch.Apply(p.Profile)
	f.profiles[userID] = p
	return &p, nil
}

func (f *fakeService) ListReviews(context.Context) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("ListReviews")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := append([]models.Review(nil), f.reviews...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out, nil
}

func (f *fakeService) InsertReview(_ context.Context, userID string, r models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("InsertReview")
	if f.InsertReviewErr != nil {
		return nil, f.InsertReviewErr
	}
	r.ID = uuid.NewString()
	r.UserID = userID
	r.CreatedAt = models.MillisOf(time.Now().Add(time.Duration(len(f.reviews)) * time.Millisecond))
	f.reviews = append(f.reviews, r)
	return &r, nil
}

func (f *fakeService) find(userID, id string) int {
	for i, r := range f.reviews {
		if r.ID == id && r.UserID == userID {
			return i
		}
	}
	return -1
}

func (f *fakeService) UpdateReview(_ context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("UpdateReview")
	f.LastUpdateUserID, f.LastUpdateID, f.LastUpdatePatch = userID, id, patch
	if f.FailFirst > 0 {
		f.FailFirst--
		return nil, errors.New("connection reset")
	}
	if f.UpdateReviewErr != nil {
		return nil, f.UpdateReviewErr
	}
	i := f.find(userID, id)
	if i < 0 {
		return nil, common.NotFound("review not found")
	}
	f.reviews[i] = patch.Apply(f.reviews[i])
	r := f.reviews[i]
	return &r, nil
}

func (f *fakeService) DeleteReview(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.call("DeleteReview")
	f.LastDeleteUserID, f.LastDeleteID = userID, id
	if f.FailFirst > 0 {
		f.FailFirst--
		return errors.New("connection reset")
	}
	if f.DeleteReviewErr != nil {
		return f.DeleteReviewErr
	}
	i := f.find(userID, id)
	if i < 0 {
		return common.NotFound("review not found")
	}
	f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
	return nil
}

func (f *fakeService) Close() error { return nil }

func (f *fakeService) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}
