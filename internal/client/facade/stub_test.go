package facade

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/google/uuid"
)

// stubService — минимальный client.Service в памяти.
type stubService struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]client.AuthUser // by email
	tokens    map[string]client.AuthUser
	profiles  map[string]models.PublicUser
	reviews   []models.Review

	deleted []string
	closed  bool
}

func newStubService() *stubService {
	return &stubService{
		passwords: map[string]string{},
		users:     map[string]client.AuthUser{},
		tokens:    map[string]client.AuthUser{},
		profiles:  map[string]models.PublicUser{},
	}
}

func (s *stubService) SignUp(_ context.Context, email, password string) (*client.AuthUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return nil, common.Conflict("user already registered")
	}
	u := client.AuthUser{ID: uuid.NewString(), Email: email}
	s.users[email], s.passwords[email] = u, password
	return &u, nil
}

func (s *stubService) SignIn(_ context.Context, email, password string) (*client.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || s.passwords[email] != password {
		return nil, common.Auth("invalid login credentials")
	}
	tok := uuid.NewString()
	s.tokens[tok] = u
	return &client.AuthSession{AccessToken: tok, ExpiresAt: time.Now().Add(time.Hour), User: u}, nil
}

func (s *stubService) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *stubService) GetUser(_ context.Context, token string) (*client.AuthUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.tokens[token]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *stubService) GetProfile(_ context.Context, userID string) (*models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return &p, nil
	}
	return nil, common.NotFound("profile not found")
}

func (s *stubService) InsertProfile(_ context.Context, p models.PublicUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *stubService) UpdateProfile(_ context.Context, userID string, patch models.UserPatch) (*models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID]
	p.Profile = patch.Apply(p.Profile)
	s.profiles[userID] = p
	return &p, nil
}

func (s *stubService) ListReviews(context.Context) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Review, 0, len(s.reviews))
	for i := len(s.reviews) - 1; i >= 0; i-- {
		out = append(out, s.reviews[i])
	}
	return out, nil
}

func (s *stubService) InsertReview(_ context.Context, userID string, r models.Review) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID, r.UserID = uuid.NewString(), userID
	r.CreatedAt = models.NowMillis()
	s.reviews = append(s.reviews, r)
	return &r, nil
}

func (s *stubService) UpdateReview(_ context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reviews {
		if r.ID == id && r.UserID == userID {
			s.reviews[i] = patch.Apply(r)
			out := s.reviews[i]
			return &out, nil
		}
	}
	return nil, common.NotFound("review not found")
}

func (s *stubService) DeleteReview(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	for i, r := range s.reviews {
		if r.ID == id && r.UserID == userID {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			return nil
		}
	}
	return common.NotFound("review not found")
}

func (s *stubService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubService) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

type published struct {
	name    string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, name string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{name: name, payload: payload})
	return p.err
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}
