package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/google/uuid"
)

// CurrentUserFunc resolves the signed-in user; nil means anonymous.
type CurrentUserFunc func(ctx context.Context) (*models.PublicUser, error)

// ReviewService keeps the local review collection and upgrades older
// records on read.
type ReviewService struct {
	store   store.Store
	current CurrentUserFunc
	logger  logging.Logger

	mu       sync.Mutex
	migrated [sha256.Size]byte // digest of the last array seen fully migrated
	seen     bool
}

func NewReviewService(s store.Store, current CurrentUserFunc, logger logging.Logger) *ReviewService {
	return &ReviewService{store: s, current: current, logger: logger.With("component", "reviews")}
}

func (s *ReviewService) lookup(ctx context.Context) models.FirstnameLookup {
	doc, err := loadUsers(ctx, s.store)
	if err != nil {
		s.logger.Warn(ctx, "users unreadable, reviews keep the anonymous name", "error", err)
	}
	users := doc.Users
	return func(id string) (string, bool) {
		for _, u := range users {
			if u.ID == id {
				return u.Firstname, true
			}
		}
		return "", false
	}
}

// raw returns the stored reviews array and its bytes. A missing or
// non-array document reads as empty.
func (s *ReviewService) raw(ctx context.Context) ([]json.RawMessage, []byte, error) {
	b, err := s.store.Get(ctx, store.KeyReviews)
	if err != nil {
		return nil, nil, fmt.Errorf("read reviews: %w", err)
	}
	if b == nil {
		return []json.RawMessage{}, nil, nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		s.logger.Warn(ctx, "stored reviews are not an array, ignoring", "error", err)
		return []json.RawMessage{}, b, nil
	}
	return arr, b, nil
}

// Migrate upgrades stored reviews to the current schema and persists the
// collection when something changed. It returns the number of upgraded
// records; an unchanged collection is not scanned twice.
func (s *ReviewService) Migrate(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr, b, err := s.raw(ctx)
	if err != nil {
		return 0, err
	}
	digest := sha256.Sum256(b)
	if s.seen && digest == s.migrated {
		return 0, nil
	}

	res, err := models.MigrateReviews(arr, s.lookup(ctx))
	if err != nil {
		return 0, fmt.Errorf("migrate reviews: %w", err)
	}
	if res.Changed > 0 {
		enc, err := json.Marshal(res.Raw)
		if err != nil {
			return 0, fmt.Errorf("encode reviews: %w", err)
		}
		if err := s.store.Set(ctx, store.KeyReviews, enc); err != nil {
			return 0, fmt.Errorf("save reviews: %w", err)
		}
		digest = sha256.Sum256(enc)
		s.logger.Info(ctx, "reviews migrated", "changed", res.Changed, "total", len(res.Raw))
	}
	s.migrated, s.seen = digest, true
	return res.Changed, nil
}

// All returns every readable review at the current schema version.
func (s *ReviewService) All(ctx context.Context) ([]models.Review, error) {
	arr, _, err := s.raw(ctx)
	if err != nil {
		return nil, err
	}
	res, err := models.MigrateReviews(arr, s.lookup(ctx))
	if err != nil {
		return nil, err
	}
	return res.Reviews, nil
}

// GetReviews migrates the collection, then returns the reviews matching
// filter. The result is never nil.
func (s *ReviewService) GetReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	if _, err := s.Migrate(ctx); err != nil {
		s.logger.Warn(ctx, "review migration failed, serving upgraded view", "error", err)
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterReviews(all, filter), nil
}

// AddReview records a review by the signed-in user, or an anonymous one.
func (s *ReviewService) AddReview(ctx context.Context, in models.NewReview) (*models.Review, error) {
	var author *models.PublicUser
	if s.current != nil {
		u, err := s.current(ctx)
		if err != nil {
			s.logger.Warn(ctx, "current user lookup failed, adding anonymously", "error", err)
		}
		author = u
	}

	rec, err := BuildReview(in, author)
	if err != nil {
		return nil, err
	}

	arr, _, err := s.raw(ctx)
	if err != nil {
		return nil, err
	}
	enc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}
	if err := store.SetJSON(ctx, s.store, store.KeyReviews, append(arr, enc)); err != nil {
		return nil, fmt.Errorf("save reviews: %w", err)
	}
	return &rec, nil
}

// BuildReview validates and normalizes review input into a new record.
func BuildReview(in models.NewReview, author *models.PublicUser) (models.Review, error) {
	rec := models.Review{
		ID:            uuid.NewString(),
		UserFirstname: common.AnonymousFirstname,
		Name:          strings.TrimSpace(in.Name),
		Category:      models.CategoryRestaurant,
		Note:          in.Note,
		Address:       strings.TrimSpace(in.Address),
		Comment:       strings.TrimSpace(in.Comment),
		CreatedAt:     models.NowMillis(),
		SchemaVersion: models.CurrentReviewVersion,
	}
	if author != nil {
		rec.UserID = author.ID
		if first := strings.TrimSpace(author.Firstname); first != "" {
			rec.UserFirstname = first
		}
	}
	if c := strings.TrimSpace(in.Category); c != "" {
		rec.Category = models.NormalizeCategory(c)
	}
	if rec.Note == 0 || math.IsNaN(rec.Note) {
		rec.Note = 5
	}
	if rec.Name == "" {
		rec.Name = models.NameFromAddress(rec.Address)
	}

	lat, okLat := in.Lat.Float()
	lng, okLng := in.Lng.Float()
	if !okLat || !okLng {
		return models.Review{}, common.Validation("invalid coordinates")
	}
	rec.Lat, rec.Lng = &lat, &lng
	return rec, nil
}
