package facade

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/allergozyme/internal/client/adapter"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/events"
)

// publishingReviews announces added reviews.
type publishingReviews struct {
	Reviews
	facade *Facade
}

func (p *publishingReviews) AddReview(ctx context.Context, in models.NewReview) (*models.Review, error) {
	r, err := p.Reviews.AddReview(ctx, in)
	if err != nil {
		return nil, err
	}
	p.facade.publish(ctx, events.ReviewAdded, r)
	return r, nil
}

type deletedPayload struct {
	ID string `json:"id"`
}

type updatedPayload struct {
	ID    string             `json:"id"`
	Patch models.ReviewPatch `json:"patch"`
}

// EditReviews is how pages rewrite the review collection: fn receives the
// full current list and returns the new one, which is written back under
// az_reviews through Store. In remote mode the write is reconciled against
// the hosted service in the background. Every removed or changed review is
// announced.
func (f *Facade) EditReviews(ctx context.Context, fn func([]models.Review) ([]models.Review, error)) error {
	prev, err := f.reviews.GetReviews(ctx, models.ReviewFilter{})
	if err != nil {
		return err
	}
	next, err := fn(append([]models.Review(nil), prev...))
	if err != nil {
		return err
	}
	if next == nil {
		next = []models.Review{}
	}
	if err := store.SetJSON(ctx, f.store, store.KeyReviews, next); err != nil {
		return fmt.Errorf("save reviews: %w", err)
	}

	for _, op := range adapter.Diff(prev, next) {
		switch op.Kind {
		case models.OpDelete:
			f.publish(ctx, events.ReviewDeleted, deletedPayload{ID: op.ReviewID})
		case models.OpUpdate:
			patch, err := op.Patch()
			if err != nil {
				continue
			}
			f.publish(ctx, events.ReviewUpdated, updatedPayload{ID: op.ReviewID, Patch: patch})
		}
	}
	return nil
}

// owned returns the index of review id when it belongs to the signed-in
// user.
func (f *Facade) owned(ctx context.Context, rs []models.Review, id string) (int, error) {
	u, err := f.auth.CurrentUser(ctx)
	if err != nil {
		return -1, err
	}
	if u == nil {
		return -1, common.Auth("not signed in")
	}
	for i, r := range rs {
		if r.ID == id && r.UserID == u.ID {
			return i, nil
		}
	}
	return -1, common.NotFound("review not found")
}

// UpdateReview changes one of the signed-in user's reviews.
func (f *Facade) UpdateReview(ctx context.Context, id string, patch models.ReviewPatch) (*models.Review, error) {
	var updated models.Review
	err := f.EditReviews(ctx, func(rs []models.Review) ([]models.Review, error) {
		i, err := f.owned(ctx, rs, id)
		if err != nil {
			return nil, err
		}
		rs[i] = patch.Apply(rs[i])
		updated = rs[i]
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteReview removes one of the signed-in user's reviews.
func (f *Facade) DeleteReview(ctx context.Context, id string) error {
	return f.EditReviews(ctx, func(rs []models.Review) ([]models.Review, error) {
		i, err := f.owned(ctx, rs, id)
		if err != nil {
			return nil, err
		}
		return append(rs[:i], rs[i+1:]...), nil
	})
}
