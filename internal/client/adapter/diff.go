package adapter

import (
	"encoding/json"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
)

// Diff compares the cached listing prev with a new full array next, both
// keyed by id. Reviews missing from next become delete ops; reviews present
// in both with a changed name, category, note, address, comment or
// coordinates become update ops. New ids produce nothing: creation only
// goes through AddReview.
func Diff(prev, next []models.Review) []models.PendingOp {
	nextByID := make(map[string]models.Review, len(next))
	for _, r := range next {
		nextByID[r.ID] = r
	}
	prevByID := make(map[string]models.Review, len(prev))
	for _, r := range prev {
		prevByID[r.ID] = r
	}

	var ops []models.PendingOp
	for _, p := range prev {
		if _, ok := nextByID[p.ID]; !ok {
			ops = append(ops, models.PendingOp{Kind: models.OpDelete, ReviewID: p.ID})
		}
	}
	for _, n := range next {
		p, ok := prevByID[n.ID]
		if !ok || !changed(p, n) {
			continue
		}
		payload, err := json.Marshal(patchOf(n))
		if err != nil {
			continue
		}
		ops = append(ops, models.PendingOp{Kind: models.OpUpdate, ReviewID: n.ID, Payload: payload})
	}
	return ops
}

func changed(a, b models.Review) bool {
	return a.Name != b.Name ||
		a.Category != b.Category ||
		a.Note != b.Note ||
		a.Address != b.Address ||
		a.Comment != b.Comment ||
		!sameCoord(a.Lat, b.Lat) ||
		!sameCoord(a.Lng, b.Lng)
}

func sameCoord(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// patchOf carries every editable field; coordinates only when both are
// finite.
func patchOf(r models.Review) models.ReviewPatch {
	name, category, note, address, comment := r.Name, r.Category, r.Note, r.Address, r.Comment
	p := models.ReviewPatch{
		Name:     &name,
		Category: &category,
		Note:     &note,
		Address:  &address,
		Comment:  &comment,
	}
	if r.Lat != nil && r.Lng != nil && finite(*r.Lat) && finite(*r.Lng) {
		lat, lng := *r.Lat, *r.Lng
		p.Lat, p.Lng = &lat, &lng
	}
	return p
}
