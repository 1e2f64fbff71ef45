package models

import (
	"strings"

	"github.com/dmitrijs2005/allergozyme/internal/common"
)

// Category is the kind of establishment a review is about.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategorySnack      Category = "snack"
	CategoryBakery     Category = "bakery"
	CategoryOther      Category = "other"
)

// NormalizeCategory lowercases and trims v. Anything outside the fixed set
// becomes CategoryOther.
func NormalizeCategory(v string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(v))); c {
	case CategoryRestaurant, CategorySnack, CategoryBakery, CategoryOther:
		return c
	default:
		return CategoryOther
	}
}

// CurrentReviewVersion is the schema version new reviews are written with.
const CurrentReviewVersion = 2

// Review is one rating of an establishment.
type Review struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	UserFirstname string   `json:"user_firstname"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Note          float64  `json:"note"`
	Address       string   `json:"address"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Comment       string   `json:"comment"`
	CreatedAt     Millis   `json:"created_at"`
	SchemaVersion int      `json:"schema_version"`
}

// NewReview is the input of AddReview. Lat and Lng accept numbers or
// numeric strings.
type NewReview struct {
	Name     string
	Category string
	Note     float64
	Address  string
	Lat      Coordinate
	Lng      Coordinate
	Comment  string
}

// ReviewFilter narrows GetReviews. Empty fields match everything.
type ReviewFilter struct {
	UserID   string
	Category Category
}

// Match reports whether r passes every set field of f.
func (f ReviewFilter) Match(r Review) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	return true
}

// FilterReviews returns the reviews matching f, never nil.
func FilterReviews(rs []Review, f ReviewFilter) []Review {
	out := make([]Review, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ReviewPatch is a partial review update sent to the hosted service. Lat and
// Lng travel together or not at all.
type ReviewPatch struct {
	Name     *string   `json:"name,omitempty"`
	Category *Category `json:"category,omitempty"`
	Note     *float64  `json:"note,omitempty"`
	Address  *string   `json:"address,omitempty"`
	Comment  *string   `json:"comment,omitempty"`
	Lat      *float64  `json:"lat,omitempty"`
	Lng      *float64  `json:"lng,omitempty"`
}

// Apply returns r with the set fields of p. Coordinates are only replaced
// when both are present.
func (p ReviewPatch) Apply(r Review) Review {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Category != nil {
		r.Category = NormalizeCategory(string(*p.Category))
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	if p.Lat != nil && p.Lng != nil {
		r.Lat, r.Lng = floatPtr(*p.Lat), floatPtr(*p.Lng)
	}
	return r
}

// Coordinates is a resolved position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NameFromAddress returns the first comma-separated segment of address, or
// the establishment placeholder when there is none.
func NameFromAddress(address string) string {
	first, _, _ := strings.Cut(address, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return common.DefaultEstablishmentName
}

// ColorByNote maps a rating to its map marker color.
func ColorByNote(note float64) string {
	switch {
	case note >= 4:
		return "green"
	case note == 3:
		return "orange"
	default:
		return "red"
	}
}

// ExportDocument is the whole local state as exchanged by export/import.
type ExportDocument struct {
	Version string   `json:"version"`
	Users   []User   `json:"users"`
	Reviews []Review `json:"reviews"`
}
