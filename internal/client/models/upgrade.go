package models

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/google/uuid"
)

// FirstnameLookup resolves the first name of a local user id.
type FirstnameLookup func(userID string) (string, bool)

// storedReview is the loosest reading of a stored review. Older records
// carry numbers as strings, ids as numbers and may miss any field.
type storedReview struct {
	ID            any             `json:"id"`
	UserID        any             `json:"user_id"`
	UserFirstname any             `json:"user_firstname"`
	Name          any             `json:"name"`
	Category      any             `json:"category"`
	Note          any             `json:"note"`
	Address       any             `json:"address"`
	Lat           Coordinate      `json:"lat"`
	Lng           Coordinate      `json:"lng"`
	Comment       any             `json:"comment"`
	CreatedAt     json.RawMessage `json:"created_at"`
	SchemaVersion any             `json:"schema_version"`
}

func (sr storedReview) version() int {
	v, ok := ToFloat(sr.SchemaVersion)
	if !ok || v < 0 {
		return 0
	}
	return int(v)
}

// createdAt reads the timestamp; an unreadable one is zero.
func (sr storedReview) createdAt() Millis {
	var m Millis
	if len(sr.CreatedAt) == 0 || json.Unmarshal(sr.CreatedAt, &m) != nil {
		return Millis{}
	}
	return m
}

// reviewUpgrades[v] brings a record from version v to v+1.
var reviewUpgrades = map[int]func(r *storedReview, lookup FirstnameLookup){
	0: normalizeShape,
	1: backfillFirstname,
}

// normalizeShape fills the name, fixes the category and coerces the rating
// and coordinates to numbers.
func normalizeShape(r *storedReview, _ FirstnameLookup) {
	if text(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if name := strings.TrimSpace(text(r.Name)); name != "" {
		r.Name = name
	} else {
		r.Name = NameFromAddress(text(r.Address))
	}
	r.Category = string(NormalizeCategory(text(r.Category)))
	if f, ok := ToFloat(r.Note); ok {
		r.Note = f
	} else {
		r.Note = 0.0
	}
	r.Lat = finiteOrNull(r.Lat)
	r.Lng = finiteOrNull(r.Lng)
}

func backfillFirstname(r *storedReview, lookup FirstnameLookup) {
	if strings.TrimSpace(text(r.UserFirstname)) != "" {
		return
	}
	r.UserFirstname = common.AnonymousFirstname
	uid := text(r.UserID)
	if uid == "" || lookup == nil {
		return
	}
	if first, ok := lookup(uid); ok && strings.TrimSpace(first) != "" {
		r.UserFirstname = strings.TrimSpace(first)
	}
}

func finiteOrNull(c Coordinate) Coordinate {
	if f, ok := c.Float(); ok {
		return CoordinateOf(f)
	}
	return Coordinate{}
}

// UpgradeReview decodes one stored review and runs the upgrades it is
// missing. Every record, whatever version it claims, leaves with the
// current shape: the last upgrades are idempotent and always run.
// changed reports whether the stored form must be rewritten.
func UpgradeReview(raw json.RawMessage, lookup FirstnameLookup) (r Review, changed bool, err error) {
	var sr storedReview
	if err := json.Unmarshal(raw, &sr); err != nil {
		return Review{}, false, err
	}

	from := sr.version()
	for v := from; v < CurrentReviewVersion; v++ {
		reviewUpgrades[v](&sr, lookup)
	}
	normalizeShape(&sr, lookup)
	backfillFirstname(&sr, lookup)
	r = sr.review()
	r.SchemaVersion = CurrentReviewVersion

	if from != CurrentReviewVersion {
		return r, true, nil
	}
	var strict Review
	if err := json.Unmarshal(raw, &strict); err != nil {
		return r, true, nil
	}
	return r, !reflect.DeepEqual(strict, r), nil
}

func (sr storedReview) review() Review {
	r := Review{
		ID:            text(sr.ID),
		UserID:        text(sr.UserID),
		UserFirstname: text(sr.UserFirstname),
		Name:          text(sr.Name),
		Category:      NormalizeCategory(text(sr.Category)),
		Address:       text(sr.Address),
		Comment:       text(sr.Comment),
		CreatedAt:     sr.createdAt(),
		SchemaVersion: sr.version(),
	}
	if f, ok := ToFloat(sr.Note); ok {
		r.Note = f
	}
	if f, ok := sr.Lat.Float(); ok {
		r.Lat = floatPtr(f)
	}
	if f, ok := sr.Lng.Float(); ok {
		r.Lng = floatPtr(f)
	}
	return r
}

// MigrationResult is the outcome of MigrateReviews.
type MigrationResult struct {
	// Raw is the array to persist: upgraded records re-encoded, records that
	// could not be read kept byte for byte.
	Raw []json.RawMessage
	// Reviews holds every readable record at the current version.
	Reviews []Review
	// Changed counts upgraded records.
	Changed int
}

// MigrateReviews upgrades every element of a stored reviews array.
func MigrateReviews(raws []json.RawMessage, lookup FirstnameLookup) (MigrationResult, error) {
	res := MigrationResult{
		Raw:     make([]json.RawMessage, 0, len(raws)),
		Reviews: make([]Review, 0, len(raws)),
	}
	for _, raw := range raws {
		r, changed, err := UpgradeReview(raw, lookup)
		if err != nil {
			res.Raw = append(res.Raw, raw)
			continue
		}
		res.Reviews = append(res.Reviews, r)
		if !changed {
			res.Raw = append(res.Raw, raw)
			continue
		}
		enc, err := json.Marshal(r)
		if err != nil {
			return MigrationResult{}, err
		}
		res.Raw = append(res.Raw, enc)
		res.Changed++
	}
	return res, nil
}

// text renders a loosely typed JSON scalar as a string.
func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, _ := json.Marshal(s)
		return string(b)
	}
}
