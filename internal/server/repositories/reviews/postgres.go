package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every review, newest first, with the author's first name.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Review, error) {
	query :=
		`SELECT r.id, r.user_id, COALESCE(NULLIF(p.firstname, ''), $1), r.name, r.category, r.note,
		 r.address, r.lat, r.lng, r.comment, r.created_at
		 FROM reviews r LEFT JOIN profiles p ON p.id = r.user_id
		 ORDER BY r.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, common.AnonymousFirstname)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Insert stores rv for userID. The database assigns id and created_at.
func (r *PostgresRepository) Insert(ctx context.Context, userID string, rv models.Review) (*models.Review, error) {
	query :=
		`INSERT INTO reviews (user_id, name, category, note, address, lat, lng, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at
		 `

	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		userID, rv.Name, string(rv.Category), rv.Note, rv.Address, nullFloat(rv.Lat), nullFloat(rv.Lng), rv.Comment,
	).Scan(&rv.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	rv.UserID = userID
	rv.CreatedAt = models.MillisOf(createdAt)
	rv.SchemaVersion = models.CurrentReviewVersion
	return &rv, nil
}

// Update applies the set fields of patch to review id of userID.
// Coordinates are written only when both are present.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.ReviewPatch) (*models.Review, error) {
	args := []any{id, userID, common.AnonymousFirstname}
	var sets []string
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Category != nil {
		set("category", string(models.NormalizeCategory(string(*patch.Category))))
	}
	if patch.Note != nil {
		set("note", *patch.Note)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Comment != nil {
		set("comment", *patch.Comment)
	}
	if patch.Lat != nil && patch.Lng != nil {
		set("lat", *patch.Lat)
		set("lng", *patch.Lng)
	}
	if len(sets) == 0 {
		sets = append(sets, "id = id")
	}

	query := `WITH u AS (
		 UPDATE reviews SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $1 AND user_id = $2
		 RETURNING *
		 )
		 SELECT u.id, u.user_id, COALESCE(NULLIF(p.firstname, ''), $3), u.name, u.category, u.note,
		 u.address, u.lat, u.lng, u.comment, u.created_at
		 FROM u LEFT JOIN profiles p ON p.id = u.user_id
		 `

	rv, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("review not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query :=
		`DELETE FROM reviews
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if dbx.RowsAffected(res) == 0 {
		return common.NotFound("review not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (*models.Review, error) {
	var (
		rv        models.Review
		category  string
		lat, lng  sql.NullFloat64
		createdAt time.Time
	)
	if err := s.Scan(&rv.ID, &rv.UserID, &rv.UserFirstname, &rv.Name, &category, &rv.Note,
		&rv.Address, &lat, &lng, &rv.Comment, &createdAt); err != nil {
		return nil, err
	}
	rv.Category = models.NormalizeCategory(category)
	if lat.Valid && lng.Valid {
		rv.Lat, rv.Lng = &lat.Float64, &lng.Float64
	}
	rv.CreatedAt = models.MillisOf(createdAt)
	rv.SchemaVersion = models.CurrentReviewVersion
	return &rv, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
