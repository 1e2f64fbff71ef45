package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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

const columns = `id, email, firstname, lastname, dob, gender, address, zip, city, country, phone,
		 allergies, building, street_number, street, address_extra, created_at, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.PublicUser, error) {
	query := `SELECT ` + columns + ` FROM profiles
		 WHERE id = $1
		 `

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("profile not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Insert adds the profile row of a new account. An existing row is a
// conflict.
func (r *PostgresRepository) Insert(ctx context.Context, p models.PublicUser) error {
	query :=
		`INSERT INTO profiles (id, email, firstname, lastname, dob, gender, address, zip, city, country, phone,
		 allergies, building, street_number, street, address_extra)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 `

	allergies, err := encodeAllergies(p.Allergies)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Email, p.Firstname, p.Lastname, p.DOB, p.Gender, p.Address, p.Zip, p.City, p.Country, p.Phone,
		allergies, p.Building, p.StreetNumber, p.Street, p.AddressExtra)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.Conflict("duplicate key value")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update overwrites every profile field of row p.ID and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, p models.PublicUser) (*models.PublicUser, error) {
	query :=
		`UPDATE profiles SET firstname = $2, lastname = $3, dob = $4, gender = $5, address = $6, zip = $7,
		 city = $8, country = $9, phone = $10, allergies = $11, building = $12, street_number = $13,
		 street = $14, address_extra = $15, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	allergies, err := encodeAllergies(p.Allergies)
	if err != nil {
		return nil, err
	}
	out, err := scanProfile(r.db.QueryRowContext(ctx, query,
		p.ID, p.Firstname, p.Lastname, p.DOB, p.Gender, p.Address, p.Zip,
		p.City, p.Country, p.Phone, allergies, p.Building, p.StreetNumber,
		p.Street, p.AddressExtra))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("profile not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func encodeAllergies(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode allergies: %w", err)
	}
	return string(b), nil
}

func scanProfile(row *sql.Row) (*models.PublicUser, error) {
	var (
		p                    models.PublicUser
		allergies            []byte
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&p.ID, &p.Email, &p.Firstname, &p.Lastname, &p.DOB, &p.Gender, &p.Address, &p.Zip,
		&p.City, &p.Country, &p.Phone, &allergies, &p.Building, &p.StreetNumber, &p.Street, &p.AddressExtra,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Allergies = []string{}
	if len(allergies) > 0 {
		if err := json.Unmarshal(allergies, &p.Allergies); err != nil {
			return nil, fmt.Errorf("decode allergies: %w", err)
		}
	}
	p.CreatedAt, p.UpdatedAt = models.MillisOf(createdAt), models.MillisOf(updatedAt)
	return &p, nil
}
