package models

import (
	"strings"

	"github.com/dmitrijs2005/allergozyme/internal/common"
)

// Profile is the user-editable part of an account.
type Profile struct {
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	DOB       string   `json:"dob"`
	Gender    string   `json:"gender"`
	Address   string   `json:"address"`
	Zip       string   `json:"zip"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Phone     string   `json:"phone"`
	Allergies []string `json:"allergies"`

	// Finer address fields kept by the hosted profiles table.
	Building     string `json:"building,omitempty"`
	StreetNumber string `json:"street_number,omitempty"`
	Street       string `json:"street,omitempty"`
	AddressExtra string `json:"address_extra,omitempty"`
}

// Sanitize trims every field, defaults the country and keeps at most
// common.MaxAllergies non-empty allergy tags.
func (p Profile) Sanitize() Profile {
	out := Profile{
		Firstname:    strings.TrimSpace(p.Firstname),
		Lastname:     strings.TrimSpace(p.Lastname),
		DOB:          strings.TrimSpace(p.DOB),
		Gender:       strings.TrimSpace(p.Gender),
		Address:      strings.TrimSpace(p.Address),
		Zip:          strings.TrimSpace(p.Zip),
		City:         strings.TrimSpace(p.City),
		Country:      strings.TrimSpace(p.Country),
		Phone:        strings.TrimSpace(p.Phone),
		Building:     strings.TrimSpace(p.Building),
		StreetNumber: strings.TrimSpace(p.StreetNumber),
		Street:       strings.TrimSpace(p.Street),
		AddressExtra: strings.TrimSpace(p.AddressExtra),
		Allergies:    SanitizeAllergies(p.Allergies),
	}
	if out.Country == "" {
		out.Country = common.DefaultCountry
	}
	return out
}

// SanitizeAllergies trims tags, drops empty ones and keeps the first
// common.MaxAllergies. The result is never nil.
func SanitizeAllergies(tags []string) []string {
	out := make([]string, 0, common.MaxAllergies)
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == common.MaxAllergies {
			break
		}
	}
	return out
}

// PublicUser is a user record without its credential. It is what every
// auth operation returns.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Profile
	CreatedAt Millis `json:"created_at"`
	UpdatedAt Millis `json:"updated_at"`
}

// User is the stored account, credential included. It never leaves the
// identity manager; use Public.
type User struct {
	PublicUser
	PasswordHash string `json:"password_hash"`
}

// Public strips the credential.
func (u User) Public() PublicUser { return u.PublicUser }

// NewUser is the sign-up input.
type NewUser struct {
	Email    string
	Password string
	Profile
}

// UserPatch lists the profile fields to change. Nil fields are left as is.
// Email is accepted so callers can pass a whole form back, but it is never
// applied.
type UserPatch struct {
	Email        *string
	Firstname    *string
	Lastname     *string
	DOB          *string
	Gender       *string
	Address      *string
	Zip          *string
	City         *string
	Country      *string
	Phone        *string
	Allergies    *[]string
	Building     *string
	StreetNumber *string
	Street       *string
	AddressExtra *string
}

// Apply merges the non-nil fields of p into profile and re-sanitizes it.
func (p UserPatch) Apply(profile Profile) Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&profile.Firstname, p.Firstname)
	set(&profile.Lastname, p.Lastname)
	set(&profile.DOB, p.DOB)
	set(&profile.Gender, p.Gender)
	set(&profile.Address, p.Address)
	set(&profile.Zip, p.Zip)
	set(&profile.City, p.City)
	set(&profile.Country, p.Country)
	set(&profile.Phone, p.Phone)
	set(&profile.Building, p.Building)
	set(&profile.StreetNumber, p.StreetNumber)
	set(&profile.Street, p.Street)
	set(&profile.AddressExtra, p.AddressExtra)
	if p.Allergies != nil {
		profile.Allergies = *p.Allergies
	}
	return profile.Sanitize()
}

// Session marks the signed-in user of the local store.
type Session struct {
	UserID string `json:"user_id"`
	TS     Millis `json:"ts"`
}
