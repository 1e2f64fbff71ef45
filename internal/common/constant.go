// Package common contains shared constants, sentinel errors, and small
// helpers used across AllergoZyme components.
package common

// Placeholders written into records when the user left a field empty.
const (
	DefaultEstablishmentName = "Établissement"
	AnonymousFirstname       = "Anonyme"
	DefaultCountry           = "France"
)

// MaxAllergies is the number of allergy tags kept on a profile.
const MaxAllergies = 3

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6
