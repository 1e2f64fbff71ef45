package models

import "time"

// Account is a row of auth_users.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
