// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that can authenticate and spend credits.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Credits      int64
	CreatedAt    time.Time
}
