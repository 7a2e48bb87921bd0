package models

import "time"

// RefreshToken is a persisted refresh credential. A token is usable while it
// is not revoked and ExpiresAt lies in the future.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the token may still be exchanged at time now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// TokenPair is returned by signup, login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the refresh token expiry, as persisted.
	ExpiresAt time.Time
}
