// Package auth signs and verifies the two JWT kinds used by the gateway and
// hashes account passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessClaims identify the caller of a protected route.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
}

// RefreshClaims identify the owner of a refresh token. The token string
// itself is also persisted, so the claims are only a first filter.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Type   string `json:"type"`
}

// GenerateAccessToken signs an HS256 access token valid until now+validity.
// Every token carries a random ID, so two tokens minted in the same second
// still differ.
func GenerateAccessToken(userID, email string, secret []byte, validity time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: registered(userID, now, expiresAt),
		UserID:           userID,
		Email:            email,
		Type:             TokenTypeAccess,
	})

	s, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

// GenerateRefreshToken signs an HS256 refresh token valid until now+validity.
func GenerateRefreshToken(userID string, secret []byte, validity time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: registered(userID, now, expiresAt),
		UserID:           userID,
		Type:             TokenTypeRefresh,
	})

	s, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

func registered(subject string, now, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

// ParseAccessToken verifies signature and expiry as of now. Failures are
// *common.AuthError values.
func ParseAccessToken(tokenString string, secret []byte, now time.Time) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, claims, secret, now); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess || claims.UserID == "" {
		return nil, common.NewAuthError(common.AuthMalformed, errors.New("not an access token"))
	}
	return claims, nil
}

// ParseRefreshToken is the refresh-token counterpart of ParseAccessToken.
func ParseRefreshToken(tokenString string, secret []byte, now time.Time) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, claims, secret, now); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh || claims.UserID == "" {
		return nil, common.NewAuthError(common.AuthMalformed, errors.New("not a refresh token"))
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte, now time.Time) error {
	if tokenString == "" {
		return common.NewAuthError(common.AuthMissing, nil)
	}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.NewAuthError(common.AuthExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.NewAuthError(common.AuthInvalidSignature, err)
	default:
		return common.NewAuthError(common.AuthMalformed, err)
	}
}
