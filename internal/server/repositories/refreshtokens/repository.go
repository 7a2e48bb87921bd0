// Package refreshtokens declares the repository contract for persisted
// refresh tokens and its PostgreSQL implementation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking refresh tokens.
type Repository interface {
	// Create stores a new, non-revoked refresh token for userID.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find looks up a refresh token by its token string, revoked or not.
	// A missing token yields common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke marks the token revoked if it is not already. The returned bool
	// is true only for the caller that performed the transition, which makes
	// Revoke usable as a compare-and-set.
	Revoke(ctx context.Context, token string) (bool, error)
}
