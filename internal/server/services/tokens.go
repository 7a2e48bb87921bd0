// Package services contains the server-side business logic: token issuance
// and rotation, account signup/login, credit billing and the request
// pipeline that meters transcription.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/auth"
	"github.com/dmitrijs2005/voicegate/internal/server/config"
	"github.com/dmitrijs2005/voicegate/internal/server/metrics"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/repomanager"
)

// TokenService issues, verifies, rotates and revokes tokens.
//
// A refresh token is usable at most once: rotation revokes it with a
// compare-and-set and stores its successor in the same transaction, so of
// two concurrent rotations of the same token exactly one succeeds.
type TokenService struct {
	db            dbx.DBTX
	tx            dbx.TxRunner
	repomanager   repomanager.RepositoryManager
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
	logger        logging.Logger
	metrics       *metrics.Metrics
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, mt *metrics.Metrics) *TokenService {
	return newTokenService(db, dbx.NewSQLRunner(db), m, cfg, logger, mt)
}

func newTokenService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, mt *metrics.Metrics) *TokenService {
	return &TokenService{
		db:            db,
		tx:            tx,
		repomanager:   m,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
		now:           time.Now,
		logger:        logger.With("module", "tokens"),
		metrics:       mt,
	}
}

// IssueTokenPair mints an access token and persists a fresh refresh token.
func (s *TokenService) IssueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	return s.issue(ctx, s.db, user)
}

func (s *TokenService) issue(ctx context.Context, db dbx.DBTX, user *models.User) (*models.TokenPair, error) {
	now := s.now()

	access, _, err := auth.GenerateAccessToken(user.ID, user.Email, s.accessSecret, s.accessTTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, expiresAt, err := auth.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshTTL, now)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refresh, expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// VerifyAccessToken checks signature and expiry and returns the claims.
// Failures are *common.AuthError.
func (s *TokenService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	return auth.ParseAccessToken(token, s.accessSecret, s.now())
}

// RotateRefreshToken exchanges a usable refresh token for a new pair.
//
// Failure kinds: InvalidSignature, Malformed or Expired from the JWT itself,
// Unknown when no row matches, Revoked when it was already used (also when
// a concurrent rotation won the race), Expired when the stored expiry has
// passed.
func (s *TokenService) RotateRefreshToken(ctx context.Context, token string) (*models.TokenPair, error) {
	pair, err := s.rotate(ctx, token)
	s.countRotation(err)
	return pair, err
}

func (s *TokenService) rotate(ctx context.Context, token string) (*models.TokenPair, error) {
	if _, err := auth.ParseRefreshToken(token, s.refreshSecret, s.now()); err != nil {
		return nil, err
	}

	stored, err := s.repomanager.RefreshTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAuthError(common.AuthUnknown, nil)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if stored.Revoked {
		s.logger.Warn(ctx, "revoked refresh token presented", "user_id", stored.UserID)
		return nil, common.NewAuthError(common.AuthRevoked, nil)
	}
	if !stored.Usable(s.now()) {
		return nil, common.NewAuthError(common.AuthExpired, nil)
	}

	var pair *models.TokenPair
	err = s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		won, err := s.repomanager.RefreshTokens(tx).Revoke(ctx, token)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if !won {
			return common.NewAuthError(common.AuthRevoked, errors.New("lost rotation race"))
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthError(common.AuthUnknown, errors.New("owner no longer exists"))
			}
			return fmt.Errorf("load token owner: %w", err)
		}

		pair, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeRefreshToken revokes token (logout). Revoking an already revoked
// token succeeds; an unknown token is AuthUnknown.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return common.NewAuthError(common.AuthMissing, nil)
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if _, err := repo.Find(ctx, token); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewAuthError(common.AuthUnknown, nil)
		}
		return fmt.Errorf("find refresh token: %w", err)
	}

	if _, err := repo.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *TokenService) countRotation(err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		var ae *common.AuthError
		if errors.As(err, &ae) {
			result = ae.Kind.String()
		} else {
			result = "error"
		}
	}
	s.metrics.TokenRotations.WithLabelValues(result).Inc()
}
