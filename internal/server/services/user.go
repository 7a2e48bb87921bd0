package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/auth"
	"github.com/dmitrijs2005/voicegate/internal/server/config"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/repomanager"
)

// UserService handles signup and login.
type UserService struct {
	db             dbx.DBTX
	repomanager    repomanager.RepositoryManager
	tokens         *TokenService
	initialCredits int64
	logger         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService,
	cfg *config.Config, logger logging.Logger) *UserService {
	return newUserService(db, m, tokens, cfg, logger)
}

func newUserService(db dbx.DBTX, m repomanager.RepositoryManager, tokens *TokenService,
	cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:             db,
		repomanager:    m,
		tokens:         tokens,
		initialCredits: cfg.InitialCredits,
		logger:         logger.With("module", "users"),
	}
}

// Signup creates an account holding the initial credit grant and logs it in.
// A taken email yields common.ErrorAlreadyExists; empty or malformed input
// yields common.ErrorValidation.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Credits:      s.initialCredits,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, common.ErrorAlreadyExists
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, pair, nil
}

// Login checks credentials and returns a fresh pair. Unknown email and wrong
// password both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
