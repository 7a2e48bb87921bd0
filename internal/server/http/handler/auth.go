package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Accounts creates and authenticates users.
type Accounts interface {
	Signup(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error)
}

// Sessions rotates and revokes refresh tokens.
type Sessions interface {
	RotateRefreshToken(ctx context.Context, token string) (*models.TokenPair, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

type AuthHandler struct {
	accounts Accounts
	sessions Sessions
	logger   logging.Logger
}

func NewAuthHandler(accounts Accounts, sessions Sessions, logger logging.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, logger: logger.With("module", "auth_handler")}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPayload struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Message string       `json:"message"`
	Auth    tokenPayload `json:"auth"`
	User    userPayload  `json:"user"`
}

type refreshResponse struct {
	Message string `json:"message"`
	tokenPayload
}

func newTokenPayload(p *models.TokenPair) tokenPayload {
	return tokenPayload{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, ExpiresAt: p.ExpiresAt}
}

func newAuthResponse(msg string, u *models.User, p *models.TokenPair) authResponse {
	return authResponse{
		Message: msg,
		Auth:    newTokenPayload(p),
		User:    userPayload{ID: u.ID, Email: u.Email},
	}
}

func bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing data"})
		return req, false
	}
	return req, true
}

func bindRefreshToken(c *gin.Context) (string, bool) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Refresh Token required"})
		return "", false
	}
	return req.RefreshToken, true
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, pair, err := h.accounts.Signup(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, newAuthResponse("User created", user, pair))
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "User exists"})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email"})
	default:
		internalError(c, err)
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newAuthResponse("Login successful", user, pair))
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing data"})
	default:
		internalError(c, err)
	}
}

// Refresh handles POST /auth/refresh. The presented token is dead after a
// successful call.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := bindRefreshToken(c)
	if !ok {
		return
	}

	pair, err := h.sessions.RotateRefreshToken(c.Request.Context(), token)
	if err != nil {
		h.refreshError(c, err)
		return
	}
	c.JSON(http.StatusOK, refreshResponse{Message: "Token refreshed", tokenPayload: newTokenPayload(pair)})
}

// Logout handles POST /auth/logout. Logging out twice is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := bindRefreshToken(c)
	if !ok {
		return
	}

	if err := h.sessions.RevokeRefreshToken(c.Request.Context(), token); err != nil {
		h.refreshError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) refreshError(c *gin.Context, err error) {
	var ae *common.AuthError
	if !errors.As(err, &ae) {
		internalError(c, err)
		return
	}

	_ = c.Error(err)
	switch ae.Kind {
	case common.AuthInvalidSignature, common.AuthMalformed:
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Refresh Token signature"})
	case common.AuthRevoked:
		h.logger.Warn(c.Request.Context(), "revoked refresh token presented", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or Expired Refresh Token"})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or Expired Refresh Token"})
	}
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Error"})
}
