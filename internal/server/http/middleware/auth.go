package middleware

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const accessClaimsKey = "accessClaims"

// AccessVerifier checks an access token.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. An absent header is AuthMissing; anything without a token after
// the scheme is AuthMalformed.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", common.NewAuthError(common.AuthMissing, nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || !strings.EqualFold(scheme, common.BearerPrefix) {
		return "", common.NewAuthError(common.AuthMalformed, nil)
	}
	return token, nil
}

// AuthFailureMessage is the client-facing text for a rejected access token.
func AuthFailureMessage(err error) string {
	switch {
	case common.IsAuthKind(err, common.AuthMissing):
		return "Authentication failed: No token provided"
	case common.IsAuthKind(err, common.AuthMalformed):
		return "Authentication failed: Malformed token"
	default:
		return "Authentication failed: Invalid token"
	}
}

// Authenticate rejects requests without a valid access token and stores the
// claims for the handlers.
func Authenticate(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if err == nil {
			var claims *auth.AccessClaims
			if claims, err = v.VerifyAccessToken(token); err == nil {
				c.Set(accessClaimsKey, claims)
				c.Next()
				return
			}
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": AuthFailureMessage(err)})
	}
}

// AccessClaims returns the claims stored by Authenticate.
func AccessClaims(c *gin.Context) (*auth.AccessClaims, bool) {
	v, ok := c.Get(accessClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.AccessClaims)
	return claims, ok
}
