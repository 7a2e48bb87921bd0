// Package http assembles the public gin API of the gateway.
package http

import (
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/http/handler"
	"github.com/dmitrijs2005/voicegate/internal/server/http/middleware"
	"github.com/dmitrijs2005/voicegate/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	Auth        *handler.AuthHandler
	Voice       *handler.VoiceHandler
	Billing     *handler.BillingHandler
	Verifier    middleware.AccessVerifier
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	Logger      logging.Logger
}

// NewRouter wires gin routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/", handler.Health)

	authGroup := r.Group("/auth", d.RateLimiter.Handler())
	{
		authGroup.POST("/signup", d.Auth.Signup)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.POST("/refresh", d.Auth.Refresh)
		authGroup.POST("/logout", d.Auth.Logout)
	}

	// The token is verified before the multipart body is read, so nothing is
	// staged for an unauthenticated caller.
	r.POST("/process-voice", middleware.Authenticate(d.Verifier), d.Voice.ProcessVoice)

	billing := r.Group("/billing", middleware.Authenticate(d.Verifier))
	{
		billing.GET("/balance", d.Billing.Balance)
		billing.GET("/transactions", d.Billing.Transactions)
	}

	return r
}
