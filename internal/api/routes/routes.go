// Package routes handles the setup and configuration of API routes
package routes

import (
	"fittrack/internal/api/handlers"
	"fittrack/internal/api/middleware"
	"fittrack/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router serves
type Handlers struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	PasswordReset *handlers.PasswordResetHandler
	// AuthMiddleware guards routes that need a signed-in user
	AuthMiddleware *middleware.AuthMiddleware
	// Throttle is the global per-IP limiter. Nil disables it.
	Throttle *middleware.RateLimiter
	// Metrics is optional; when set, latency is recorded and /metrics is served
	Metrics *metrics.Metrics
}

// SetupRoutes configures all API routes and their handlers
func SetupRoutes(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
		// Scraped by Prometheus, not subject to throttling
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	if h.Throttle != nil {
		r.Use(h.Throttle.Middleware())
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Health check (no authentication required)
		v1.GET("/health", h.Health.Health)

		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
		}

		// Password reset routes, limited per email and IP by the reset manager
		reset := v1.Group("/password-reset")
		{
			reset.POST("/request", h.PasswordReset.Request)
			reset.POST("/verify", h.PasswordReset.Verify)
			reset.POST("/complete", h.PasswordReset.Complete)
		}

		// User routes (requires authentication)
		users := v1.Group("/users")
		users.Use(h.AuthMiddleware.AuthRequired())
		{
			users.GET("/me", h.User.Me)
			users.GET("/me/security-events", h.User.SecurityEvents)
		}
	}

	return r
}
