// Package api wires together all HTTP routes for the committee registry
// backend.
//
// Route grouping philosophy:
//   - /api/v1/auth/ routes (signup, login, token refresh) are unauthenticated
//     and carry a stricter rate limit than the rest of the surface.
//   - Everything else under /api/v1/ requires a valid access token. Who may do
//     what within a committee is decided per operation by the service layer,
//     not by route placement.
package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/committee-registry/committee-registry/internal/api/accounts"
	"github.com/committee-registry/committee-registry/internal/api/committees"
	"github.com/committee-registry/committee-registry/internal/api/contributions"
	"github.com/committee-registry/committee-registry/internal/api/payouts"
	"github.com/committee-registry/committee-registry/internal/config"
	"github.com/committee-registry/committee-registry/internal/db/repositories"
	"github.com/committee-registry/committee-registry/internal/middleware"
	"github.com/committee-registry/committee-registry/internal/services"
)

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) is responsible for calling Shutdown()
// when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []middleware.Limiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Repositories. The ledger repositories ride on sqlx; the user and audit
	// repositories predate that and still take the raw handle.
	userRepo := repositories.NewUserRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	contributionRepo := repositories.NewContributionRepository(db)

	sqlxDB := sqlx.NewDb(db, "postgres")
	committeeRepo := repositories.NewCommitteeRepository(sqlxDB)
	membershipRepo := repositories.NewMembershipRepository(sqlxDB)
	payoutRepo := repositories.NewPayoutRepository(sqlxDB)

	// Services
	committeeService := services.NewCommitteeService(committeeRepo, membershipRepo, userRepo)
	membershipService := services.NewMembershipService(committeeRepo, membershipRepo, userRepo)
	contributionService := services.NewContributionService(committeeRepo, membershipRepo, contributionRepo)
	payoutService := services.NewPayoutService(committeeRepo, membershipRepo, contributionRepo, payoutRepo)

	// Handlers
	accountHandlers := accounts.NewAccountHandlers(cfg, userRepo)
	committeeHandlers := committees.NewCommitteeHandlers(committeeService, membershipService, contributionService, userRepo)
	contributionHandlers := contributions.NewContributionHandlers(contributionService)
	payoutHandlers := payouts.NewPayoutHandlers(payoutService)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Rate limiters
	authLimiter := middleware.NewLimiter(cfg.Security.RateLimiting, middleware.AuthRateLimitConfig())
	generalLimiter := middleware.NewLimiter(cfg.Security.RateLimiting, middleware.DefaultRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authLimiter))
		{
			authGroup.POST("/signup", accountHandlers.SignupHandler())
			authGroup.POST("/login", accountHandlers.LoginHandler())
			authGroup.POST("/refresh", accountHandlers.RefreshHandler())
		}

		// Everything else requires a valid access token
		authenticated := apiV1.Group("")
		authenticated.Use(middleware.AuthMiddleware(userRepo))
		authenticated.Use(middleware.RateLimitMiddleware(generalLimiter))
		authenticated.Use(middleware.AuditMiddleware(auditRepo, &cfg.Audit))
		{
			// Account self-service
			authenticated.GET("/profile", accountHandlers.GetProfileHandler())
			authenticated.PUT("/profile", accountHandlers.UpdateProfileHandler())
			authenticated.PUT("/change-password", accountHandlers.ChangePasswordHandler())

			// Committees and their member rosters
			authenticated.GET("/committees", committeeHandlers.ListHandler())
			authenticated.POST("/committees", committeeHandlers.CreateHandler())
			authenticated.GET("/committees/:id", committeeHandlers.GetHandler())
			authenticated.PUT("/committees/:id", committeeHandlers.UpdateHandler())
			authenticated.DELETE("/committees/:id", committeeHandlers.DeleteHandler())
			authenticated.GET("/committees/:id/members", committeeHandlers.ListMembersHandler())
			authenticated.POST("/committees/:id/members", committeeHandlers.AddMemberHandler())
			authenticated.GET("/committees/:id/members/:mid", committeeHandlers.GetMemberHandler())
			authenticated.PUT("/committees/:id/members/:mid", committeeHandlers.UpdateMemberHandler())
			authenticated.DELETE("/committees/:id/members/:mid", committeeHandlers.RemoveMemberHandler())

			// Contributions, nested under the membership they belong to
			authenticated.GET("/memberships/:mid/contributions", contributionHandlers.ListHandler())
			authenticated.POST("/memberships/:mid/contributions", contributionHandlers.RecordHandler())
			authenticated.GET("/memberships/:mid/contributions/:cid", contributionHandlers.GetHandler())
			authenticated.PUT("/memberships/:mid/contributions/:cid", contributionHandlers.UpdateHandler())
			authenticated.DELETE("/memberships/:mid/contributions/:cid", contributionHandlers.DeleteHandler())
			authenticated.GET("/contributions", contributionHandlers.ListOwnHandler())
			authenticated.PATCH("/contributions/:cid/verify", contributionHandlers.VerifyHandler())

			// Payouts
			authenticated.GET("/committees/:id/payouts", payoutHandlers.ListByCommitteeHandler())
			authenticated.POST("/committees/:id/payouts", payoutHandlers.CreateHandler())
			authenticated.GET("/payouts", payoutHandlers.ListOwnHandler())
			authenticated.GET("/payouts/:id", payoutHandlers.GetHandler())
			authenticated.PUT("/payouts/:id", payoutHandlers.UpdateHandler())
			authenticated.DELETE("/payouts/:id", payoutHandlers.DeleteHandler())
			authenticated.PATCH("/payouts/:id/confirm", payoutHandlers.ConfirmHandler())
		}
	}

	bg := &BackgroundServices{
		rateLimiters: []middleware.Limiter{authLimiter, generalLimiter},
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// slog emits JSON or text depending on the handler configured in
		// telemetry.SetupLogger; the attributes are the same either way.
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
