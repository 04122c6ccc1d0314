// Package middleware provides Gin HTTP middleware for authentication,
// rate limiting, security headers, request IDs, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RequestID → Metrics → RateLimit → Auth → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the request with the authenticated user; the service layer's
// policy checks read that identity. Audit logging runs last so only requests
// that made it through auth are attributed to a user.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/auth"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/db/repositories"
)

// Context keys populated by AuthMiddleware.
const (
	// UserKey holds the authenticated *models.User.
	UserKey = "user"
	// UserIDKey holds the authenticated user's ID string.
	UserIDKey = "user_id"
)

// AuthMiddleware validates the Bearer access token and loads the authenticated user.
//
// Only typed access tokens are accepted; refresh tokens presented on the
// Authorization header are rejected so a long-lived refresh token can never be
// used to call the API directly.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		claims, err := auth.ValidateJWT(token, auth.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			// Token subject no longer exists, e.g. account deleted after issuance.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set("auth_method", "jwt")

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthMiddleware,
// or nil when the request was not authenticated.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
