// Package accounts implements the identity endpoints: signup, login, token
// refresh, profile management, and password changes. Role flags are never
// writable through this surface; is_organizer is fixed at signup.
package accounts

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/auth"
	"github.com/committee-registry/committee-registry/internal/config"
	"github.com/committee-registry/committee-registry/internal/db"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/db/repositories"
	"github.com/committee-registry/committee-registry/internal/middleware"
	"github.com/committee-registry/committee-registry/internal/telemetry"
)

// AccountHandlers handles identity endpoints
type AccountHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
}

// NewAccountHandlers creates a new AccountHandlers instance
func NewAccountHandlers(cfg *config.Config, userRepo *repositories.UserRepository) *AccountHandlers {
	return &AccountHandlers{cfg: cfg, userRepo: userRepo}
}

// userResponse is the external shape of a user account. The password hash and
// the staff/superuser flags never leave the server.
type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	IsOrganizer bool      `json:"is_organizer"`
	IsVerified  bool      `json:"is_verified"`
	IsApproved  bool      `json:"is_approved"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		IsOrganizer: u.IsOrganizer,
		IsVerified:  u.IsVerified,
		IsApproved:  u.IsApproved,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// SignupRequest represents the request to create an account
type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	IsOrganizer bool   `json:"is_organizer"`
}

// @Summary      Sign up
// @Description  Create a new account. Accounts are active immediately; organizer accounts additionally start approved.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  SignupRequest  true  "Account details"
// @Success      201  {object}  map[string]interface{}  "user: created account"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body or weak password"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/auth/signup [post]
// SignupHandler creates an account
// POST /api/v1/auth/signup
func (h *AccountHandlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		if err := auth.ValidatePasswordStrength(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		user := &models.User{
			Email:        strings.ToLower(req.Email),
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			IsOrganizer:  req.IsOrganizer,
			IsVerified:   true,
			IsApproved:   true,
			IsActive:     true,
		}

		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
	}
}

// LoginRequest represents the credentials supplied at login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Log in
// @Description  Authenticate with email and password. Returns an access/refresh token pair and the account record.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "access, refresh, user"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials or deactivated account"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates credentials and issues a token pair
// POST /api/v1/auth/login
func (h *AccountHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
			return
		}

		// Identical response for unknown email and wrong password; the
		// distinction would confirm which addresses hold accounts.
		if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
			telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		if !user.IsActive {
			telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
			return
		}

		access, refresh, err := auth.GenerateTokenPair(user.ID, user.Email,
			h.cfg.Auth.AccessTokenTTL, h.cfg.Auth.RefreshTokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue tokens"})
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"access":  access,
			"refresh": refresh,
			"user":    newUserResponse(user),
		})
	}
}

// RefreshRequest carries the refresh token being exchanged
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// @Summary      Refresh access token
// @Description  Exchange a valid refresh token for a new access token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  RefreshRequest  true  "Refresh token"
// @Success      200  {object}  map[string]interface{}  "access: new access token"
// @Failure      401  {object}  map[string]interface{}  "Invalid or expired refresh token"
// @Router       /api/v1/auth/refresh [post]
// RefreshHandler exchanges a refresh token for a new access token
// POST /api/v1/auth/refresh
func (h *AccountHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		claims, err := auth.ValidateJWT(req.Refresh, auth.TokenTypeRefresh)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		// The account may have been deactivated since the refresh token was
		// issued; re-check before minting a new access token.
		user, err := h.userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
			return
		}
		if user == nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
			return
		}

		access, err := auth.GenerateToken(user.ID, user.Email, auth.TokenTypeAccess, h.cfg.Auth.AccessTokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"access": access})
	}
}

// @Summary      Get profile
// @Description  Return the authenticated account.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: account record"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/profile [get]
// GetProfileHandler returns the caller's account
// GET /api/v1/profile
func (h *AccountHandlers) GetProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
	}
}

// UpdateProfileRequest represents a partial profile update. Only contact
// fields are writable; role flags are not accepted here.
type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// @Summary      Update profile
// @Description  Update the authenticated account's contact fields. Role flags cannot be changed here.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  UpdateProfileRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "user: updated account"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/profile [put]
// UpdateProfileHandler updates the caller's contact fields
// PUT /api/v1/profile
func (h *AccountHandlers) UpdateProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		updated := *user
		if req.Email != nil {
			updated.Email = strings.ToLower(*req.Email)
		}
		if req.FirstName != nil {
			updated.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			updated.LastName = *req.LastName
		}
		if req.Phone != nil {
			updated.Phone = *req.Phone
		}

		if err := h.userRepo.UpdateUser(c.Request.Context(), &updated); err != nil {
			if db.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": newUserResponse(&updated)})
	}
}

// ChangePasswordRequest carries the old and new credentials
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// @Summary      Change password
// @Description  Verify the current password and replace it. Existing tokens stay valid until they expire.
// @Tags         Auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  ChangePasswordRequest  true  "Old and new password"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Wrong current password or weak new password"
// @Router       /api/v1/change-password [put]
// ChangePasswordHandler replaces the caller's password
// PUT /api/v1/change-password
func (h *AccountHandlers) ChangePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		if !auth.CheckPassword(req.OldPassword, user.PasswordHash) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}
		if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		hash, err := auth.HashPassword(req.NewPassword, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
			return
		}
		if err := h.userRepo.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}
