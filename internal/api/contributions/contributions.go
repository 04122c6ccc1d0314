// Package contributions implements the contribution ledger endpoints, nested
// under memberships plus the flat verify and own-history routes.
package contributions

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/api/httputil"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/middleware"
	"github.com/committee-registry/committee-registry/internal/services"
)

// ContributionService is the contribution ledger surface these handlers call
type ContributionService interface {
	Record(ctx context.Context, actor *models.User, input services.RecordContributionInput) (*models.ContributionWithContext, error)
	Get(ctx context.Context, actor *models.User, contributionID string) (*models.ContributionWithContext, error)
	ListByMembership(ctx context.Context, actor *models.User, membershipID string) ([]*models.ContributionWithContext, error)
	ListOwn(ctx context.Context, actor *models.User) ([]*models.ContributionWithContext, error)
	Update(ctx context.Context, actor *models.User, contributionID string, input services.UpdateContributionInput) (*models.ContributionWithContext, error)
	Verify(ctx context.Context, actor *models.User, contributionID string) (*models.ContributionWithContext, error)
	Delete(ctx context.Context, actor *models.User, contributionID string) error
}

// ContributionHandlers handles contribution ledger endpoints
type ContributionHandlers struct {
	contributions ContributionService
}

// NewContributionHandlers creates a new ContributionHandlers instance
func NewContributionHandlers(contributions ContributionService) *ContributionHandlers {
	return &ContributionHandlers{contributions: contributions}
}

// contributionResponse is the contribution wire shape. required_amount echoes
// the committee's monthly amount so clients can show shortfalls.
type contributionResponse struct {
	ID                  string          `json:"id"`
	Membership          string          `json:"membership"`
	AmountPaid          decimal.Decimal `json:"amount_paid"`
	ForMonth            string          `json:"for_month"`
	DueDate             string          `json:"due_date"`
	PaymentDate         *string         `json:"payment_date"`
	PaymentStatus       string          `json:"payment_status"`
	VerifiedByOrganizer bool            `json:"verified_by_organizer"`
	MemberName          string          `json:"member_name"`
	CommitteeName       string          `json:"committee_name"`
	RequiredAmount      decimal.Decimal `json:"required_amount"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func newContributionResponse(c *models.ContributionWithContext) contributionResponse {
	return contributionResponse{
		ID:                  c.ID,
		Membership:          c.MembershipID,
		AmountPaid:          c.AmountPaid,
		ForMonth:            httputil.Date(c.ForMonth),
		DueDate:             httputil.Date(c.DueDate),
		PaymentDate:         httputil.DatePtr(c.PaymentDate),
		PaymentStatus:       c.PaymentStatus,
		VerifiedByOrganizer: c.VerifiedByOrganizer,
		MemberName:          c.MemberName(),
		CommitteeName:       c.CommitteeName,
		RequiredAmount:      c.MonthlyAmount,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func newContributionList(contributions []*models.ContributionWithContext) []contributionResponse {
	out := make([]contributionResponse, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, newContributionResponse(c))
	}
	return out
}

func requireUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return user, true
}

// @Summary      List contributions
// @Description  List a membership's contribution history, newest month first. Organizer and the membership's own member only.
// @Tags         Contributions
// @Security     Bearer
// @Produce      json
// @Param        mid  path  string  true  "Membership ID"
// @Success      200  {object}  map[string]interface{}  "contributions: []contribution"
// @Failure      403  {object}  map[string]interface{}  "Contributions belong to another member"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Router       /api/v1/memberships/{mid}/contributions [get]
// ListHandler lists a membership's contributions
// GET /api/v1/memberships/:mid/contributions
func (h *ContributionHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		contributions, err := h.contributions.ListByMembership(c.Request.Context(), actor, c.Param("mid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contributions": newContributionList(contributions)})
	}
}

// @Summary      List own contributions
// @Description  List the caller's contributions across all their memberships.
// @Tags         Contributions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "contributions: []contribution"
// @Router       /api/v1/contributions [get]
// ListOwnHandler lists the caller's contributions across committees
// GET /api/v1/contributions
func (h *ContributionHandlers) ListOwnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		contributions, err := h.contributions.ListOwn(c.Request.Context(), actor)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contributions": newContributionList(contributions)})
	}
}

// RecordContributionRequest represents the request to record a payment
type RecordContributionRequest struct {
	AmountPaid  decimal.Decimal `json:"amount_paid" binding:"required"`
	ForMonth    string          `json:"for_month" binding:"required"`
	DueDate     string          `json:"due_date" binding:"required"`
	PaymentDate *string         `json:"payment_date"`
}

// @Summary      Record contribution
// @Description  Record a payment for a membership month. An organizer's record is verified immediately; a member's own record awaits verification.
// @Tags         Contributions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        mid      path  string                     true  "Membership ID"
// @Param        request  body  RecordContributionRequest  true  "Payment details"
// @Success      201  {object}  map[string]interface{}  "contribution"
// @Failure      403  {object}  map[string]interface{}  "Not allowed to record for this membership"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Failure      409  {object}  map[string]interface{}  "Month already recorded"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/memberships/{mid}/contributions [post]
// RecordHandler records a payment for a membership month
// POST /api/v1/memberships/:mid/contributions
func (h *ContributionHandlers) RecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req RecordContributionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		forMonth, err := httputil.ParseDate(req.ForMonth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "for_month must be a YYYY-MM-DD date"})
			return
		}
		dueDate, err := httputil.ParseDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be a YYYY-MM-DD date"})
			return
		}
		paymentDate, err := httputil.ParseDatePtr(req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date must be a YYYY-MM-DD date"})
			return
		}

		contribution, err := h.contributions.Record(c.Request.Context(), actor, services.RecordContributionInput{
			MembershipID: c.Param("mid"),
			AmountPaid:   req.AmountPaid,
			ForMonth:     forMonth,
			DueDate:      dueDate,
			PaymentDate:  paymentDate,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"contribution": newContributionResponse(contribution)})
	}
}

// @Summary      Get contribution
// @Description  Return one contribution of a membership.
// @Tags         Contributions
// @Security     Bearer
// @Produce      json
// @Param        mid  path  string  true  "Membership ID"
// @Param        cid  path  string  true  "Contribution ID"
// @Success      200  {object}  map[string]interface{}  "contribution"
// @Failure      403  {object}  map[string]interface{}  "Contribution belongs to another member"
// @Failure      404  {object}  map[string]interface{}  "Contribution not found"
// @Router       /api/v1/memberships/{mid}/contributions/{cid} [get]
// GetHandler returns one contribution
// GET /api/v1/memberships/:mid/contributions/:cid
func (h *ContributionHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		contribution, err := h.contributions.Get(c.Request.Context(), actor, c.Param("cid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		// A contribution ID reached through the wrong membership path does not
		// exist as far as the caller is concerned.
		if contribution.MembershipID != c.Param("mid") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contribution not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"contribution": newContributionResponse(contribution)})
	}
}

// UpdateContributionRequest represents an amendment to a contribution.
// A JSON null payment_date clears the payment and resets it to PENDING.
type UpdateContributionRequest struct {
	AmountPaid  *decimal.Decimal `json:"amount_paid"`
	DueDate     *string          `json:"due_date"`
	PaymentDate *string          `json:"payment_date"`
}

// @Summary      Update contribution
// @Description  Amend a contribution's amount or dates. Organizer and the contributing member only. The payment status is re-derived from the resulting dates; sending payment_date as null resets the payment.
// @Tags         Contributions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        mid      path  string                     true  "Membership ID"
// @Param        cid      path  string                     true  "Contribution ID"
// @Param        request  body  UpdateContributionRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "contribution"
// @Failure      403  {object}  map[string]interface{}  "Contribution belongs to another member"
// @Failure      404  {object}  map[string]interface{}  "Contribution not found"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/memberships/{mid}/contributions/{cid} [put]
// UpdateHandler applies an amendment to a contribution
// PUT /api/v1/memberships/:mid/contributions/:cid
func (h *ContributionHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		// Distinguish an absent payment_date from an explicit null.
		var probe map[string]json.RawMessage
		raw, err := c.GetRawData()
		if err != nil || json.Unmarshal(raw, &probe) != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		var req UpdateContributionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		clearPayment := false
		if rawDate, present := probe["payment_date"]; present && string(rawDate) == "null" {
			clearPayment = true
		}

		dueDate, err := httputil.ParseDatePtr(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be a YYYY-MM-DD date"})
			return
		}
		paymentDate, err := httputil.ParseDatePtr(req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date must be a YYYY-MM-DD date"})
			return
		}

		existing, err := h.contributions.Get(c.Request.Context(), actor, c.Param("cid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		if existing.MembershipID != c.Param("mid") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contribution not found"})
			return
		}

		contribution, err := h.contributions.Update(c.Request.Context(), actor, c.Param("cid"), services.UpdateContributionInput{
			AmountPaid:       req.AmountPaid,
			DueDate:          dueDate,
			PaymentDate:      paymentDate,
			ClearPaymentDate: clearPayment,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contribution": newContributionResponse(contribution)})
	}
}

// @Summary      Verify contribution
// @Description  Mark a member-recorded contribution as verified. Organizer only; verifying twice is a no-op.
// @Tags         Contributions
// @Security     Bearer
// @Produce      json
// @Param        cid  path  string  true  "Contribution ID"
// @Success      200  {object}  map[string]interface{}  "contribution"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can verify contributions"
// @Failure      404  {object}  map[string]interface{}  "Contribution not found"
// @Router       /api/v1/contributions/{cid}/verify [patch]
// VerifyHandler marks a contribution as organizer-verified
// PATCH /api/v1/contributions/:cid/verify
func (h *ContributionHandlers) VerifyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		contribution, err := h.contributions.Verify(c.Request.Context(), actor, c.Param("cid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contribution": newContributionResponse(contribution)})
	}
}

// @Summary      Delete contribution
// @Description  Delete a contribution row. Organizer and the contributing member only.
// @Tags         Contributions
// @Security     Bearer
// @Param        mid  path  string  true  "Membership ID"
// @Param        cid  path  string  true  "Contribution ID"
// @Success      204  "Deleted"
// @Failure      403  {object}  map[string]interface{}  "Contribution belongs to another member"
// @Failure      404  {object}  map[string]interface{}  "Contribution not found"
// @Router       /api/v1/memberships/{mid}/contributions/{cid} [delete]
// DeleteHandler deletes a contribution
// DELETE /api/v1/memberships/:mid/contributions/:cid
func (h *ContributionHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		contribution, err := h.contributions.Get(c.Request.Context(), actor, c.Param("cid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		if contribution.MembershipID != c.Param("mid") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contribution not found"})
			return
		}
		if err := h.contributions.Delete(c.Request.Context(), actor, c.Param("cid")); err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
