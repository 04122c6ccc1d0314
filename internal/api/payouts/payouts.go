// Package payouts implements the payout endpoints: disbursement under a
// committee, the flat payout routes, and the receipt confirmation handshake.
package payouts

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/api/httputil"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/middleware"
	"github.com/committee-registry/committee-registry/internal/services"
)

// PayoutService is the payout engine surface these handlers call
type PayoutService interface {
	Create(ctx context.Context, actor *models.User, input services.CreatePayoutInput) (*models.PayoutWithContext, error)
	Get(ctx context.Context, actor *models.User, payoutID string) (*models.PayoutWithContext, error)
	ListByCommittee(ctx context.Context, actor *models.User, committeeID string) ([]*models.PayoutWithContext, error)
	ListOwn(ctx context.Context, actor *models.User) ([]*models.PayoutWithContext, error)
	EligibleTotal(ctx context.Context, membershipID string) (decimal.Decimal, error)
	Update(ctx context.Context, actor *models.User, payoutID string, input services.UpdatePayoutInput) (*models.PayoutWithContext, error)
	Confirm(ctx context.Context, actor *models.User, payoutID string) (*models.PayoutWithContext, error)
	Delete(ctx context.Context, actor *models.User, payoutID string) error
}

// PayoutHandlers handles payout endpoints
type PayoutHandlers struct {
	payouts PayoutService
}

// NewPayoutHandlers creates a new PayoutHandlers instance
func NewPayoutHandlers(payouts PayoutService) *PayoutHandlers {
	return &PayoutHandlers{payouts: payouts}
}

// payoutResponse is the payout wire shape. total_eligible is the verified
// paid sum backing the disbursement, recomputed per request.
type payoutResponse struct {
	ID             string          `json:"id"`
	Membership     string          `json:"membership"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAt         string          `json:"paid_at"`
	ReceivedBy     *string         `json:"received_by"`
	IsConfirmed    bool            `json:"is_confirmed"`
	ReceivedInCash bool            `json:"received_in_cash"`
	ConfirmedAt    *time.Time      `json:"confirmed_at"`
	MemberName     string          `json:"member_name"`
	MemberID       string          `json:"member_id"`
	CommitteeName  string          `json:"committee_name"`
	CommitteeID    string          `json:"committee_id"`
	OrganizerName  string          `json:"organizer_name"`
	TotalEligible  decimal.Decimal `json:"total_eligible"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (h *PayoutHandlers) buildPayoutResponse(ctx context.Context, p *models.PayoutWithContext) (payoutResponse, error) {
	eligible, err := h.payouts.EligibleTotal(ctx, p.MembershipID)
	if err != nil {
		return payoutResponse{}, err
	}
	return payoutResponse{
		ID:             p.ID,
		Membership:     p.MembershipID,
		TotalAmount:    p.TotalAmount,
		PaidAt:         httputil.Date(p.PaidAt),
		ReceivedBy:     p.ReceivedBy,
		IsConfirmed:    p.IsConfirmed,
		ReceivedInCash: p.ReceivedInCash,
		ConfirmedAt:    p.ConfirmedAt,
		MemberName:     p.MemberName(),
		MemberID:       p.MemberID,
		CommitteeName:  p.CommitteeName,
		CommitteeID:    p.CommitteeID,
		OrganizerName:  p.OrganizerName(),
		TotalEligible:  eligible,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

func (h *PayoutHandlers) buildPayoutList(ctx context.Context, payouts []*models.PayoutWithContext) ([]payoutResponse, error) {
	out := make([]payoutResponse, 0, len(payouts))
	for _, p := range payouts {
		resp, err := h.buildPayoutResponse(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func requireUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return user, true
}

// @Summary      List payouts
// @Description  List a committee's payouts, newest first. The organizer sees all of them; a member sees only their own.
// @Tags         Payouts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Committee ID"
// @Success      200  {object}  map[string]interface{}  "payouts: []payout"
// @Failure      403  {object}  map[string]interface{}  "Not a member of this committee"
// @Failure      404  {object}  map[string]interface{}  "Committee not found"
// @Router       /api/v1/committees/{id}/payouts [get]
// ListByCommitteeHandler lists a committee's payouts
// GET /api/v1/committees/:id/payouts
func (h *PayoutHandlers) ListByCommitteeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		payouts, err := h.payouts.ListByCommittee(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		out, err := h.buildPayoutList(c.Request.Context(), payouts)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": out})
	}
}

// @Summary      List own payouts
// @Description  List the payouts the caller has received across all their memberships.
// @Tags         Payouts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "payouts: []payout"
// @Router       /api/v1/payouts [get]
// ListOwnHandler lists the caller's received payouts
// GET /api/v1/payouts
func (h *PayoutHandlers) ListOwnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		payouts, err := h.payouts.ListOwn(c.Request.Context(), actor)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		out, err := h.buildPayoutList(c.Request.Context(), payouts)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": out})
	}
}

// CreatePayoutRequest represents the request to disburse a payout. A missing
// total_amount defaults to the membership's eligible total; paid_at is always
// stamped server-side at the moment of disbursement.
type CreatePayoutRequest struct {
	Membership     string           `json:"membership" binding:"required"`
	TotalAmount    *decimal.Decimal `json:"total_amount"`
	ReceivedBy     *string          `json:"received_by"`
	ReceivedInCash bool             `json:"received_in_cash"`
}

// @Summary      Create payout
// @Description  Disburse the payout for a membership of this committee. Organizer only; one payout per membership.
// @Tags         Payouts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Committee ID"
// @Param        request  body  CreatePayoutRequest  true  "Disbursement details"
// @Success      201  {object}  map[string]interface{}  "payout"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can disburse payouts"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Failure      409  {object}  map[string]interface{}  "Membership already paid out"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/committees/{id}/payouts [post]
// CreateHandler disburses a payout
// POST /api/v1/committees/:id/payouts
func (h *PayoutHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req CreatePayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		payout, err := h.payouts.Create(c.Request.Context(), actor, services.CreatePayoutInput{
			MembershipID:   req.Membership,
			TotalAmount:    req.TotalAmount,
			ReceivedBy:     req.ReceivedBy,
			ReceivedInCash: req.ReceivedInCash,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		resp, err := h.buildPayoutResponse(c.Request.Context(), payout)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"payout": resp})
	}
}

// @Summary      Get payout
// @Description  Return one payout. Organizer and committee members only.
// @Tags         Payouts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Payout ID"
// @Success      200  {object}  map[string]interface{}  "payout"
// @Failure      403  {object}  map[string]interface{}  "Not a member of this committee"
// @Failure      404  {object}  map[string]interface{}  "Payout not found"
// @Router       /api/v1/payouts/{id} [get]
// GetHandler returns one payout
// GET /api/v1/payouts/:id
func (h *PayoutHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		payout, err := h.payouts.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		resp, err := h.buildPayoutResponse(c.Request.Context(), payout)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payout": resp})
	}
}

// UpdatePayoutRequest represents a payout update. The organizer may set any
// field; the receiving member may only flip is_confirmed on.
type UpdatePayoutRequest struct {
	TotalAmount    *decimal.Decimal `json:"total_amount"`
	ReceivedBy     *string          `json:"received_by"`
	ReceivedInCash *bool            `json:"received_in_cash"`
	IsConfirmed    *bool            `json:"is_confirmed"`
}

// @Summary      Update payout
// @Description  Apply a payout update. Confirmation is monotonic; the receiving member may only set is_confirmed, the organizer may set any field.
// @Tags         Payouts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Payout ID"
// @Param        request  body  UpdatePayoutRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "payout"
// @Failure      403  {object}  map[string]interface{}  "Not allowed to change these fields"
// @Failure      404  {object}  map[string]interface{}  "Payout not found"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/payouts/{id} [put]
// UpdateHandler applies a payout update
// PUT /api/v1/payouts/:id
func (h *PayoutHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req UpdatePayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		payout, err := h.payouts.Update(c.Request.Context(), actor, c.Param("id"), services.UpdatePayoutInput{
			TotalAmount:    req.TotalAmount,
			ReceivedBy:     req.ReceivedBy,
			ReceivedInCash: req.ReceivedInCash,
			IsConfirmed:    req.IsConfirmed,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		resp, err := h.buildPayoutResponse(c.Request.Context(), payout)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payout": resp})
	}
}

// @Summary      Confirm payout
// @Description  Organizer-triggered confirm action. Confirming twice is a no-op; members acknowledge receipt through update instead.
// @Tags         Payouts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Payout ID"
// @Success      200  {object}  map[string]interface{}  "payout"
// @Failure      403  {object}  map[string]interface{}  "Only the committee organizer can confirm"
// @Failure      404  {object}  map[string]interface{}  "Payout not found"
// @Router       /api/v1/payouts/{id}/confirm [patch]
// ConfirmHandler confirms receipt of a payout
// PATCH /api/v1/payouts/:id/confirm
func (h *PayoutHandlers) ConfirmHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		payout, err := h.payouts.Confirm(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		resp, err := h.buildPayoutResponse(c.Request.Context(), payout)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payout": resp})
	}
}

// @Summary      Delete payout
// @Description  Delete a payout, reopening the membership for disbursement. Organizer only.
// @Tags         Payouts
// @Security     Bearer
// @Param        id  path  string  true  "Payout ID"
// @Success      204  "Deleted"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can delete payouts"
// @Failure      404  {object}  map[string]interface{}  "Payout not found"
// @Router       /api/v1/payouts/{id} [delete]
// DeleteHandler deletes a payout
// DELETE /api/v1/payouts/:id
func (h *PayoutHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		if err := h.payouts.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
