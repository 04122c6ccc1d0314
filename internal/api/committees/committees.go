// Package committees implements the committee endpoints and the nested member
// roster routes. Handlers bind and validate the wire shapes, delegate every
// rule to the service layer, and decorate responses with the roster and
// collection figures the frontend renders.
package committees

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/api/httputil"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/services"
)

// CommitteeService is the committee ledger surface these handlers call
type CommitteeService interface {
	Create(ctx context.Context, actor *models.User, input services.CreateCommitteeInput) (*models.Committee, error)
	Get(ctx context.Context, actor *models.User, committeeID string) (*models.Committee, error)
	List(ctx context.Context, actor *models.User, limit, offset int) ([]*models.Committee, int, error)
	Update(ctx context.Context, actor *models.User, committeeID string, input services.UpdateCommitteeInput) (*models.Committee, error)
	Delete(ctx context.Context, actor *models.User, committeeID string) error
	ReplaceMembers(ctx context.Context, actor *models.User, committeeID string, memberIDs []string) error
}

// MembershipService is the membership ledger surface these handlers call.
// Roster is ungated and feeds the members_list embedded in committee
// responses; List is the gated members endpoint.
type MembershipService interface {
	List(ctx context.Context, actor *models.User, committeeID string) ([]*models.MembershipWithUser, error)
	Roster(ctx context.Context, committeeID string) ([]*models.MembershipWithUser, error)
	Add(ctx context.Context, actor *models.User, committeeID, memberID string) (*models.Membership, error)
	UpdateStatus(ctx context.Context, actor *models.User, membershipID, newStatus string) (*models.Membership, error)
	Remove(ctx context.Context, actor *models.User, membershipID string) error
}

// ContributionTotals supplies the collection figures decorating responses
type ContributionTotals interface {
	TotalCollected(ctx context.Context, committeeID string) (decimal.Decimal, error)
	TotalPaid(ctx context.Context, membershipID string) (decimal.Decimal, error)
}

// UserDirectory resolves user IDs to accounts for display names
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// CommitteeHandlers handles committee and member roster endpoints
type CommitteeHandlers struct {
	committees    CommitteeService
	memberships   MembershipService
	contributions ContributionTotals
	users         UserDirectory
}

// NewCommitteeHandlers creates a new CommitteeHandlers instance
func NewCommitteeHandlers(committees CommitteeService, memberships MembershipService, contributions ContributionTotals, users UserDirectory) *CommitteeHandlers {
	return &CommitteeHandlers{
		committees:    committees,
		memberships:   memberships,
		contributions: contributions,
		users:         users,
	}
}

// @Summary      List committees
// @Description  List all committees, newest first, with the total count. Open to any authenticated identity.
// @Tags         Committees
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Page size (default 20, max 100)"
// @Param        offset  query  int  false  "Page offset"
// @Success      200  {object}  map[string]interface{}  "committees: []committee, total: int"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/committees [get]
// ListHandler lists all committees
// GET /api/v1/committees
func (h *CommitteeHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		limitStr := c.DefaultQuery("limit", "20")
		offsetStr := c.DefaultQuery("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 20
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			offset = 0
		}

		committees, total, err := h.committees.List(c.Request.Context(), actor, limit, offset)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		// Organizer names repeat across committees; resolve each organizer
		// once per request.
		names := map[string]string{}
		out := make([]committeeResponse, 0, len(committees))
		for _, committee := range committees {
			resp, err := h.buildCommitteeResponse(c.Request.Context(), committee, names)
			if err != nil {
				httputil.ServiceError(c, err)
				return
			}
			out = append(out, resp)
		}

		c.JSON(http.StatusOK, gin.H{"committees": out, "total": total})
	}
}

// CreateCommitteeRequest represents the request to open a committee
type CreateCommitteeRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	MonthlyAmount  decimal.Decimal `json:"monthly_amount" binding:"required"`
	DurationMonths int             `json:"duration_months" binding:"required"`
	StartDate      string          `json:"start_date" binding:"required"`
	Members        []string        `json:"members"`
}

// @Summary      Create committee
// @Description  Open a new committee with an optional initial member list. The caller becomes the organizer; the end date is derived from the start date and duration.
// @Tags         Committees
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  CreateCommitteeRequest  true  "Committee details"
// @Success      201  {object}  map[string]interface{}  "committee"
// @Failure      403  {object}  map[string]interface{}  "Caller is not an approved organizer"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/committees [post]
// CreateHandler opens a committee
// POST /api/v1/committees
func (h *CommitteeHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req CreateCommitteeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		startDate, err := httputil.ParseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be a YYYY-MM-DD date"})
			return
		}

		committee, err := h.committees.Create(c.Request.Context(), actor, services.CreateCommitteeInput{
			Name:           req.Name,
			Description:    req.Description,
			MonthlyAmount:  req.MonthlyAmount,
			DurationMonths: req.DurationMonths,
			StartDate:      startDate,
			MemberIDs:      req.Members,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		resp, err := h.buildCommitteeResponse(c.Request.Context(), committee, nil)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"committee": resp})
	}
}

// @Summary      Get committee
// @Description  Return one committee with its roster and collection totals. Open to any authenticated identity.
// @Tags         Committees
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Committee ID"
// @Success      200  {object}  map[string]interface{}  "committee"
// @Failure      404  {object}  map[string]interface{}  "Committee not found"
// @Router       /api/v1/committees/{id} [get]
// GetHandler returns one committee
// GET /api/v1/committees/:id
func (h *CommitteeHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		committee, err := h.committees.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		resp, err := h.buildCommitteeResponse(c.Request.Context(), committee, nil)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"committee": resp})
	}
}

// UpdateCommitteeRequest represents a partial committee update. A non-nil
// members list replaces the roster wholesale.
type UpdateCommitteeRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status"`
	MonthlyAmount  *decimal.Decimal `json:"monthly_amount"`
	DurationMonths *int             `json:"duration_months"`
	StartDate      *string          `json:"start_date"`
	Members        *[]string        `json:"members"`
}

// @Summary      Update committee
// @Description  Apply a partial update. The end date is recomputed only when the start date or duration changes; a members list reconciles the roster wholesale.
// @Tags         Committees
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Committee ID"
// @Param        request  body  UpdateCommitteeRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "committee"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can modify the committee"
// @Failure      404  {object}  map[string]interface{}  "Committee not found"
// @Failure      422  {object}  map[string]interface{}  "Validation error"
// @Router       /api/v1/committees/{id} [put]
// UpdateHandler applies a partial committee update
// PUT /api/v1/committees/:id
func (h *CommitteeHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}
		committeeID := c.Param("id")

		var req UpdateCommitteeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		startDate, err := httputil.ParseDatePtr(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be a YYYY-MM-DD date"})
			return
		}

		committee, err := h.committees.Update(c.Request.Context(), actor, committeeID, services.UpdateCommitteeInput{
			Name:           req.Name,
			Description:    req.Description,
			Status:         req.Status,
			MonthlyAmount:  req.MonthlyAmount,
			DurationMonths: req.DurationMonths,
			StartDate:      startDate,
		})
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		if req.Members != nil {
			if err := h.committees.ReplaceMembers(c.Request.Context(), actor, committeeID, *req.Members); err != nil {
				httputil.ServiceError(c, err)
				return
			}
		}

		resp, err := h.buildCommitteeResponse(c.Request.Context(), committee, nil)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"committee": resp})
	}
}

// @Summary      Delete committee
// @Description  Delete a committee and everything under it. Organizer only.
// @Tags         Committees
// @Security     Bearer
// @Param        id  path  string  true  "Committee ID"
// @Success      204  "Deleted"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can delete the committee"
// @Failure      404  {object}  map[string]interface{}  "Committee not found"
// @Router       /api/v1/committees/{id} [delete]
// DeleteHandler deletes a committee
// DELETE /api/v1/committees/:id
func (h *CommitteeHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		if err := h.committees.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
