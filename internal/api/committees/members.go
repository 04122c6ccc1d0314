package committees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/api/httputil"
	"github.com/committee-registry/committee-registry/internal/db/models"
)

// @Summary      List members
// @Description  List the membership rows of a committee, active and departed. Organizer and members only.
// @Tags         Members
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Committee ID"
// @Success      200  {object}  map[string]interface{}  "members: []membership"
// @Failure      403  {object}  map[string]interface{}  "Not a member of this committee"
// @Failure      404  {object}  map[string]interface{}  "Committee not found"
// @Router       /api/v1/committees/{id}/members [get]
// ListMembersHandler lists a committee's membership rows
// GET /api/v1/committees/:id/members
func (h *CommitteeHandlers) ListMembersHandler() gin.HandlerFunc {
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
		memberships, err := h.memberships.List(c.Request.Context(), actor, committee.ID)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		out := make([]membershipResponse, 0, len(memberships))
		for _, m := range memberships {
			resp, err := h.buildMembershipResponse(c.Request.Context(), m, committee.Name)
			if err != nil {
				httputil.ServiceError(c, err)
				return
			}
			out = append(out, resp)
		}
		c.JSON(http.StatusOK, gin.H{"members": out})
	}
}

// AddMemberRequest represents the request to enroll a member
type AddMemberRequest struct {
	Member string `json:"member" binding:"required"`
}

// @Summary      Add member
// @Description  Enroll a user in a committee. Organizer only. A user who left earlier rejoins on the same membership row.
// @Tags         Members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string            true  "Committee ID"
// @Param        request  body  AddMemberRequest  true  "User to enroll"
// @Success      201  {object}  map[string]interface{}  "membership"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can manage the roster"
// @Failure      404  {object}  map[string]interface{}  "Committee or user not found"
// @Failure      409  {object}  map[string]interface{}  "User is already an active member"
// @Router       /api/v1/committees/{id}/members [post]
// AddMemberHandler enrolls a user in a committee
// POST /api/v1/committees/:id/members
func (h *CommitteeHandlers) AddMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		membership, err := h.memberships.Add(c.Request.Context(), actor, c.Param("id"), req.Member)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}

		resp, found, err := h.findMembershipResponse(c, actor, c.Param("id"), membership.ID)
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"membership": resp})
	}
}

// @Summary      Get member
// @Description  Return one membership row of a committee.
// @Tags         Members
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Committee ID"
// @Param        mid  path  string  true  "Membership ID"
// @Success      200  {object}  map[string]interface{}  "membership"
// @Failure      403  {object}  map[string]interface{}  "Not a member of this committee"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Router       /api/v1/committees/{id}/members/{mid} [get]
// GetMemberHandler returns one membership row
// GET /api/v1/committees/:id/members/:mid
func (h *CommitteeHandlers) GetMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		resp, found, err := h.findMembershipResponse(c, actor, c.Param("id"), c.Param("mid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"membership": resp})
	}
}

// UpdateMemberRequest represents a membership status change
type UpdateMemberRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary      Update member
// @Description  Change a membership's status. Organizer only. Leaving sets left_at; rejoining clears it.
// @Tags         Members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Committee ID"
// @Param        mid      path  string               true  "Membership ID"
// @Param        request  body  UpdateMemberRequest  true  "New status"
// @Success      200  {object}  map[string]interface{}  "membership"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can manage the roster"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Failure      422  {object}  map[string]interface{}  "Unknown status"
// @Router       /api/v1/committees/{id}/members/{mid} [put]
// UpdateMemberHandler changes a membership's status
// PUT /api/v1/committees/:id/members/:mid
func (h *CommitteeHandlers) UpdateMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		var req UpdateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		if _, err := h.memberships.UpdateStatus(c.Request.Context(), actor, c.Param("mid"), req.Status); err != nil {
			httputil.ServiceError(c, err)
			return
		}

		resp, found, err := h.findMembershipResponse(c, actor, c.Param("id"), c.Param("mid"))
		if err != nil {
			httputil.ServiceError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"membership": resp})
	}
}

// @Summary      Remove member
// @Description  Remove a member from the roster. Organizer only. The row is kept with status REMOVED for contribution history.
// @Tags         Members
// @Security     Bearer
// @Param        id   path  string  true  "Committee ID"
// @Param        mid  path  string  true  "Membership ID"
// @Success      204  "Removed"
// @Failure      403  {object}  map[string]interface{}  "Only the organizer can manage the roster"
// @Failure      404  {object}  map[string]interface{}  "Membership not found"
// @Router       /api/v1/committees/{id}/members/{mid} [delete]
// RemoveMemberHandler removes a member from the roster
// DELETE /api/v1/committees/:id/members/:mid
func (h *CommitteeHandlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireUser(c)
		if !ok {
			return
		}

		if err := h.memberships.Remove(c.Request.Context(), actor, c.Param("mid")); err != nil {
			httputil.ServiceError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// findMembershipResponse loads one membership of a committee through the
// committee-scoped list, which already enforces visibility. Returns found =
// false when the membership ID does not belong to the committee.
func (h *CommitteeHandlers) findMembershipResponse(c *gin.Context, actor *models.User, committeeID, membershipID string) (membershipResponse, bool, error) {
	committee, err := h.committees.Get(c.Request.Context(), actor, committeeID)
	if err != nil {
		return membershipResponse{}, false, err
	}
	memberships, err := h.memberships.List(c.Request.Context(), actor, committee.ID)
	if err != nil {
		return membershipResponse{}, false, err
	}
	for _, m := range memberships {
		if m.ID != membershipID {
			continue
		}
		resp, err := h.buildMembershipResponse(c.Request.Context(), m, committee.Name)
		if err != nil {
			return membershipResponse{}, false, err
		}
		return resp, true, nil
	}
	return membershipResponse{}, false, nil
}
