package committees

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/services"
)

func withCommittee(committees *stubCommitteeService) {
	committees.getFn = func(ctx context.Context, actor *models.User, committeeID string) (*models.Committee, error) {
		return sampleCommittee(), nil
	}
}

func TestListMembers(t *testing.T) {
	h, committees, _, totals, _ := newTestHandlers()
	withCommittee(committees)
	totals.totalPaidFn = func(ctx context.Context, membershipID string) (decimal.Decimal, error) {
		if membershipID == "mem-1" {
			return decimal.RequireFromString("10000.00"), nil
		}
		return decimal.Zero, nil
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.GET("/committees/:id/members", h.ListMembersHandler()) })
	w := perform(r, http.MethodGet, "/committees/cmt-1/members", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	members := decodeBody(t, w)["members"].([]any)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	first := members[0].(map[string]any)
	if first["member_name"] != "Alice Khan" {
		t.Errorf("expected member_name 'Alice Khan', got %v", first["member_name"])
	}
	if first["committee_name"] != "Office Savings" {
		t.Errorf("expected committee_name 'Office Savings', got %v", first["committee_name"])
	}
	if first["total_contributed"] != "10000.00" {
		t.Errorf("expected total_contributed '10000.00', got %v", first["total_contributed"])
	}
	second := members[1].(map[string]any)
	if second["status"] != models.MembershipStatusLeft {
		t.Errorf("expected second member LEFT, got %v", second["status"])
	}
	if second["left_at"] != "2025-05-01" {
		t.Errorf("expected left_at '2025-05-01', got %v", second["left_at"])
	}
}

func TestAddMember(t *testing.T) {
	h, committees, memberships, _, _ := newTestHandlers()
	withCommittee(committees)
	memberships.addFn = func(ctx context.Context, actor *models.User, committeeID, memberID string) (*models.Membership, error) {
		if committeeID != "cmt-1" || memberID != "user-1" {
			t.Errorf("expected add (cmt-1, user-1), got (%s, %s)", committeeID, memberID)
		}
		return &models.Membership{ID: "mem-1", CommitteeID: committeeID, MemberID: memberID, Status: models.MembershipStatusActive}, nil
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.POST("/committees/:id/members", h.AddMemberHandler()) })
	w := perform(r, http.MethodPost, "/committees/cmt-1/members", map[string]any{"member": "user-1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	membership := decodeBody(t, w)["membership"].(map[string]any)
	if membership["member_name"] != "Alice Khan" {
		t.Errorf("expected member_name 'Alice Khan', got %v", membership["member_name"])
	}
}

func TestAddMember_AlreadyActive(t *testing.T) {
	h, committees, memberships, _, _ := newTestHandlers()
	withCommittee(committees)
	memberships.addFn = func(ctx context.Context, actor *models.User, committeeID, memberID string) (*models.Membership, error) {
		return nil, &services.ConflictError{Message: "user is already an active member"}
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.POST("/committees/:id/members", h.AddMemberHandler()) })
	w := perform(r, http.MethodPost, "/committees/cmt-1/members", map[string]any{"member": "user-1"})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetMember(t *testing.T) {
	h, committees, _, _, _ := newTestHandlers()
	withCommittee(committees)

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.GET("/committees/:id/members/:mid", h.GetMemberHandler()) })
	w := perform(r, http.MethodGet, "/committees/cmt-1/members/mem-2", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	membership := decodeBody(t, w)["membership"].(map[string]any)
	if membership["member_name"] != "Bilal Ahmed" {
		t.Errorf("expected member_name 'Bilal Ahmed', got %v", membership["member_name"])
	}
}

func TestGetMember_NotInCommittee(t *testing.T) {
	h, committees, _, _, _ := newTestHandlers()
	withCommittee(committees)

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.GET("/committees/:id/members/:mid", h.GetMemberHandler()) })
	w := perform(r, http.MethodGet, "/committees/cmt-1/members/mem-99", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateMember(t *testing.T) {
	h, committees, memberships, _, _ := newTestHandlers()
	withCommittee(committees)
	memberships.updateStatusFn = func(ctx context.Context, actor *models.User, membershipID, newStatus string) (*models.Membership, error) {
		if membershipID != "mem-1" || newStatus != models.MembershipStatusLeft {
			t.Errorf("expected (mem-1, LEFT), got (%s, %s)", membershipID, newStatus)
		}
		return &models.Membership{ID: membershipID, Status: newStatus}, nil
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.PUT("/committees/:id/members/:mid", h.UpdateMemberHandler()) })
	w := perform(r, http.MethodPut, "/committees/cmt-1/members/mem-1", map[string]any{"status": "LEFT"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateMember_UnknownStatus(t *testing.T) {
	h, committees, memberships, _, _ := newTestHandlers()
	withCommittee(committees)
	memberships.updateStatusFn = func(ctx context.Context, actor *models.User, membershipID, newStatus string) (*models.Membership, error) {
		return nil, &services.ValidationError{Field: "status", Message: "unknown membership status"}
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.PUT("/committees/:id/members/:mid", h.UpdateMemberHandler()) })
	w := perform(r, http.MethodPut, "/committees/cmt-1/members/mem-1", map[string]any{"status": "GONE"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRemoveMember(t *testing.T) {
	h, _, memberships, _, _ := newTestHandlers()
	removed := ""
	memberships.removeFn = func(ctx context.Context, actor *models.User, membershipID string) error {
		removed = membershipID
		return nil
	}

	r := newRouter(sampleOrganizer(), func(r *gin.Engine) { r.DELETE("/committees/:id/members/:mid", h.RemoveMemberHandler()) })
	w := perform(r, http.MethodDelete, "/committees/cmt-1/members/mem-1", nil)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	if removed != "mem-1" {
		t.Errorf("expected membership 'mem-1' removed, got %q", removed)
	}
}

func TestRemoveMember_NotOrganizer(t *testing.T) {
	h, _, memberships, _, _ := newTestHandlers()
	memberships.removeFn = func(ctx context.Context, actor *models.User, membershipID string) error {
		return &services.ForbiddenError{Reason: "only the organizer can manage the roster"}
	}

	r := newRouter(sampleMember(), func(r *gin.Engine) { r.DELETE("/committees/:id/members/:mid", h.RemoveMemberHandler()) })
	w := perform(r, http.MethodDelete, "/committees/cmt-1/members/mem-1", nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}
