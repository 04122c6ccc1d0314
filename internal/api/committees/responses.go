package committees

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/api/httputil"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/middleware"
)

// committeeResponse is the committee wire shape. Collection totals and the
// roster are computed per request rather than stored on the committee row.
type committeeResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Status              string          `json:"status"`
	MonthlyAmount       decimal.Decimal `json:"monthly_amount"`
	DurationMonths      int             `json:"duration_months"`
	Organizer           string          `json:"organizer"`
	OrganizerName       string          `json:"organizer_name"`
	StartDate           string          `json:"start_date"`
	EndDate             *string         `json:"end_date"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	TotalCollected      decimal.Decimal `json:"total_collected"`
	CurrentMembersCount int             `json:"current_members_count"`
	MembersList         []rosterEntry   `json:"members_list"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// rosterEntry is one active member in a committee's members_list
type rosterEntry struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// membershipResponse is the membership wire shape, decorated with the names
// and the running paid total the member dashboard shows.
type membershipResponse struct {
	ID               string          `json:"id"`
	Committee        string          `json:"committee"`
	Member           string          `json:"member"`
	MemberName       string          `json:"member_name"`
	CommitteeName    string          `json:"committee_name"`
	Status           string          `json:"status"`
	JoinedAt         string          `json:"joined_at"`
	LeftAt           *string         `json:"left_at"`
	TotalContributed decimal.Decimal `json:"total_contributed"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// requireUser pulls the authenticated account from the request context. The
// auth middleware guarantees it on these routes; a missing user is answered
// with 401 rather than a panic downstream.
func requireUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return user, true
}

// organizerName resolves an organizer's display name, memoizing lookups in
// names when the caller is rendering several committees at once.
func (h *CommitteeHandlers) organizerName(ctx context.Context, organizerID string, names map[string]string) (string, error) {
	if names != nil {
		if name, ok := names[organizerID]; ok {
			return name, nil
		}
	}
	organizer, err := h.users.GetUserByID(ctx, organizerID)
	if err != nil {
		return "", err
	}
	name := organizer.FullName()
	if names != nil {
		names[organizerID] = name
	}
	return name, nil
}

// buildCommitteeResponse assembles the full committee wire shape: base fields
// from the row, the active roster from the membership ledger, and the paid
// total from the contribution ledger.
func (h *CommitteeHandlers) buildCommitteeResponse(ctx context.Context, committee *models.Committee, names map[string]string) (committeeResponse, error) {
	organizerName, err := h.organizerName(ctx, committee.OrganizerID, names)
	if err != nil {
		return committeeResponse{}, err
	}

	memberships, err := h.memberships.Roster(ctx, committee.ID)
	if err != nil {
		return committeeResponse{}, err
	}
	roster := make([]rosterEntry, 0, len(memberships))
	for _, m := range memberships {
		if m.Status != models.MembershipStatusActive {
			continue
		}
		roster = append(roster, rosterEntry{
			ID:       m.ID,
			MemberID: m.MemberID,
			Name:     m.MemberName(),
			Status:   m.Status,
		})
	}

	collected, err := h.contributions.TotalCollected(ctx, committee.ID)
	if err != nil {
		return committeeResponse{}, err
	}

	return committeeResponse{
		ID:                  committee.ID,
		Name:                committee.Name,
		Description:         committee.Description,
		Status:              committee.Status,
		MonthlyAmount:       committee.MonthlyAmount,
		DurationMonths:      committee.DurationMonths,
		Organizer:           committee.OrganizerID,
		OrganizerName:       organizerName,
		StartDate:           httputil.Date(committee.StartDate),
		EndDate:             httputil.DatePtr(committee.EndDate),
		TotalAmount:         committee.TotalPool(),
		TotalCollected:      collected,
		CurrentMembersCount: len(roster),
		MembersList:         roster,
		CreatedAt:           committee.CreatedAt,
		UpdatedAt:           committee.UpdatedAt,
	}, nil
}

// buildMembershipResponse assembles the membership wire shape, including the
// member's verified display name and their paid total within the committee.
func (h *CommitteeHandlers) buildMembershipResponse(ctx context.Context, m *models.MembershipWithUser, committeeName string) (membershipResponse, error) {
	total, err := h.contributions.TotalPaid(ctx, m.ID)
	if err != nil {
		return membershipResponse{}, err
	}
	return membershipResponse{
		ID:               m.ID,
		Committee:        m.CommitteeID,
		Member:           m.MemberID,
		MemberName:       m.MemberName(),
		CommitteeName:    committeeName,
		Status:           m.Status,
		JoinedAt:         httputil.Date(m.JoinedAt),
		LeftAt:           httputil.DatePtr(m.LeftAt),
		TotalContributed: total,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}
