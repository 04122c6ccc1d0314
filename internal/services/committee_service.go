// committee_service.go implements CommitteeService, covering committee
// lifecycle and the bulk reconciliation of a committee's member list.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/authz"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/telemetry"
	"github.com/committee-registry/committee-registry/internal/validation"
)

// CommitteeStore is the committee persistence surface the service needs
type CommitteeStore interface {
	CreateCommittee(ctx context.Context, committee *models.Committee, memberIDs []string) error
	GetCommitteeByID(ctx context.Context, committeeID string) (*models.Committee, error)
	ListCommittees(ctx context.Context, limit, offset int) ([]*models.Committee, int, error)
	UpdateCommittee(ctx context.Context, committee *models.Committee) error
	DeleteCommittee(ctx context.Context, committeeID string) error
}

// MembershipStore is the membership persistence surface shared by the
// committee and membership services.
type MembershipStore interface {
	CreateMembership(ctx context.Context, committeeID, memberID string) (*models.Membership, error)
	GetMembershipByID(ctx context.Context, membershipID string) (*models.Membership, error)
	GetByCommitteeAndMember(ctx context.Context, committeeID, memberID string) (*models.Membership, error)
	ListByCommittee(ctx context.Context, committeeID string) ([]*models.MembershipWithUser, error)
	UpdateStatus(ctx context.Context, membershipID, status string) error
	Reactivate(ctx context.Context, membershipID string) error
	ReplaceMembers(ctx context.Context, committeeID string, memberIDs []string) error
	DeleteMembership(ctx context.Context, membershipID string) error
}

// UserStore is the user lookup surface the services need
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CommitteeService enforces committee rules on top of the repositories
type CommitteeService struct {
	committees  CommitteeStore
	memberships MembershipStore
	users       UserStore
}

// NewCommitteeService creates a new CommitteeService
func NewCommitteeService(committees CommitteeStore, memberships MembershipStore, users UserStore) *CommitteeService {
	return &CommitteeService{committees: committees, memberships: memberships, users: users}
}

// CreateCommitteeInput carries the fields accepted when opening a committee
type CreateCommitteeInput struct {
	Name           string
	Description    string
	MonthlyAmount  decimal.Decimal
	DurationMonths int
	StartDate      time.Time
	MemberIDs      []string
}

// Create opens a new committee with its initial member list. The end date is
// derived from the start date and duration, never accepted from the caller.
func (s *CommitteeService) Create(ctx context.Context, actor *models.User, input CreateCommitteeInput) (*models.Committee, error) {
	if d := authz.CanCreateCommittee(actor); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := validation.ValidateAmount(input.MonthlyAmount); err != nil {
		return nil, &ValidationError{Field: "monthly_amount", Message: err.Error()}
	}
	if input.DurationMonths <= 0 {
		return nil, &ValidationError{Field: "duration_months", Message: "duration must be at least one month"}
	}
	if input.StartDate.IsZero() {
		return nil, &ValidationError{Field: "start_date", Message: "start date is required"}
	}

	memberIDs, err := s.resolveMembers(ctx, input.MemberIDs)
	if err != nil {
		return nil, err
	}

	endDate := validation.AddMonths(input.StartDate, input.DurationMonths)
	committee := &models.Committee{
		Name:           input.Name,
		Description:    input.Description,
		Status:         models.CommitteeStatusActive,
		MonthlyAmount:  input.MonthlyAmount,
		DurationMonths: input.DurationMonths,
		OrganizerID:    actor.ID,
		StartDate:      input.StartDate,
		EndDate:        &endDate,
	}

	if err := s.committees.CreateCommittee(ctx, committee, memberIDs); err != nil {
		return nil, err
	}
	telemetry.CommitteesCreatedTotal.Inc()
	return committee, nil
}

// resolveMembers verifies every listed user exists and drops duplicates while
// preserving order.
func (s *CommitteeService) resolveMembers(ctx context.Context, memberIDs []string) ([]string, error) {
	seen := make(map[string]bool, len(memberIDs))
	resolved := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		user, err := s.users.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, &ValidationError{Field: "member_ids", Message: "unknown user: " + id}
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// Get loads a committee. Committee records are readable by any authenticated
// identity; only the ledgers nested under a committee are gated.
func (s *CommitteeService) Get(ctx context.Context, actor *models.User, committeeID string) (*models.Committee, error) {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, &NotFoundError{Resource: "committee"}
	}
	return committee, nil
}

// List returns a page of all committees with the total count
func (s *CommitteeService) List(ctx context.Context, actor *models.User, limit, offset int) ([]*models.Committee, int, error) {
	return s.committees.ListCommittees(ctx, limit, offset)
}

// UpdateCommitteeInput carries the optional fields of a committee update.
// Nil pointers leave the stored value untouched.
type UpdateCommitteeInput struct {
	Name           *string
	Description    *string
	Status         *string
	MonthlyAmount  *decimal.Decimal
	DurationMonths *int
	StartDate      *time.Time
}

// Update applies a partial update. Changing the start date or duration
// recomputes the end date.
func (s *CommitteeService) Update(ctx context.Context, actor *models.User, committeeID string, input UpdateCommitteeInput) (*models.Committee, error) {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, &NotFoundError{Resource: "committee"}
	}
	if d := authz.CanManageCommittee(actor, committee); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, &ValidationError{Field: "name", Message: "name cannot be empty"}
		}
		committee.Name = *input.Name
	}
	if input.Description != nil {
		committee.Description = *input.Description
	}
	if input.Status != nil {
		if *input.Status != models.CommitteeStatusActive && *input.Status != models.CommitteeStatusCompleted {
			return nil, &ValidationError{Field: "status", Message: "status must be ACTIVE or COMPLETED"}
		}
		committee.Status = *input.Status
	}
	if input.MonthlyAmount != nil {
		if err := validation.ValidateAmount(*input.MonthlyAmount); err != nil {
			return nil, &ValidationError{Field: "monthly_amount", Message: err.Error()}
		}
		committee.MonthlyAmount = *input.MonthlyAmount
	}
	if input.DurationMonths != nil {
		if *input.DurationMonths <= 0 {
			return nil, &ValidationError{Field: "duration_months", Message: "duration must be at least one month"}
		}
		committee.DurationMonths = *input.DurationMonths
	}
	if input.StartDate != nil {
		committee.StartDate = *input.StartDate
	}

	if input.StartDate != nil || input.DurationMonths != nil {
		endDate := validation.AddMonths(committee.StartDate, committee.DurationMonths)
		committee.EndDate = &endDate
	}

	if err := s.committees.UpdateCommittee(ctx, committee); err != nil {
		return nil, err
	}
	return committee, nil
}

// Delete removes a committee and everything under it
func (s *CommitteeService) Delete(ctx context.Context, actor *models.User, committeeID string) error {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return err
	}
	if committee == nil {
		return &NotFoundError{Resource: "committee"}
	}
	if d := authz.CanManageCommittee(actor, committee); !d.Allowed {
		return &ForbiddenError{Reason: d.Reason}
	}
	return s.committees.DeleteCommittee(ctx, committeeID)
}

// ReplaceMembers reconciles the member list against the given set. Members
// absent from the set are marked REMOVED; LEFT and REMOVED rows for absent
// members stay as history.
func (s *CommitteeService) ReplaceMembers(ctx context.Context, actor *models.User, committeeID string, memberIDs []string) error {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return err
	}
	if committee == nil {
		return &NotFoundError{Resource: "committee"}
	}
	if d := authz.CanAddMember(actor, committee); !d.Allowed {
		return &ForbiddenError{Reason: d.Reason}
	}

	resolved, err := s.resolveMembers(ctx, memberIDs)
	if err != nil {
		return err
	}
	return s.memberships.ReplaceMembers(ctx, committeeID, resolved)
}
