// membership_service.go implements MembershipService, covering add, leave,
// remove, and rejoin transitions on the membership ledger.
package services

import (
	"context"

	"github.com/committee-registry/committee-registry/internal/authz"
	"github.com/committee-registry/committee-registry/internal/db"
	"github.com/committee-registry/committee-registry/internal/db/models"
)

// MembershipService enforces membership rules on top of the repositories
type MembershipService struct {
	committees  CommitteeStore
	memberships MembershipStore
	users       UserStore
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(committees CommitteeStore, memberships MembershipStore, users UserStore) *MembershipService {
	return &MembershipService{committees: committees, memberships: memberships, users: users}
}

// List returns a committee's membership rows for its organizer or any member
func (s *MembershipService) List(ctx context.Context, actor *models.User, committeeID string) ([]*models.MembershipWithUser, error) {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, &NotFoundError{Resource: "committee"}
	}

	membership, err := s.memberships.GetByCommitteeAndMember(ctx, committeeID, actor.ID)
	if err != nil {
		return nil, err
	}
	if d := authz.CanListMembers(actor, committee, membership); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return s.memberships.ListByCommittee(ctx, committeeID)
}

// Roster returns a committee's membership rows without an actor gate. The
// committee read path embeds the active roster in its response and is open to
// any authenticated identity; the explicit members listing stays gated.
func (s *MembershipService) Roster(ctx context.Context, committeeID string) ([]*models.MembershipWithUser, error) {
	return s.memberships.ListByCommittee(ctx, committeeID)
}

// Add brings a user into the committee. A user with an inactive row rejoins
// by reactivating it; an ACTIVE row is a conflict. The unique constraint on
// (committee_id, member_id) backstops concurrent adds.
func (s *MembershipService) Add(ctx context.Context, actor *models.User, committeeID, memberID string) (*models.Membership, error) {
	committee, err := s.committees.GetCommitteeByID(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, &NotFoundError{Resource: "committee"}
	}
	if d := authz.CanAddMember(actor, committee); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	user, err := s.users.GetUserByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &ValidationError{Field: "member_id", Message: "unknown user"}
	}

	existing, err := s.memberships.GetByCommitteeAndMember(ctx, committeeID, memberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsActive() {
			return nil, &ConflictError{Message: "user is already a member of this committee"}
		}
		if err := s.memberships.Reactivate(ctx, existing.ID); err != nil {
			return nil, err
		}
		return s.memberships.GetMembershipByID(ctx, existing.ID)
	}

	membership, err := s.memberships.CreateMembership(ctx, committeeID, memberID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &ConflictError{Message: "user is already a member of this committee"}
		}
		return nil, err
	}
	return membership, nil
}

// UpdateStatus moves a membership between ACTIVE, LEFT, and REMOVED. The
// organizer can make any transition; a member can only set their own row to
// LEFT. Returning to ACTIVE clears left_at.
func (s *MembershipService) UpdateStatus(ctx context.Context, actor *models.User, membershipID, newStatus string) (*models.Membership, error) {
	if newStatus != models.MembershipStatusActive &&
		newStatus != models.MembershipStatusLeft &&
		newStatus != models.MembershipStatusRemoved {
		return nil, &ValidationError{Field: "status", Message: "status must be ACTIVE, LEFT, or REMOVED"}
	}

	membership, err := s.memberships.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, &NotFoundError{Resource: "membership"}
	}

	committee, err := s.committees.GetCommitteeByID(ctx, membership.CommitteeID)
	if err != nil {
		return nil, err
	}
	if committee == nil {
		return nil, &NotFoundError{Resource: "committee"}
	}

	if d := authz.CanUpdateMembership(actor, committee, membership, newStatus); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if newStatus == models.MembershipStatusActive {
		if err := s.memberships.Reactivate(ctx, membershipID); err != nil {
			return nil, err
		}
	} else {
		if err := s.memberships.UpdateStatus(ctx, membershipID, newStatus); err != nil {
			return nil, err
		}
	}
	return s.memberships.GetMembershipByID(ctx, membershipID)
}

// Remove deletes a membership row outright, taking its contributions and
// payout with it. Marking REMOVED is the usual path; this is for rows created
// by mistake.
func (s *MembershipService) Remove(ctx context.Context, actor *models.User, membershipID string) error {
	membership, err := s.memberships.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if membership == nil {
		return &NotFoundError{Resource: "membership"}
	}

	committee, err := s.committees.GetCommitteeByID(ctx, membership.CommitteeID)
	if err != nil {
		return err
	}
	if committee == nil {
		return &NotFoundError{Resource: "committee"}
	}

	if d := authz.CanRemoveMembership(actor, committee); !d.Allowed {
		return &ForbiddenError{Reason: d.Reason}
	}
	return s.memberships.DeleteMembership(ctx, membershipID)
}
