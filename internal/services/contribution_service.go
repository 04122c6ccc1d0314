// contribution_service.go implements ContributionService. The central rules:
// a contribution's amount must equal the committee's monthly amount exactly,
// one contribution exists per membership per month, and payment status is
// always derived from the payment date, never accepted from the caller.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/authz"
	"github.com/committee-registry/committee-registry/internal/db"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/telemetry"
	"github.com/committee-registry/committee-registry/internal/validation"
)

// ContributionStore is the contribution persistence surface the service needs
type ContributionStore interface {
	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	GetContributionByID(ctx context.Context, contributionID string) (*models.ContributionWithContext, error)
	GetByMembershipAndMonth(ctx context.Context, membershipID string, forMonth time.Time) (*models.ContributionWithContext, error)
	ListByCommittee(ctx context.Context, committeeID string) ([]*models.ContributionWithContext, error)
	ListByMember(ctx context.Context, memberID string) ([]*models.ContributionWithContext, error)
	ListByMembership(ctx context.Context, membershipID string) ([]*models.ContributionWithContext, error)
	UpdateContribution(ctx context.Context, contribution *models.Contribution) error
	SetVerified(ctx context.Context, contributionID string, verified bool) error
	DeleteContribution(ctx context.Context, contributionID string) error
	CountUnsettled(ctx context.Context, membershipID string) (int, error)
	SumPaid(ctx context.Context, membershipID string) (decimal.Decimal, error)
	SumEligible(ctx context.Context, membershipID string) (decimal.Decimal, error)
	SumPaidByCommittee(ctx context.Context, committeeID string) (decimal.Decimal, error)
}

// ContributionService enforces contribution rules on top of the repositories
type ContributionService struct {
	committees    CommitteeStore
	memberships   MembershipStore
	contributions ContributionStore
}

// NewContributionService creates a new ContributionService
func NewContributionService(committees CommitteeStore, memberships MembershipStore, contributions ContributionStore) *ContributionService {
	return &ContributionService{committees: committees, memberships: memberships, contributions: contributions}
}

// RecordContributionInput carries the fields accepted when recording a payment
type RecordContributionInput struct {
	MembershipID string
	AmountPaid   decimal.Decimal
	ForMonth     time.Time
	DueDate      time.Time
	PaymentDate  *time.Time
}

// Record creates a contribution for a membership month. Recording by the
// organizer marks it verified immediately; a member's own record stays
// unverified until the organizer confirms receipt.
func (s *ContributionService) Record(ctx context.Context, actor *models.User, input RecordContributionInput) (*models.ContributionWithContext, error) {
	membership, err := s.memberships.GetMembershipByID(ctx, input.MembershipID)
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

	if d := authz.CanRecordContribution(actor, committee, membership); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if !input.AmountPaid.Equal(committee.MonthlyAmount) {
		return nil, &ValidationError{
			Field:   "amount_paid",
			Message: "amount must equal the committee monthly amount of " + committee.MonthlyAmount.StringFixed(2),
		}
	}
	if input.ForMonth.IsZero() {
		return nil, &ValidationError{Field: "for_month", Message: "contribution month is required"}
	}
	if input.DueDate.IsZero() {
		return nil, &ValidationError{Field: "due_date", Message: "due date is required"}
	}

	forMonth := validation.FirstOfMonth(input.ForMonth)

	existing, err := s.contributions.GetByMembershipAndMonth(ctx, input.MembershipID, forMonth)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "a contribution for this month already exists"}
	}

	contribution := &models.Contribution{
		MembershipID:        input.MembershipID,
		AmountPaid:          input.AmountPaid,
		ForMonth:            forMonth,
		DueDate:             input.DueDate,
		PaymentDate:         input.PaymentDate,
		PaymentStatus:       models.DerivePaymentStatus(input.PaymentDate, input.DueDate),
		VerifiedByOrganizer: committee.OrganizerID == actor.ID,
	}

	if err := s.contributions.CreateContribution(ctx, contribution); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &ConflictError{Message: "a contribution for this month already exists"}
		}
		return nil, err
	}
	telemetry.ContributionsRecordedTotal.WithLabelValues(strings.ToLower(contribution.PaymentStatus)).Inc()
	return s.contributions.GetContributionByID(ctx, contribution.ID)
}

// Get loads a contribution the actor is allowed to see
func (s *ContributionService) Get(ctx context.Context, actor *models.User, contributionID string) (*models.ContributionWithContext, error) {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if contribution == nil {
		return nil, &NotFoundError{Resource: "contribution"}
	}
	if d := authz.CanViewContribution(actor, contribution); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return contribution, nil
}

// ListByCommittee returns a committee's contributions for its organizer or any member
func (s *ContributionService) ListByCommittee(ctx context.Context, actor *models.User, committeeID string) ([]*models.ContributionWithContext, error) {
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
	if d := authz.CanViewCommitteeLedger(actor, committee, membership); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return s.contributions.ListByCommittee(ctx, committeeID)
}

// ListByMembership returns one membership's contribution history for the
// committee organizer or the member themselves.
func (s *ContributionService) ListByMembership(ctx context.Context, actor *models.User, membershipID string) ([]*models.ContributionWithContext, error) {
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
	if d := authz.CanListContributions(actor, committee, membership); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return s.contributions.ListByMembership(ctx, membershipID)
}

// ListOwn returns the actor's contributions across all committees
func (s *ContributionService) ListOwn(ctx context.Context, actor *models.User) ([]*models.ContributionWithContext, error) {
	return s.contributions.ListByMember(ctx, actor.ID)
}

// TotalCollected reports the committee-wide sum of PAID contributions.
// Visibility is the caller's concern; the figure decorates responses for
// resources the actor has already been allowed to load.
func (s *ContributionService) TotalCollected(ctx context.Context, committeeID string) (decimal.Decimal, error) {
	return s.contributions.SumPaidByCommittee(ctx, committeeID)
}

// TotalPaid reports a membership's sum of PAID contributions, the
// total_contributed figure on membership responses.
func (s *ContributionService) TotalPaid(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	return s.contributions.SumPaid(ctx, membershipID)
}

// UpdateContributionInput carries the optional fields of a contribution
// update. Nil pointers leave the stored value untouched. ClearPaymentDate
// resets the payment back to PENDING.
type UpdateContributionInput struct {
	AmountPaid       *decimal.Decimal
	DueDate          *time.Time
	PaymentDate      *time.Time
	ClearPaymentDate bool
}

// Update applies an amendment by the organizer or the contributing member.
// The payment status is re-derived from the resulting payment and due dates.
func (s *ContributionService) Update(ctx context.Context, actor *models.User, contributionID string, input UpdateContributionInput) (*models.ContributionWithContext, error) {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if contribution == nil {
		return nil, &NotFoundError{Resource: "contribution"}
	}
	if d := authz.CanUpdateContribution(actor, contribution); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	updated := contribution.Contribution

	if input.AmountPaid != nil {
		committee, err := s.committees.GetCommitteeByID(ctx, contribution.CommitteeID)
		if err != nil {
			return nil, err
		}
		if committee == nil {
			return nil, &NotFoundError{Resource: "committee"}
		}
		if !input.AmountPaid.Equal(committee.MonthlyAmount) {
			return nil, &ValidationError{
				Field:   "amount_paid",
				Message: "amount must equal the committee monthly amount of " + committee.MonthlyAmount.StringFixed(2),
			}
		}
		updated.AmountPaid = *input.AmountPaid
	}
	if input.DueDate != nil {
		updated.DueDate = *input.DueDate
	}
	if input.ClearPaymentDate {
		updated.PaymentDate = nil
	} else if input.PaymentDate != nil {
		updated.PaymentDate = input.PaymentDate
	}

	updated.PaymentStatus = models.DerivePaymentStatus(updated.PaymentDate, updated.DueDate)

	if err := s.contributions.UpdateContribution(ctx, &updated); err != nil {
		return nil, err
	}
	return s.contributions.GetContributionByID(ctx, contributionID)
}

// Verify marks a contribution as verified by the committee organizer
func (s *ContributionService) Verify(ctx context.Context, actor *models.User, contributionID string) (*models.ContributionWithContext, error) {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if contribution == nil {
		return nil, &NotFoundError{Resource: "contribution"}
	}
	if d := authz.CanVerifyContribution(actor, contribution); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if err := s.contributions.SetVerified(ctx, contributionID, true); err != nil {
		return nil, err
	}
	telemetry.ContributionsVerifiedTotal.Inc()
	return s.contributions.GetContributionByID(ctx, contributionID)
}

// Delete removes a contribution record
func (s *ContributionService) Delete(ctx context.Context, actor *models.User, contributionID string) error {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return err
	}
	if contribution == nil {
		return &NotFoundError{Resource: "contribution"}
	}
	if d := authz.CanDeleteContribution(actor, contribution); !d.Allowed {
		return &ForbiddenError{Reason: d.Reason}
	}
	return s.contributions.DeleteContribution(ctx, contributionID)
}
