// payout_service.go implements PayoutService. The payout gates: one payout
// per membership, no outstanding PENDING or LATE contributions, and the
// disbursed total can never exceed what the member actually paid in.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/authz"
	"github.com/committee-registry/committee-registry/internal/db"
	"github.com/committee-registry/committee-registry/internal/db/models"
	"github.com/committee-registry/committee-registry/internal/db/repositories"
	"github.com/committee-registry/committee-registry/internal/telemetry"
	"github.com/committee-registry/committee-registry/internal/validation"
)

// PayoutStore is the payout persistence surface the service needs
type PayoutStore interface {
	CreatePayout(ctx context.Context, payout *models.Payout) error
	GetPayoutByID(ctx context.Context, payoutID string) (*models.PayoutWithContext, error)
	GetByMembership(ctx context.Context, membershipID string) (*models.PayoutWithContext, error)
	ListByCommittee(ctx context.Context, committeeID string) ([]*models.PayoutWithContext, error)
	ListByMember(ctx context.Context, memberID string) ([]*models.PayoutWithContext, error)
	UpdatePayout(ctx context.Context, payout *models.Payout) error
	ConfirmPayout(ctx context.Context, payoutID string) error
	DeletePayout(ctx context.Context, payoutID string) error
}

// PayoutService enforces payout rules on top of the repositories
type PayoutService struct {
	committees    CommitteeStore
	memberships   MembershipStore
	contributions ContributionStore
	payouts       PayoutStore
}

// NewPayoutService creates a new PayoutService
func NewPayoutService(committees CommitteeStore, memberships MembershipStore, contributions ContributionStore, payouts PayoutStore) *PayoutService {
	return &PayoutService{
		committees:    committees,
		memberships:   memberships,
		contributions: contributions,
		payouts:       payouts,
	}
}

// CreatePayoutInput carries the fields accepted when disbursing a payout.
// A nil TotalAmount defaults to the membership's eligible total. The paid_at
// stamp is never taken from input; creation records the disbursement moment.
type CreatePayoutInput struct {
	MembershipID   string
	TotalAmount    *decimal.Decimal
	ReceivedBy     *string
	ReceivedInCash bool
}

// Create disburses the payout for a membership after checking every gate.
// ReceivedBy defaults to the disbursing actor; paid_at is stamped now. The
// repository re-checks the gates inside the insert transaction, so a
// concurrent edit between these checks and the insert still cannot produce
// an ineligible payout.
func (s *PayoutService) Create(ctx context.Context, actor *models.User, input CreatePayoutInput) (*models.PayoutWithContext, error) {
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

	if d := authz.CanCreatePayout(actor, committee); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	existing, err := s.payouts.GetByMembership(ctx, input.MembershipID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Message: "this membership has already received its payout"}
	}

	unsettled, err := s.contributions.CountUnsettled(ctx, input.MembershipID)
	if err != nil {
		return nil, err
	}
	if unsettled > 0 {
		return nil, &ValidationError{
			Field:   "membership_id",
			Message: "member has pending or late contributions",
		}
	}

	eligible, err := s.contributions.SumEligible(ctx, input.MembershipID)
	if err != nil {
		return nil, err
	}

	total := eligible
	if input.TotalAmount != nil {
		if err := validation.ValidateAmount(*input.TotalAmount); err != nil {
			return nil, &ValidationError{Field: "total_amount", Message: err.Error()}
		}
		if input.TotalAmount.GreaterThan(eligible) {
			return nil, &ValidationError{
				Field:   "total_amount",
				Message: "payout cannot exceed the eligible total of " + eligible.StringFixed(2),
			}
		}
		total = *input.TotalAmount
	}
	if !total.IsPositive() {
		return nil, &ValidationError{Field: "total_amount", Message: "member has no verified contributions to disburse"}
	}

	receivedBy := actor.ID
	if input.ReceivedBy != nil {
		receivedBy = *input.ReceivedBy
	}

	payout := &models.Payout{
		MembershipID:   input.MembershipID,
		TotalAmount:    total,
		PaidAt:         time.Now(),
		ReceivedBy:     &receivedBy,
		ReceivedInCash: input.ReceivedInCash,
	}

	if err := s.payouts.CreatePayout(ctx, payout); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUnsettledContributions):
			return nil, &ValidationError{
				Field:   "membership_id",
				Message: "member has pending or late contributions",
			}
		case errors.Is(err, repositories.ErrPayoutExceedsEligible):
			return nil, &ValidationError{
				Field:   "total_amount",
				Message: "payout cannot exceed the eligible total",
			}
		case db.IsUniqueViolation(err):
			return nil, &ConflictError{Message: "this membership has already received its payout"}
		}
		return nil, err
	}
	telemetry.PayoutsCreatedTotal.Inc()
	return s.payouts.GetPayoutByID(ctx, payout.ID)
}

// Get loads a payout the actor is allowed to see
func (s *PayoutService) Get(ctx context.Context, actor *models.User, payoutID string) (*models.PayoutWithContext, error) {
	payout, err := s.payouts.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, &NotFoundError{Resource: "payout"}
	}
	if d := authz.CanViewPayout(actor, payout); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return payout, nil
}

// ListByCommittee returns a committee's payouts. The organizer sees the full
// ledger; a member sees only the payouts they receive. Outsiders are denied.
func (s *PayoutService) ListByCommittee(ctx context.Context, actor *models.User, committeeID string) ([]*models.PayoutWithContext, error) {
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

	payouts, err := s.payouts.ListByCommittee(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	visible := make([]*models.PayoutWithContext, 0, len(payouts))
	for _, p := range payouts {
		if authz.CanViewPayout(actor, p).Allowed {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// ListOwn returns the payouts for the actor's own memberships
func (s *PayoutService) ListOwn(ctx context.Context, actor *models.User) ([]*models.PayoutWithContext, error) {
	return s.payouts.ListByMember(ctx, actor.ID)
}

// EligibleTotal returns the verified PAID total for a membership, the cap on
// its payout. Exposed for response enrichment; access control belongs to the
// payout the caller already loaded.
func (s *PayoutService) EligibleTotal(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	return s.contributions.SumEligible(ctx, membershipID)
}

// UpdatePayoutInput carries the optional fields of a payout update. Nil
// pointers leave the stored value untouched.
type UpdatePayoutInput struct {
	TotalAmount    *decimal.Decimal
	ReceivedBy     *string
	ReceivedInCash *bool
	IsConfirmed    *bool
}

// Update applies a payout update. The organizer edits any field; the
// receiving member's only move is setting is_confirmed to true. Confirmation
// is monotonic and never unwound.
func (s *PayoutService) Update(ctx context.Context, actor *models.User, payoutID string, input UpdatePayoutInput) (*models.PayoutWithContext, error) {
	payout, err := s.payouts.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, &NotFoundError{Resource: "payout"}
	}

	changes := authz.PayoutChanges{
		Disbursement: input.TotalAmount != nil ||
			input.ReceivedBy != nil || input.ReceivedInCash != nil,
		Confirming:   input.IsConfirmed != nil && *input.IsConfirmed && !payout.IsConfirmed,
		Unconfirming: input.IsConfirmed != nil && !*input.IsConfirmed && payout.IsConfirmed,
	}
	if d := authz.CanUpdatePayout(actor, payout, changes); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	updated := payout.Payout

	if input.TotalAmount != nil {
		if err := validation.ValidateAmount(*input.TotalAmount); err != nil {
			return nil, &ValidationError{Field: "total_amount", Message: err.Error()}
		}
		eligible, err := s.contributions.SumEligible(ctx, payout.MembershipID)
		if err != nil {
			return nil, err
		}
		if input.TotalAmount.GreaterThan(eligible) {
			return nil, &ValidationError{
				Field:   "total_amount",
				Message: "payout cannot exceed the eligible total of " + eligible.StringFixed(2),
			}
		}
		updated.TotalAmount = *input.TotalAmount
	}
	if input.ReceivedBy != nil {
		updated.ReceivedBy = input.ReceivedBy
	}
	if input.ReceivedInCash != nil {
		updated.ReceivedInCash = *input.ReceivedInCash
	}
	if changes.Confirming {
		updated.IsConfirmed = true
		now := time.Now()
		updated.ConfirmedAt = &now
	}

	if err := s.payouts.UpdatePayout(ctx, &updated); err != nil {
		return nil, err
	}
	if changes.Confirming {
		telemetry.PayoutsConfirmedTotal.Inc()
	}
	return s.payouts.GetPayoutByID(ctx, payoutID)
}

// Confirm is the organizer-triggered confirm action, stamping is_confirmed
// and confirmed_at. The member's own acknowledgment goes through Update.
func (s *PayoutService) Confirm(ctx context.Context, actor *models.User, payoutID string) (*models.PayoutWithContext, error) {
	payout, err := s.payouts.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, &NotFoundError{Resource: "payout"}
	}
	if d := authz.CanConfirmPayout(actor, payout); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	if err := s.payouts.ConfirmPayout(ctx, payoutID); err != nil {
		return nil, err
	}
	if !payout.IsConfirmed {
		telemetry.PayoutsConfirmedTotal.Inc()
	}
	return s.payouts.GetPayoutByID(ctx, payoutID)
}

// Delete removes a payout record
func (s *PayoutService) Delete(ctx context.Context, actor *models.User, payoutID string) error {
	payout, err := s.payouts.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout == nil {
		return &NotFoundError{Resource: "payout"}
	}
	if d := authz.CanDeletePayout(actor, payout); !d.Allowed {
		return &ForbiddenError{Reason: d.Reason}
	}
	return s.payouts.DeletePayout(ctx, payoutID)
}
