// contribution_repository.go implements ContributionRepository, providing database queries
// for monthly contribution records and the aggregates the payout gates depend on.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// ContributionRepository handles contribution database operations
type ContributionRepository struct {
	db *sql.DB
}

// NewContributionRepository creates a new ContributionRepository
func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

const contributionContextColumns = `c.id, c.membership_id, c.amount_paid, c.for_month, c.due_date,
		c.payment_date, c.payment_status, c.verified_by_organizer, c.created_at, c.updated_at,
		m.committee_id, cm.name, cm.organizer_id, cm.monthly_amount, m.member_id, u.email,
		u.first_name, u.last_name`

const contributionContextJoins = `
		FROM contributions c
		JOIN memberships m ON m.id = c.membership_id
		JOIN committees cm ON cm.id = m.committee_id
		JOIN users u ON u.id = m.member_id`

func scanContributionWithContext(row interface{ Scan(...interface{}) error }) (*models.ContributionWithContext, error) {
	c := &models.ContributionWithContext{}
	err := row.Scan(
		&c.ID,
		&c.MembershipID,
		&c.AmountPaid,
		&c.ForMonth,
		&c.DueDate,
		&c.PaymentDate,
		&c.PaymentStatus,
		&c.VerifiedByOrganizer,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.CommitteeID,
		&c.CommitteeName,
		&c.OrganizerID,
		&c.MonthlyAmount,
		&c.MemberID,
		&c.MemberEmail,
		&c.MemberFirstName,
		&c.MemberLastName,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateContribution creates a new contribution record. The payment status is
// re-derived from the payment and due dates before the write; a stale status
// handed in by the caller never reaches the database.
func (r *ContributionRepository) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	contribution.ID = uuid.New().String()
	contribution.PaymentStatus = models.DerivePaymentStatus(contribution.PaymentDate, contribution.DueDate)
	contribution.CreatedAt = time.Now()
	contribution.UpdatedAt = time.Now()

	query := `
		INSERT INTO contributions (id, membership_id, amount_paid, for_month, due_date,
			payment_date, payment_status, verified_by_organizer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		contribution.ID,
		contribution.MembershipID,
		contribution.AmountPaid,
		contribution.ForMonth,
		contribution.DueDate,
		contribution.PaymentDate,
		contribution.PaymentStatus,
		contribution.VerifiedByOrganizer,
		contribution.CreatedAt,
		contribution.UpdatedAt,
	)

	return err
}

// GetContributionByID retrieves a contribution with its committee and member context
func (r *ContributionRepository) GetContributionByID(ctx context.Context, contributionID string) (*models.ContributionWithContext, error) {
	query := `SELECT ` + contributionContextColumns + contributionContextJoins + ` WHERE c.id = $1`

	contribution, err := scanContributionWithContext(r.db.QueryRowContext(ctx, query, contributionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// GetByMembershipAndMonth retrieves the contribution for a membership in a
// given month. The month must already be normalised to its first day.
func (r *ContributionRepository) GetByMembershipAndMonth(ctx context.Context, membershipID string, forMonth time.Time) (*models.ContributionWithContext, error) {
	query := `SELECT ` + contributionContextColumns + contributionContextJoins +
		` WHERE c.membership_id = $1 AND c.for_month = $2`

	contribution, err := scanContributionWithContext(r.db.QueryRowContext(ctx, query, membershipID, forMonth))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// ListByCommittee retrieves all contributions for a committee, newest month first
func (r *ContributionRepository) ListByCommittee(ctx context.Context, committeeID string) ([]*models.ContributionWithContext, error) {
	query := `SELECT ` + contributionContextColumns + contributionContextJoins +
		` WHERE m.committee_id = $1 ORDER BY c.for_month DESC, u.email ASC`
	return r.list(ctx, query, committeeID)
}

// ListByMember retrieves all of a user's contributions across committees, newest month first
func (r *ContributionRepository) ListByMember(ctx context.Context, memberID string) ([]*models.ContributionWithContext, error) {
	query := `SELECT ` + contributionContextColumns + contributionContextJoins +
		` WHERE m.member_id = $1 ORDER BY c.for_month DESC`
	return r.list(ctx, query, memberID)
}

// ListByMembership retrieves all contributions for one membership, oldest month first
func (r *ContributionRepository) ListByMembership(ctx context.Context, membershipID string) ([]*models.ContributionWithContext, error) {
	query := `SELECT ` + contributionContextColumns + contributionContextJoins +
		` WHERE c.membership_id = $1 ORDER BY c.for_month ASC`
	return r.list(ctx, query, membershipID)
}

func (r *ContributionRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.ContributionWithContext, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions := make([]*models.ContributionWithContext, 0)
	for rows.Next() {
		contribution, err := scanContributionWithContext(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribution)
	}

	return contributions, rows.Err()
}

// UpdateContribution updates a contribution's payment fields. The payment
// status is re-derived from the resulting dates before the write.
func (r *ContributionRepository) UpdateContribution(ctx context.Context, contribution *models.Contribution) error {
	contribution.PaymentStatus = models.DerivePaymentStatus(contribution.PaymentDate, contribution.DueDate)
	contribution.UpdatedAt = time.Now()

	query := `
		UPDATE contributions
		SET amount_paid = $2, due_date = $3, payment_date = $4, payment_status = $5,
			verified_by_organizer = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		contribution.ID,
		contribution.AmountPaid,
		contribution.DueDate,
		contribution.PaymentDate,
		contribution.PaymentStatus,
		contribution.VerifiedByOrganizer,
		contribution.UpdatedAt,
	)

	return err
}

// SetVerified flips the organizer verification flag on a contribution
func (r *ContributionRepository) SetVerified(ctx context.Context, contributionID string, verified bool) error {
	query := `UPDATE contributions SET verified_by_organizer = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, contributionID, verified, time.Now())
	return err
}

// DeleteContribution deletes a contribution record
func (r *ContributionRepository) DeleteContribution(ctx context.Context, contributionID string) error {
	query := `DELETE FROM contributions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, contributionID)
	return err
}

// CountUnsettled returns the number of PENDING or LATE contributions for a
// membership. A payout is blocked while this is non-zero.
func (r *ContributionRepository) CountUnsettled(ctx context.Context, membershipID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM contributions
		WHERE membership_id = $1 AND payment_status IN ('PENDING', 'LATE')
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, membershipID).Scan(&count)
	return count, err
}

// SumPaid returns the total of PAID contribution amounts for a membership,
// the member's total_contributed figure.
func (r *ContributionRepository) SumPaid(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount_paid), 0) FROM contributions
		WHERE membership_id = $1 AND payment_status = 'PAID'
	`
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, membershipID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumEligible returns the total of PAID contributions the organizer has
// verified. Only this total may be disbursed as a payout.
func (r *ContributionRepository) SumEligible(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount_paid), 0) FROM contributions
		WHERE membership_id = $1 AND payment_status = 'PAID' AND verified_by_organizer = TRUE
	`
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, membershipID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumPaidByCommittee returns the total of PAID contribution amounts across
// all of a committee's memberships, the committee's total_collected figure.
func (r *ContributionRepository) SumPaidByCommittee(ctx context.Context, committeeID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(c.amount_paid), 0)
		FROM contributions c
		JOIN memberships m ON m.id = c.membership_id
		WHERE m.committee_id = $1 AND c.payment_status = 'PAID'
	`
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, committeeID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
