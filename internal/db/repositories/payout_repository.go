// payout_repository.go implements PayoutRepository, providing database queries for
// payout records. Confirmation updates never write is_confirmed back to false.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// Payout creation gates re-checked inside the insert transaction. The service
// validates them up front; these surface when a concurrent write changes the
// ledger between that validation and the insert.
var (
	ErrUnsettledContributions = errors.New("membership has pending or late contributions")
	ErrPayoutExceedsEligible  = errors.New("payout exceeds the eligible contribution total")
)

// PayoutRepository handles payout database operations
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository creates a new PayoutRepository
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

const payoutContextColumns = `p.id, p.membership_id, p.total_amount, p.paid_at, p.received_by,
		p.is_confirmed, p.received_in_cash, p.confirmed_at, p.created_at, p.updated_at,
		m.committee_id, cm.name, cm.organizer_id, o.first_name, o.last_name,
		m.member_id, u.email, u.first_name, u.last_name`

const payoutContextJoins = `
		FROM payouts p
		JOIN memberships m ON m.id = p.membership_id
		JOIN committees cm ON cm.id = m.committee_id
		JOIN users u ON u.id = m.member_id
		JOIN users o ON o.id = cm.organizer_id`

func scanPayoutWithContext(row interface{ Scan(...interface{}) error }) (*models.PayoutWithContext, error) {
	p := &models.PayoutWithContext{}
	err := row.Scan(
		&p.ID,
		&p.MembershipID,
		&p.TotalAmount,
		&p.PaidAt,
		&p.ReceivedBy,
		&p.IsConfirmed,
		&p.ReceivedInCash,
		&p.ConfirmedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CommitteeID,
		&p.CommitteeName,
		&p.OrganizerID,
		&p.OrganizerFirstName,
		&p.OrganizerLastName,
		&p.MemberID,
		&p.MemberEmail,
		&p.MemberFirstName,
		&p.MemberLastName,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePayout creates a new payout record inside one transaction. The
// membership row is locked first so the eligibility re-checks and the insert
// see a stable contribution ledger; the unique constraint on membership_id
// rejects a concurrent second payout for the same membership.
func (r *PayoutRepository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	payout.ID = uuid.New().String()
	payout.CreatedAt = time.Now()
	payout.UpdatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var membershipID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM memberships WHERE id = $1 FOR UPDATE`,
		payout.MembershipID).Scan(&membershipID)
	if err != nil {
		return err
	}

	var unsettled int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM contributions
		WHERE membership_id = $1 AND payment_status IN ('PENDING', 'LATE')
	`, payout.MembershipID).Scan(&unsettled)
	if err != nil {
		return err
	}
	if unsettled > 0 {
		return ErrUnsettledContributions
	}

	var eligible decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_paid), 0)
		FROM contributions
		WHERE membership_id = $1 AND payment_status = 'PAID' AND verified_by_organizer = TRUE
	`, payout.MembershipID).Scan(&eligible)
	if err != nil {
		return err
	}
	if payout.TotalAmount.GreaterThan(eligible) {
		return ErrPayoutExceedsEligible
	}

	query := `
		INSERT INTO payouts (id, membership_id, total_amount, paid_at, received_by,
			is_confirmed, received_in_cash, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, query,
		payout.ID,
		payout.MembershipID,
		payout.TotalAmount,
		payout.PaidAt,
		payout.ReceivedBy,
		payout.IsConfirmed,
		payout.ReceivedInCash,
		payout.ConfirmedAt,
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetPayoutByID retrieves a payout with its committee and member context
func (r *PayoutRepository) GetPayoutByID(ctx context.Context, payoutID string) (*models.PayoutWithContext, error) {
	query := `SELECT ` + payoutContextColumns + payoutContextJoins + ` WHERE p.id = $1`

	payout, err := scanPayoutWithContext(r.db.QueryRowContext(ctx, query, payoutID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// GetByMembership retrieves the payout for a membership, if one exists
func (r *PayoutRepository) GetByMembership(ctx context.Context, membershipID string) (*models.PayoutWithContext, error) {
	query := `SELECT ` + payoutContextColumns + payoutContextJoins + ` WHERE p.membership_id = $1`

	payout, err := scanPayoutWithContext(r.db.QueryRowContext(ctx, query, membershipID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ListByCommittee retrieves all payouts for a committee, newest first
func (r *PayoutRepository) ListByCommittee(ctx context.Context, committeeID string) ([]*models.PayoutWithContext, error) {
	query := `SELECT ` + payoutContextColumns + payoutContextJoins +
		` WHERE m.committee_id = $1 ORDER BY p.paid_at DESC`
	return r.list(ctx, query, committeeID)
}

// ListByMember retrieves payouts across committees for memberships belonging
// to the given user, newest first.
func (r *PayoutRepository) ListByMember(ctx context.Context, memberID string) ([]*models.PayoutWithContext, error) {
	query := `SELECT ` + payoutContextColumns + payoutContextJoins +
		` WHERE m.member_id = $1 ORDER BY p.paid_at DESC`
	return r.list(ctx, query, memberID)
}

func (r *PayoutRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.PayoutWithContext, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]*models.PayoutWithContext, 0)
	for rows.Next() {
		payout, err := scanPayoutWithContext(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, payout)
	}

	return payouts, rows.Err()
}

// UpdatePayout updates a payout's disbursement fields. The paid_at stamp is
// set at creation and never rewritten. The is_confirmed flag is ORed with its
// stored value so a confirmed payout can never be written back to unconfirmed.
func (r *PayoutRepository) UpdatePayout(ctx context.Context, payout *models.Payout) error {
	payout.UpdatedAt = time.Now()

	query := `
		UPDATE payouts
		SET total_amount = $2, received_by = $3,
			is_confirmed = is_confirmed OR $4, received_in_cash = $5,
			confirmed_at = COALESCE(confirmed_at, $6), updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		payout.ID,
		payout.TotalAmount,
		payout.ReceivedBy,
		payout.IsConfirmed,
		payout.ReceivedInCash,
		payout.ConfirmedAt,
		payout.UpdatedAt,
	)

	return err
}

// ConfirmPayout marks a payout confirmed. Confirming an already confirmed
// payout keeps the original confirmation time.
func (r *PayoutRepository) ConfirmPayout(ctx context.Context, payoutID string) error {
	now := time.Now()
	query := `
		UPDATE payouts
		SET is_confirmed = TRUE, confirmed_at = COALESCE(confirmed_at, $2), updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, payoutID, now)
	return err
}

// DeletePayout deletes a payout record
func (r *PayoutRepository) DeletePayout(ctx context.Context, payoutID string) error {
	query := `DELETE FROM payouts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, payoutID)
	return err
}
