// committee_repository.go implements CommitteeRepository, providing database queries for
// committee records and the transactional creation of a committee with its initial members.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// CommitteeRepository handles committee database operations
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository creates a new CommitteeRepository
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

const committeeColumns = `id, name, description, status, monthly_amount, duration_months,
		organizer_id, start_date, end_date, created_at, updated_at`

func scanCommittee(row interface{ Scan(...interface{}) error }) (*models.Committee, error) {
	c := &models.Committee{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Status,
		&c.MonthlyAmount,
		&c.DurationMonths,
		&c.OrganizerID,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCommittee creates a committee and its initial memberships in one
// transaction. The organizer's own membership, when present in memberIDs, is
// created like any other.
func (r *CommitteeRepository) CreateCommittee(ctx context.Context, committee *models.Committee, memberIDs []string) error {
	committee.ID = uuid.New().String()
	committee.CreatedAt = time.Now()
	committee.UpdatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO committees (id, name, description, status, monthly_amount, duration_months,
			organizer_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(ctx, query,
		committee.ID,
		committee.Name,
		committee.Description,
		committee.Status,
		committee.MonthlyAmount,
		committee.DurationMonths,
		committee.OrganizerID,
		committee.StartDate,
		committee.EndDate,
		committee.CreatedAt,
		committee.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, memberID := range memberIDs {
		if err := insertMembershipTx(ctx, tx, committee.ID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// insertMembershipTx inserts a fresh ACTIVE membership row inside an open transaction
func insertMembershipTx(ctx context.Context, tx *sqlx.Tx, committeeID, memberID string) error {
	now := time.Now()
	query := `
		INSERT INTO memberships (id, committee_id, member_id, status, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		uuid.New().String(), committeeID, memberID, models.MembershipStatusActive, now, now, now)
	return err
}

// GetCommitteeByID retrieves a committee by ID
func (r *CommitteeRepository) GetCommitteeByID(ctx context.Context, committeeID string) (*models.Committee, error) {
	query := `SELECT ` + committeeColumns + ` FROM committees WHERE id = $1`

	committee, err := scanCommittee(r.db.QueryRowContext(ctx, query, committeeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return committee, nil
}

// ListCommittees retrieves a page of all committees, newest first, along with
// the total row count.
func (r *CommitteeRepository) ListCommittees(ctx context.Context, limit, offset int) ([]*models.Committee, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM committees`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + committeeColumns + `
		FROM committees
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	committees := make([]*models.Committee, 0)
	for rows.Next() {
		committee, err := scanCommittee(rows)
		if err != nil {
			return nil, 0, err
		}
		committees = append(committees, committee)
	}

	return committees, total, rows.Err()
}

// UpdateCommittee updates a committee's mutable fields
func (r *CommitteeRepository) UpdateCommittee(ctx context.Context, committee *models.Committee) error {
	committee.UpdatedAt = time.Now()

	query := `
		UPDATE committees
		SET name = $2, description = $3, status = $4, monthly_amount = $5,
			duration_months = $6, start_date = $7, end_date = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		committee.ID,
		committee.Name,
		committee.Description,
		committee.Status,
		committee.MonthlyAmount,
		committee.DurationMonths,
		committee.StartDate,
		committee.EndDate,
		committee.UpdatedAt,
	)

	return err
}

// DeleteCommittee deletes a committee (cascades to memberships, contributions, and payouts)
func (r *CommitteeRepository) DeleteCommittee(ctx context.Context, committeeID string) error {
	query := `DELETE FROM committees WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, committeeID)
	return err
}
