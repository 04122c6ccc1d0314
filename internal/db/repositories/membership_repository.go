// membership_repository.go implements MembershipRepository, providing database queries for
// membership rows including the transactional bulk replacement of a committee's member list.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// MembershipRepository handles membership database operations
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `id, committee_id, member_id, status, joined_at, left_at, created_at, updated_at`

func scanMembership(row interface{ Scan(...interface{}) error }) (*models.Membership, error) {
	m := &models.Membership{}
	err := row.Scan(
		&m.ID,
		&m.CommitteeID,
		&m.MemberID,
		&m.Status,
		&m.JoinedAt,
		&m.LeftAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMembership inserts a fresh ACTIVE membership row
func (r *MembershipRepository) CreateMembership(ctx context.Context, committeeID, memberID string) (*models.Membership, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := insertMembershipTx(ctx, tx, committeeID, memberID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByCommitteeAndMember(ctx, committeeID, memberID)
}

// GetMembershipByID retrieves a membership by ID
func (r *MembershipRepository) GetMembershipByID(ctx context.Context, membershipID string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, membershipID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetByCommitteeAndMember retrieves the membership row for a (committee, member)
// pair regardless of status. At most one row exists per pair.
func (r *MembershipRepository) GetByCommitteeAndMember(ctx context.Context, committeeID, memberID string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE committee_id = $1 AND member_id = $2`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, committeeID, memberID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByCommittee retrieves all membership rows for a committee joined with
// the member's display fields, oldest join first.
func (r *MembershipRepository) ListByCommittee(ctx context.Context, committeeID string) ([]*models.MembershipWithUser, error) {
	query := `
		SELECT m.id, m.committee_id, m.member_id, m.status, m.joined_at, m.left_at,
			m.created_at, m.updated_at, u.email, u.first_name, u.last_name
		FROM memberships m
		JOIN users u ON u.id = m.member_id
		WHERE m.committee_id = $1
		ORDER BY m.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, committeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.MembershipWithUser, 0)
	for rows.Next() {
		m := &models.MembershipWithUser{}
		err := rows.Scan(
			&m.ID,
			&m.CommitteeID,
			&m.MemberID,
			&m.Status,
			&m.JoinedAt,
			&m.LeftAt,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.MemberEmail,
			&m.MemberFirstName,
			&m.MemberLastName,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

// UpdateStatus sets a membership's status. Moving out of ACTIVE stamps
// left_at only if it is not already stamped, so a LEFT row later marked
// REMOVED keeps its original departure time. Moving back to ACTIVE clears it.
func (r *MembershipRepository) UpdateStatus(ctx context.Context, membershipID, status string) error {
	now := time.Now()
	if status == models.MembershipStatusActive {
		query := `UPDATE memberships SET status = $2, left_at = NULL, updated_at = $3 WHERE id = $1`
		_, err := r.db.ExecContext(ctx, query, membershipID, status, now)
		return err
	}

	query := `UPDATE memberships SET status = $2, left_at = COALESCE(left_at, $3), updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, membershipID, status, now)
	return err
}

// Reactivate flips an inactive membership row back to ACTIVE, clearing
// left_at and refreshing joined_at to the rejoin time.
func (r *MembershipRepository) Reactivate(ctx context.Context, membershipID string) error {
	now := time.Now()
	query := `
		UPDATE memberships
		SET status = $2, left_at = NULL, joined_at = $3, updated_at = $3
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, membershipID, models.MembershipStatusActive, now)
	return err
}

// ReplaceMembers reconciles a committee's member list against the given set in
// one transaction. ACTIVE members absent from memberIDs are marked REMOVED,
// inactive rows for listed members are reactivated, and unseen members get
// fresh rows. LEFT and REMOVED rows for unlisted members are untouched.
func (r *MembershipRepository) ReplaceMembers(ctx context.Context, committeeID string, memberIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		keep[id] = true
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE committee_id = $1`, committeeID)
	if err != nil {
		return err
	}

	existing := make(map[string]*models.Membership)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			rows.Close()
			return err
		}
		existing[m.MemberID] = m
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	now := time.Now()

	for memberID, m := range existing {
		if keep[memberID] {
			if m.Status != models.MembershipStatusActive {
				_, err = tx.ExecContext(ctx,
					`UPDATE memberships SET status = $2, left_at = NULL, joined_at = $3, updated_at = $3 WHERE id = $1`,
					m.ID, models.MembershipStatusActive, now)
				if err != nil {
					return err
				}
			}
		} else if m.Status == models.MembershipStatusActive {
			_, err = tx.ExecContext(ctx,
				`UPDATE memberships SET status = $2, left_at = COALESCE(left_at, $3), updated_at = $3 WHERE id = $1`,
				m.ID, models.MembershipStatusRemoved, now)
			if err != nil {
				return err
			}
		}
	}

	for _, memberID := range memberIDs {
		if _, ok := existing[memberID]; ok {
			continue
		}
		if err := insertMembershipTx(ctx, tx, committeeID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteMembership deletes a membership row (cascades to contributions and payouts)
func (r *MembershipRepository) DeleteMembership(ctx context.Context, membershipID string) error {
	query := `DELETE FROM memberships WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, membershipID)
	return err
}
