package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

var membershipCols = []string{"id", "committee_id", "member_id", "status", "joined_at",
	"left_at", "created_at", "updated_at"}

func sampleMembershipRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows(membershipCols).
		AddRow("mem-1", "cmt-1", "user-1", status, time.Now(), nil, time.Now(), time.Now())
}

func newMembershipRepo(t *testing.T) (*MembershipRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMembershipRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// ---------------------------------------------------------------------------
// GetByCommitteeAndMember
// ---------------------------------------------------------------------------

func TestGetByCommitteeAndMember_Found(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE committee_id").
		WithArgs("cmt-1", "user-1").
		WillReturnRows(sampleMembershipRow("ACTIVE"))

	m, err := repo.GetByCommitteeAndMember(context.Background(), "cmt-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected membership, got nil")
	}
	if !m.IsActive() {
		t.Errorf("Status = %s, want ACTIVE", m.Status)
	}
}

func TestGetByCommitteeAndMember_NotFound(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE committee_id").
		WithArgs("cmt-1", "user-2").
		WillReturnRows(sqlmock.NewRows(membershipCols))

	m, err := repo.GetByCommitteeAndMember(context.Background(), "cmt-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil membership, got %v", m)
	}
}

func TestGetByCommitteeAndMember_DBError(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM memberships.*WHERE committee_id").
		WithArgs("cmt-1", "user-1").
		WillReturnError(errDB)

	_, err := repo.GetByCommitteeAndMember(context.Background(), "cmt-1", "user-1")
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListByCommittee
// ---------------------------------------------------------------------------

func TestListByCommittee_Success(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	cols := append(append([]string{}, membershipCols...), "email", "first_name", "last_name")
	rows := sqlmock.NewRows(cols).
		AddRow("mem-1", "cmt-1", "user-1", "ACTIVE", time.Now(), nil, time.Now(), time.Now(),
			"alice@example.com", "Alice", "Khan").
		AddRow("mem-2", "cmt-1", "user-2", "LEFT", time.Now(), time.Now(), time.Now(), time.Now(),
			"bob@example.com", "Bob", "Raza")
	mock.ExpectQuery("SELECT.*FROM memberships m.*JOIN users u").
		WithArgs("cmt-1").
		WillReturnRows(rows)

	members, err := repo.ListByCommittee(context.Background(), "cmt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}
	if members[0].MemberName() != "Alice Khan" {
		t.Errorf("MemberName() = %q, want Alice Khan", members[0].MemberName())
	}
	if members[1].Status != models.MembershipStatusLeft {
		t.Errorf("Status = %s, want LEFT", members[1].Status)
	}
}

// ---------------------------------------------------------------------------
// UpdateStatus
// ---------------------------------------------------------------------------

func TestUpdateStatus_LeavingStampsLeftAt(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec(`UPDATE memberships SET status = \$2, left_at = COALESCE\(left_at, \$3\)`).
		WithArgs("mem-1", models.MembershipStatusLeft, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "mem-1", models.MembershipStatusLeft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// A LEFT row later marked REMOVED must keep its original departure time, so
// the write must go through COALESCE rather than overwrite left_at.
func TestUpdateStatus_RemovingKeepsExistingLeftAt(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec(`UPDATE memberships SET status = \$2, left_at = COALESCE\(left_at, \$3\)`).
		WithArgs("mem-1", models.MembershipStatusRemoved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "mem-1", models.MembershipStatusRemoved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateStatus_ReturningToActiveClearsLeftAt(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectExec(`UPDATE memberships SET status = \$2, left_at = NULL`).
		WithArgs("mem-1", models.MembershipStatusActive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "mem-1", models.MembershipStatusActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ReplaceMembers
// ---------------------------------------------------------------------------

func TestReplaceMembers_RemovesAbsentAndAddsNew(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectBegin()
	// Existing state: user-1 is ACTIVE but absent from the new list.
	mock.ExpectQuery("SELECT.*FROM memberships WHERE committee_id").
		WithArgs("cmt-1").
		WillReturnRows(sampleMembershipRow("ACTIVE"))
	mock.ExpectExec("UPDATE memberships SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO memberships").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceMembers(context.Background(), "cmt-1", []string{"user-9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceMembers_ReactivatesReturningMember(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectBegin()
	// user-1 previously LEFT and appears in the new list again.
	mock.ExpectQuery("SELECT.*FROM memberships WHERE committee_id").
		WithArgs("cmt-1").
		WillReturnRows(sampleMembershipRow("LEFT"))
	mock.ExpectExec("UPDATE memberships SET status.*left_at = NULL").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceMembers(context.Background(), "cmt-1", []string{"user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceMembers_ActiveListedMemberUntouched(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM memberships WHERE committee_id").
		WithArgs("cmt-1").
		WillReturnRows(sampleMembershipRow("ACTIVE"))
	mock.ExpectCommit()

	err := repo.ReplaceMembers(context.Background(), "cmt-1", []string{"user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceMembers_QueryFailsRollsBack(t *testing.T) {
	repo, mock := newMembershipRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM memberships WHERE committee_id").
		WithArgs("cmt-1").
		WillReturnError(errDB)
	mock.ExpectRollback()

	err := repo.ReplaceMembers(context.Background(), "cmt-1", []string{"user-1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
