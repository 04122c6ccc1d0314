// Package models - membership.go defines the Membership link between a user
// and a committee with its lifecycle status.
package models

import "time"

// Membership statuses.
const (
	MembershipStatusActive  = "ACTIVE"
	MembershipStatusLeft    = "LEFT"
	MembershipStatusRemoved = "REMOVED"
)

// Membership ties a user to a committee. A (committee, member) pair is unique
// for all time; a member who leaves and comes back reuses the same row with
// its status flipped back to ACTIVE and left_at cleared.
type Membership struct {
	ID          string
	CommitteeID string
	MemberID    string
	Status      string
	JoinedAt    time.Time
	LeftAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether the membership currently participates in the
// committee cycle.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}

// MembershipWithUser joins a membership row with the member's display fields
// for API responses.
type MembershipWithUser struct {
	Membership
	MemberEmail     string
	MemberFirstName string
	MemberLastName  string
}

// MemberName returns the member's full name with surrounding whitespace
// trimmed.
func (m *MembershipWithUser) MemberName() string {
	u := User{FirstName: m.MemberFirstName, LastName: m.MemberLastName}
	return u.FullName()
}
