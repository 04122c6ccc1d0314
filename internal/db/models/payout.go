// Package models - payout.go defines the Payout model for the lump sum a
// member receives once per committee cycle.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout records the single disbursement a membership is entitled to. The
// unique constraint on MembershipID enforces one payout per member per
// committee. Confirmation is monotonic: once IsConfirmed is set it never
// returns to false.
type Payout struct {
	ID             string
	MembershipID   string
	TotalAmount    decimal.Decimal
	PaidAt         time.Time
	ReceivedBy     *string
	IsConfirmed    bool
	ReceivedInCash bool
	ConfirmedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PayoutWithContext joins a payout with the committee and member identifiers
// needed for authorization checks and API responses.
type PayoutWithContext struct {
	Payout
	CommitteeID        string
	CommitteeName      string
	OrganizerID        string
	OrganizerFirstName string
	OrganizerLastName  string
	MemberID           string
	MemberEmail        string
	MemberFirstName    string
	MemberLastName     string
}

// MemberName returns the receiving member's full name.
func (p *PayoutWithContext) MemberName() string {
	u := User{FirstName: p.MemberFirstName, LastName: p.MemberLastName}
	return u.FullName()
}

// OrganizerName returns the committee organizer's full name.
func (p *PayoutWithContext) OrganizerName() string {
	u := User{FirstName: p.OrganizerFirstName, LastName: p.OrganizerLastName}
	return u.FullName()
}
