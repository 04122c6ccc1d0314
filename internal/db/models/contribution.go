// Package models - contribution.go defines the Contribution model for monthly
// payments against a membership, including the derived payment status.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution payment statuses.
const (
	PaymentStatusPaid    = "PAID"
	PaymentStatusPending = "PENDING"
	PaymentStatusLate    = "LATE"
)

// Contribution records one month's payment for a membership. ForMonth is
// normalised to the first day of the month and is unique per membership.
// PaymentStatus is never set directly by callers; it is derived from the
// payment date relative to the due date.
type Contribution struct {
	ID                  string
	MembershipID        string
	AmountPaid          decimal.Decimal
	ForMonth            time.Time
	DueDate             time.Time
	PaymentDate         *time.Time
	PaymentStatus       string
	VerifiedByOrganizer bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DerivePaymentStatus computes the status from the payment date: no payment
// date means PENDING, paying on or before the due date means PAID, and paying
// after it means LATE. Only the calendar dates are compared, not clock times.
func DerivePaymentStatus(paymentDate *time.Time, dueDate time.Time) string {
	if paymentDate == nil {
		return PaymentStatusPending
	}
	p := truncateToDay(*paymentDate)
	d := truncateToDay(dueDate)
	if p.After(d) {
		return PaymentStatusLate
	}
	return PaymentStatusPaid
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ContributionWithContext joins a contribution with the committee and member
// identifiers needed for authorization checks and API responses.
type ContributionWithContext struct {
	Contribution
	CommitteeID     string
	CommitteeName   string
	OrganizerID     string
	MonthlyAmount   decimal.Decimal
	MemberID        string
	MemberEmail     string
	MemberFirstName string
	MemberLastName  string
}

// MemberName returns the contributing member's full name.
func (c *ContributionWithContext) MemberName() string {
	u := User{FirstName: c.MemberFirstName, LastName: c.MemberLastName}
	return u.FullName()
}
