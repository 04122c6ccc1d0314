// Package models - committee.go defines the Committee model for rotating
// savings groups and the date helpers derived from its duration.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Committee statuses.
const (
	CommitteeStatusActive    = "ACTIVE"
	CommitteeStatusCompleted = "COMPLETED"
)

// Committee represents a rotating savings group run by a single organizer.
// EndDate is derived from StartDate plus DurationMonths and is recomputed
// whenever either changes.
type Committee struct {
	ID             string
	Name           string
	Description    string
	Status         string
	MonthlyAmount  decimal.Decimal
	DurationMonths int
	OrganizerID    string
	StartDate      time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalPool returns the amount a single member receives over a full cycle,
// MonthlyAmount multiplied by DurationMonths.
func (c *Committee) TotalPool() decimal.Decimal {
	return c.MonthlyAmount.Mul(decimal.NewFromInt(int64(c.DurationMonths)))
}

// CommitteeWithMembers bundles a committee with its membership rows for list
// and detail responses.
type CommitteeWithMembers struct {
	Committee
	Members []MembershipWithUser
}
