package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// seedContribution puts a contribution straight into the fake store with a
// chosen status, bypassing the Record rules so totals can mix states freely.
func (f *fixture) seedContribution(membershipID string, month time.Time, amount, status string) *models.Contribution {
	c := &models.Contribution{
		MembershipID:  membershipID,
		AmountPaid:    decimal.RequireFromString(amount),
		ForMonth:      month,
		DueDate:       month.AddDate(0, 0, 9),
		PaymentStatus: status,
	}
	if status == models.PaymentStatusPaid {
		paid := month.AddDate(0, 0, 5)
		c.PaymentDate = &paid
	}
	f.contributions.CreateContribution(context.Background(), c)
	return c
}

func TestContributionTotalCollected_SumsPaidOnly(t *testing.T) {
	f := newFixture()
	svc := f.contributionService()
	committee, membership := f.seedCommittee()
	other := f.memberships.add(committee.ID, testMember2.ID, models.MembershipStatusActive)

	f.seedContribution(membership.ID, march(1), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(other.ID, march(1), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(membership.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "5000.00", models.PaymentStatusPending)
	f.seedContribution(other.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "5000.00", models.PaymentStatusLate)

	total, err := svc.TotalCollected(context.Background(), committee.ID)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", total.StringFixed(2))
}

func TestContributionTotalPaid_ScopedToMembership(t *testing.T) {
	f := newFixture()
	svc := f.contributionService()
	committee, membership := f.seedCommittee()
	other := f.memberships.add(committee.ID, testMember2.ID, models.MembershipStatusActive)

	f.seedContribution(membership.ID, march(1), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(membership.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(other.ID, march(1), "5000.00", models.PaymentStatusPaid)

	total, err := svc.TotalPaid(context.Background(), membership.ID)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", total.StringFixed(2))

	empty, err := svc.TotalPaid(context.Background(), "mem-none")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestContributionListByMembership(t *testing.T) {
	f := newFixture()
	svc := f.contributionService()
	_, membership := f.seedCommittee()
	f.seedContribution(membership.ID, march(1), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(membership.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "5000.00", models.PaymentStatusPending)

	history, err := svc.ListByMembership(context.Background(), testMember, membership.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = svc.ListByMembership(context.Background(), testOrganizer, membership.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "Office Savings", history[0].CommitteeName)

	_, err = svc.ListByMembership(context.Background(), testOutsider, membership.ID)
	assert.True(t, IsForbidden(err), "outsider should be forbidden, got %v", err)

	_, err = svc.ListByMembership(context.Background(), testOrganizer, "mem-none")
	assert.True(t, IsNotFound(err), "missing membership should be not found, got %v", err)
}

func TestContributionListOwn(t *testing.T) {
	f := newFixture()
	svc := f.contributionService()
	committee, membership := f.seedCommittee()
	other := f.memberships.add(committee.ID, testMember2.ID, models.MembershipStatusActive)
	f.seedContribution(membership.ID, march(1), "5000.00", models.PaymentStatusPaid)
	f.seedContribution(other.ID, march(1), "5000.00", models.PaymentStatusPaid)

	own, err := svc.ListOwn(context.Background(), testMember)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, testMember.ID, own[0].MemberID)
}
