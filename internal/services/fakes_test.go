package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/committee-registry/committee-registry/internal/db/models"
)

// In-memory store fakes. Each mirrors the repository behavior the services
// rely on: nil for not found, and the same side effects on status moves.

type fakeCommitteeStore struct {
	committees map[string]*models.Committee
	nextID     int
}

func newFakeCommitteeStore() *fakeCommitteeStore {
	return &fakeCommitteeStore{committees: make(map[string]*models.Committee)}
}

func (f *fakeCommitteeStore) CreateCommittee(ctx context.Context, committee *models.Committee, memberIDs []string) error {
	f.nextID++
	committee.ID = fmt.Sprintf("cmt-%d", f.nextID)
	committee.CreatedAt = time.Now()
	committee.UpdatedAt = time.Now()
	f.committees[committee.ID] = committee
	return nil
}

func (f *fakeCommitteeStore) GetCommitteeByID(ctx context.Context, id string) (*models.Committee, error) {
	return f.committees[id], nil
}

func (f *fakeCommitteeStore) ListCommittees(ctx context.Context, limit, offset int) ([]*models.Committee, int, error) {
	all := make([]*models.Committee, 0, len(f.committees))
	for _, c := range f.committees {
		all = append(all, c)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeCommitteeStore) UpdateCommittee(ctx context.Context, committee *models.Committee) error {
	f.committees[committee.ID] = committee
	return nil
}

func (f *fakeCommitteeStore) DeleteCommittee(ctx context.Context, id string) error {
	delete(f.committees, id)
	return nil
}

type fakeMembershipStore struct {
	memberships map[string]*models.Membership
	nextID      int
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{memberships: make(map[string]*models.Membership)}
}

func (f *fakeMembershipStore) add(committeeID, memberID, status string) *models.Membership {
	f.nextID++
	m := &models.Membership{
		ID:          fmt.Sprintf("mem-%d", f.nextID),
		CommitteeID: committeeID,
		MemberID:    memberID,
		Status:      status,
		JoinedAt:    time.Now(),
	}
	if status != models.MembershipStatusActive {
		now := time.Now()
		m.LeftAt = &now
	}
	f.memberships[m.ID] = m
	return m
}

func (f *fakeMembershipStore) CreateMembership(ctx context.Context, committeeID, memberID string) (*models.Membership, error) {
	return f.add(committeeID, memberID, models.MembershipStatusActive), nil
}

func (f *fakeMembershipStore) GetMembershipByID(ctx context.Context, id string) (*models.Membership, error) {
	return f.memberships[id], nil
}

func (f *fakeMembershipStore) GetByCommitteeAndMember(ctx context.Context, committeeID, memberID string) (*models.Membership, error) {
	for _, m := range f.memberships {
		if m.CommitteeID == committeeID && m.MemberID == memberID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipStore) ListByCommittee(ctx context.Context, committeeID string) ([]*models.MembershipWithUser, error) {
	out := make([]*models.MembershipWithUser, 0)
	for _, m := range f.memberships {
		if m.CommitteeID == committeeID {
			out = append(out, &models.MembershipWithUser{Membership: *m})
		}
	}
	return out, nil
}

func (f *fakeMembershipStore) UpdateStatus(ctx context.Context, id, status string) error {
	m := f.memberships[id]
	m.Status = status
	if status == models.MembershipStatusActive {
		m.LeftAt = nil
	} else if m.LeftAt == nil {
		now := time.Now()
		m.LeftAt = &now
	}
	return nil
}

func (f *fakeMembershipStore) Reactivate(ctx context.Context, id string) error {
	m := f.memberships[id]
	m.Status = models.MembershipStatusActive
	m.LeftAt = nil
	m.JoinedAt = time.Now()
	return nil
}

func (f *fakeMembershipStore) ReplaceMembers(ctx context.Context, committeeID string, memberIDs []string) error {
	keep := make(map[string]bool)
	for _, id := range memberIDs {
		keep[id] = true
	}
	seen := make(map[string]bool)
	for _, m := range f.memberships {
		if m.CommitteeID != committeeID {
			continue
		}
		seen[m.MemberID] = true
		if keep[m.MemberID] {
			if m.Status != models.MembershipStatusActive {
				f.Reactivate(ctx, m.ID)
			}
		} else if m.Status == models.MembershipStatusActive {
			f.UpdateStatus(ctx, m.ID, models.MembershipStatusRemoved)
		}
	}
	for _, id := range memberIDs {
		if !seen[id] {
			f.add(committeeID, id, models.MembershipStatusActive)
		}
	}
	return nil
}

func (f *fakeMembershipStore) DeleteMembership(ctx context.Context, id string) error {
	delete(f.memberships, id)
	return nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeContributionStore struct {
	contributions map[string]*models.Contribution
	memberships   *fakeMembershipStore
	committees    *fakeCommitteeStore
	nextID        int
}

func newFakeContributionStore(memberships *fakeMembershipStore, committees *fakeCommitteeStore) *fakeContributionStore {
	return &fakeContributionStore{
		contributions: make(map[string]*models.Contribution),
		memberships:   memberships,
		committees:    committees,
	}
}

func (f *fakeContributionStore) withContext(c *models.Contribution) *models.ContributionWithContext {
	m := f.memberships.memberships[c.MembershipID]
	out := &models.ContributionWithContext{Contribution: *c}
	if m != nil {
		out.CommitteeID = m.CommitteeID
		out.MemberID = m.MemberID
		if committee := f.committees.committees[m.CommitteeID]; committee != nil {
			out.CommitteeName = committee.Name
			out.OrganizerID = committee.OrganizerID
			out.MonthlyAmount = committee.MonthlyAmount
		}
	}
	return out
}

func (f *fakeContributionStore) CreateContribution(ctx context.Context, c *models.Contribution) error {
	f.nextID++
	c.ID = fmt.Sprintf("con-%d", f.nextID)
	f.contributions[c.ID] = c
	return nil
}

func (f *fakeContributionStore) GetContributionByID(ctx context.Context, id string) (*models.ContributionWithContext, error) {
	c := f.contributions[id]
	if c == nil {
		return nil, nil
	}
	return f.withContext(c), nil
}

func (f *fakeContributionStore) GetByMembershipAndMonth(ctx context.Context, membershipID string, forMonth time.Time) (*models.ContributionWithContext, error) {
	for _, c := range f.contributions {
		if c.MembershipID == membershipID && c.ForMonth.Equal(forMonth) {
			return f.withContext(c), nil
		}
	}
	return nil, nil
}

func (f *fakeContributionStore) ListByCommittee(ctx context.Context, committeeID string) ([]*models.ContributionWithContext, error) {
	out := make([]*models.ContributionWithContext, 0)
	for _, c := range f.contributions {
		wc := f.withContext(c)
		if wc.CommitteeID == committeeID {
			out = append(out, wc)
		}
	}
	return out, nil
}

func (f *fakeContributionStore) ListByMember(ctx context.Context, memberID string) ([]*models.ContributionWithContext, error) {
	out := make([]*models.ContributionWithContext, 0)
	for _, c := range f.contributions {
		wc := f.withContext(c)
		if wc.MemberID == memberID {
			out = append(out, wc)
		}
	}
	return out, nil
}

func (f *fakeContributionStore) ListByMembership(ctx context.Context, membershipID string) ([]*models.ContributionWithContext, error) {
	out := make([]*models.ContributionWithContext, 0)
	for _, c := range f.contributions {
		if c.MembershipID == membershipID {
			out = append(out, f.withContext(c))
		}
	}
	return out, nil
}

func (f *fakeContributionStore) UpdateContribution(ctx context.Context, c *models.Contribution) error {
	f.contributions[c.ID] = c
	return nil
}

func (f *fakeContributionStore) SetVerified(ctx context.Context, id string, verified bool) error {
	f.contributions[id].VerifiedByOrganizer = verified
	return nil
}

func (f *fakeContributionStore) DeleteContribution(ctx context.Context, id string) error {
	delete(f.contributions, id)
	return nil
}

func (f *fakeContributionStore) CountUnsettled(ctx context.Context, membershipID string) (int, error) {
	count := 0
	for _, c := range f.contributions {
		if c.MembershipID == membershipID &&
			(c.PaymentStatus == models.PaymentStatusPending || c.PaymentStatus == models.PaymentStatusLate) {
			count++
		}
	}
	return count, nil
}

func (f *fakeContributionStore) SumPaid(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range f.contributions {
		if c.MembershipID == membershipID && c.PaymentStatus == models.PaymentStatusPaid {
			total = total.Add(c.AmountPaid)
		}
	}
	return total, nil
}

func (f *fakeContributionStore) SumEligible(ctx context.Context, membershipID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range f.contributions {
		if c.MembershipID == membershipID && c.PaymentStatus == models.PaymentStatusPaid && c.VerifiedByOrganizer {
			total = total.Add(c.AmountPaid)
		}
	}
	return total, nil
}

func (f *fakeContributionStore) SumPaidByCommittee(ctx context.Context, committeeID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range f.contributions {
		wc := f.withContext(c)
		if wc.CommitteeID == committeeID && c.PaymentStatus == models.PaymentStatusPaid {
			total = total.Add(c.AmountPaid)
		}
	}
	return total, nil
}

type fakePayoutStore struct {
	payouts     map[string]*models.Payout
	memberships *fakeMembershipStore
	committees  *fakeCommitteeStore
	nextID      int
}

func newFakePayoutStore(memberships *fakeMembershipStore, committees *fakeCommitteeStore) *fakePayoutStore {
	return &fakePayoutStore{
		payouts:     make(map[string]*models.Payout),
		memberships: memberships,
		committees:  committees,
	}
}

func (f *fakePayoutStore) withContext(p *models.Payout) *models.PayoutWithContext {
	m := f.memberships.memberships[p.MembershipID]
	out := &models.PayoutWithContext{Payout: *p}
	if m != nil {
		out.CommitteeID = m.CommitteeID
		out.MemberID = m.MemberID
		if committee := f.committees.committees[m.CommitteeID]; committee != nil {
			out.CommitteeName = committee.Name
			out.OrganizerID = committee.OrganizerID
		}
	}
	return out
}

func (f *fakePayoutStore) CreatePayout(ctx context.Context, p *models.Payout) error {
	f.nextID++
	p.ID = fmt.Sprintf("pay-%d", f.nextID)
	f.payouts[p.ID] = p
	return nil
}

func (f *fakePayoutStore) GetPayoutByID(ctx context.Context, id string) (*models.PayoutWithContext, error) {
	p := f.payouts[id]
	if p == nil {
		return nil, nil
	}
	return f.withContext(p), nil
}

func (f *fakePayoutStore) GetByMembership(ctx context.Context, membershipID string) (*models.PayoutWithContext, error) {
	for _, p := range f.payouts {
		if p.MembershipID == membershipID {
			return f.withContext(p), nil
		}
	}
	return nil, nil
}

func (f *fakePayoutStore) ListByCommittee(ctx context.Context, committeeID string) ([]*models.PayoutWithContext, error) {
	out := make([]*models.PayoutWithContext, 0)
	for _, p := range f.payouts {
		wp := f.withContext(p)
		if wp.CommitteeID == committeeID {
			out = append(out, wp)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) ListByMember(ctx context.Context, memberID string) ([]*models.PayoutWithContext, error) {
	out := make([]*models.PayoutWithContext, 0)
	for _, p := range f.payouts {
		wp := f.withContext(p)
		if wp.MemberID == memberID {
			out = append(out, wp)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) UpdatePayout(ctx context.Context, p *models.Payout) error {
	stored := f.payouts[p.ID]
	// Mirrors the SQL: is_confirmed only ever moves to true.
	p.IsConfirmed = p.IsConfirmed || stored.IsConfirmed
	if stored.ConfirmedAt != nil {
		p.ConfirmedAt = stored.ConfirmedAt
	}
	f.payouts[p.ID] = p
	return nil
}

func (f *fakePayoutStore) ConfirmPayout(ctx context.Context, id string) error {
	p := f.payouts[id]
	p.IsConfirmed = true
	if p.ConfirmedAt == nil {
		now := time.Now()
		p.ConfirmedAt = &now
	}
	return nil
}

func (f *fakePayoutStore) DeletePayout(ctx context.Context, id string) error {
	delete(f.payouts, id)
	return nil
}
