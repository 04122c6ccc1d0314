// Package authz centralises every permission rule in the system. Handlers and
// services never compare user IDs inline; they ask this package and act on the
// returned decision. Each rule takes the acting user plus the loaded resource
// context, so a denial here is always about relationships, not missing rows.
package authz

import (
	"github.com/committee-registry/committee-registry/internal/db/models"
)

// Decision is the outcome of a policy check. Reason is set only on denial and
// is safe to return to the client.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanCreateCommittee permits only approved organizer accounts to open a committee
func CanCreateCommittee(actor *models.User) Decision {
	if !actor.IsOrganizer {
		return deny("only organizers can create committees")
	}
	if !actor.IsApproved {
		return deny("organizer account is not approved yet")
	}
	return allow()
}

// CanManageCommittee permits writes to a committee by its organizer only.
// Covers update and delete, and gates every nested ledger mutation below.
func CanManageCommittee(actor *models.User, committee *models.Committee) Decision {
	if committee.OrganizerID != actor.ID {
		return deny("only the committee organizer can modify it")
	}
	return allow()
}

// CanViewCommitteeLedger permits the organizer and any member whose membership
// row exists, regardless of its status. A membership of nil means the actor
// never belonged to the committee. Committee records themselves are readable
// by any authenticated identity; this gate covers the ledgers nested under a
// committee, not the committee row.
func CanViewCommitteeLedger(actor *models.User, committee *models.Committee, membership *models.Membership) Decision {
	if committee.OrganizerID == actor.ID {
		return allow()
	}
	if membership != nil {
		return allow()
	}
	return deny("not a member of this committee")
}

// CanListMembers follows the committee ledger visibility rule
func CanListMembers(actor *models.User, committee *models.Committee, membership *models.Membership) Decision {
	return CanViewCommitteeLedger(actor, committee, membership)
}

// CanAddMember permits only the organizer to add members
func CanAddMember(actor *models.User, committee *models.Committee) Decision {
	return CanManageCommittee(actor, committee)
}

// CanUpdateMembership decides who may move a membership to newStatus. The
// organizer can set any status. A member can only set their own membership to
// LEFT; rejoining or removal is the organizer's call.
func CanUpdateMembership(actor *models.User, committee *models.Committee, membership *models.Membership, newStatus string) Decision {
	if committee.OrganizerID == actor.ID {
		return allow()
	}
	if membership.MemberID != actor.ID {
		return deny("cannot modify another member's membership")
	}
	if newStatus != models.MembershipStatusLeft {
		return deny("members can only leave a committee, not change status to " + newStatus)
	}
	return allow()
}

// CanRemoveMembership permits only the organizer to delete membership rows
func CanRemoveMembership(actor *models.User, committee *models.Committee) Decision {
	return CanManageCommittee(actor, committee)
}

// CanViewContribution permits the committee organizer and the contributing member
func CanViewContribution(actor *models.User, contribution *models.ContributionWithContext) Decision {
	if contribution.OrganizerID == actor.ID {
		return allow()
	}
	if contribution.MemberID == actor.ID {
		return allow()
	}
	return deny("contribution belongs to another member")
}

// CanListContributions permits the committee organizer and the membership's
// own member to read the membership's contribution history. Other members of
// the same committee cannot browse each other's payments.
func CanListContributions(actor *models.User, committee *models.Committee, membership *models.Membership) Decision {
	if committee.OrganizerID == actor.ID {
		return allow()
	}
	if membership.MemberID == actor.ID {
		return allow()
	}
	return deny("contributions belong to another member")
}

// CanRecordContribution permits the organizer to record for anyone in the
// committee, and a member to record against their own membership.
func CanRecordContribution(actor *models.User, committee *models.Committee, membership *models.Membership) Decision {
	if committee.OrganizerID == actor.ID {
		return allow()
	}
	if membership.MemberID == actor.ID {
		return allow()
	}
	return deny("cannot record a contribution for another member")
}

// CanUpdateContribution permits the committee organizer and the contributing
// member to amend payment details.
func CanUpdateContribution(actor *models.User, contribution *models.ContributionWithContext) Decision {
	if contribution.OrganizerID == actor.ID {
		return allow()
	}
	if contribution.MemberID == actor.ID {
		return allow()
	}
	return deny("contribution belongs to another member")
}

// CanVerifyContribution permits only the committee organizer to flip the
// verification flag.
func CanVerifyContribution(actor *models.User, contribution *models.ContributionWithContext) Decision {
	if contribution.OrganizerID != actor.ID {
		return deny("only the committee organizer can verify contributions")
	}
	return allow()
}

// CanDeleteContribution permits the committee organizer and the contributing member
func CanDeleteContribution(actor *models.User, contribution *models.ContributionWithContext) Decision {
	if contribution.OrganizerID == actor.ID {
		return allow()
	}
	if contribution.MemberID == actor.ID {
		return allow()
	}
	return deny("contribution belongs to another member")
}

// CanCreatePayout permits only the committee organizer to disburse a payout
func CanCreatePayout(actor *models.User, committee *models.Committee) Decision {
	return CanManageCommittee(actor, committee)
}

// CanViewPayout permits the committee organizer and the receiving member
func CanViewPayout(actor *models.User, payout *models.PayoutWithContext) Decision {
	if payout.OrganizerID == actor.ID {
		return allow()
	}
	if payout.MemberID == actor.ID {
		return allow()
	}
	return deny("payout belongs to another member")
}

// PayoutChanges names the field groups touched by a payout update so the
// policy can distinguish a member's confirmation from an organizer edit.
type PayoutChanges struct {
	Disbursement bool // total_amount, received_by, received_in_cash
	Confirming   bool // is_confirmed set to true
	Unconfirming bool // is_confirmed set to false
}

// CanUpdatePayout decides a payout update. The organizer may edit any field,
// confirmation included; the receiving member's side channel is limited to
// setting is_confirmed to true. Nobody revokes a confirmation.
func CanUpdatePayout(actor *models.User, payout *models.PayoutWithContext, changes PayoutChanges) Decision {
	if changes.Unconfirming {
		return deny("a confirmed payout cannot be unconfirmed")
	}
	if payout.OrganizerID == actor.ID {
		return allow()
	}
	if payout.MemberID == actor.ID {
		if changes.Disbursement {
			return deny("members can only confirm receipt, not edit payout details")
		}
		return allow()
	}
	return deny("payout belongs to another member")
}

// CanConfirmPayout permits only the committee organizer to run the confirm
// action. The receiving member acknowledges receipt through update instead.
func CanConfirmPayout(actor *models.User, payout *models.PayoutWithContext) Decision {
	if payout.OrganizerID != actor.ID {
		return deny("only the committee organizer can confirm a payout")
	}
	return allow()
}

// CanDeletePayout permits only the committee organizer
func CanDeletePayout(actor *models.User, payout *models.PayoutWithContext) Decision {
	if payout.OrganizerID != actor.ID {
		return deny("only the committee organizer can delete payouts")
	}
	return allow()
}
