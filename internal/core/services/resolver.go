package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
)

// ChargeResolver correlates one changed entry against the counterpart
// user's lookup index and determines the charge state. Resolution is a pure
// function of the entry and the two snapshots: resolving the same pair
// twice yields the same charge.
type ChargeResolver struct {
	user1       domain.User
	user2       domain.User
	user1Lookup *LookupIndex
	user2Lookup *LookupIndex
	fingerprint Fingerprinter
}

// NewChargeResolver wires both users' snapshots into a resolver.
func NewChargeResolver(user1, user2 domain.User, user1Lookup, user2Lookup *LookupIndex, fingerprint Fingerprinter) *ChargeResolver {
	return &ChargeResolver{
		user1:       user1,
		user2:       user2,
		user1Lookup: user1Lookup,
		user2Lookup: user2Lookup,
		fingerprint: fingerprint,
	}
}

// Resolve determines the charge an entry represents, or nil when the entry
// is not relevant to the shared-expense workflow. A non-nil error is only
// returned for malformed split annotations; correlation misses are states,
// not faults.
func (r *ChargeResolver) Resolve(entry domain.Entry) (domain.Charge, error) {
	switch e := entry.(type) {
	case domain.OwedEntry:
		return r.fromRecipientEntry(e)
	case domain.ReferenceEntry:
		return r.fromReferenceEntry(e)
	case domain.PaidEntry:
		return r.fromOwnerEntry(e)
	default:
		return nil, nil
	}
}

// fromOwnerEntry resolves an entry recorded on the paying side.
func (r *ChargeResolver) fromOwnerEntry(entry domain.PaidEntry) (domain.Charge, error) {
	// a split sub-entry stands in for its parent
	if part, ok := entry.(domain.PaidSplitPartEntry); ok {
		parent := r.lookupFor(part.Owner).FindSplitParent(part.ID)
		if parent == nil {
			return nil, nil
		}
		entry = *parent
	}

	counterpart := r.lookupFor(r.otherUser(entry.Base().Owner))
	recipient := counterpart.FindRecipientByFingerprint(r.fingerprint(entry.Base().ID))

	if recipient == nil {
		switch entry.(type) {
		case domain.PaidSplitEntry, domain.PaidTransferEntry:
			return r.buildRecipientIncomplete(entry), nil
		case domain.PaidToSplitEntry:
			return r.buildNew(entry)
		}
		return nil, nil
	}

	recipientBase := recipient.Base()

	if _, deleted := entry.(domain.PaidDeletedEntry); deleted && !recipientBase.Deleted {
		return r.buildOwnerDeleted(entry, recipientBase.ID), nil
	}

	switch entry.(type) {
	case domain.PaidSplitEntry, domain.PaidTransferEntry:
		if recipientBase.Deleted {
			return r.buildRecipientDeleted(entry, recipientBase.ID), nil
		}
		recipientOwed, isAmountKnown := recipientOwedAmount(recipient)
		_, isReference := recipient.(domain.ReferenceEntry)
		if isReference || !isAmountKnown || !recipientOwed.Equal(splitShare(entry)) {
			return r.buildChanged(entry, recipientBase.ID), nil
		}
	case domain.PaidToSplitEntry:
		if recipientBase.Deleted {
			// stale deleted counterpart; treat as brand-new
			return r.buildNew(entry)
		}
		return r.buildOwnerIncomplete(entry, recipientBase)
	}

	return nil, nil
}

// fromRecipientEntry resolves an entry recorded in the shared account,
// correlating back to the owner through the token embedded in the import
// reference.
func (r *ChargeResolver) fromRecipientEntry(entry domain.OwedEntry) (domain.Charge, error) {
	token, ok := utils.FingerprintFromImportRef(entry.ImportRef)
	if !ok {
		return nil, nil
	}

	ownerEntry := r.lookupFor(r.otherUser(entry.Owner)).FindOwnerByFingerprint(token)
	if ownerEntry == nil {
		return nil, nil
	}

	switch ownerEntry.(type) {
	case domain.PaidSplitEntry, domain.PaidTransferEntry:
		paidOwner := ownerEntry.(domain.PaidEntry)
		if entry.Deleted {
			return r.buildRecipientDeleted(paidOwner, entry.ID), nil
		}
		if !entry.Owed.Equal(splitShare(paidOwner)) {
			return r.buildChanged(paidOwner, entry.ID), nil
		}
	case domain.ReferenceEntry:
		// owner reverted their side to a plain line while the recipient
		// still holds a claim
		if !entry.Deleted {
			return r.buildOwnerDeletedFromReference(ownerEntry.(domain.ReferenceEntry), entry.ID), nil
		}
	}

	return nil, nil
}

// fromReferenceEntry resolves an entry whose role is ambiguous: it may be a
// reverted owner side or a provisional recipient record.
func (r *ChargeResolver) fromReferenceEntry(entry domain.ReferenceEntry) (domain.Charge, error) {
	counterpart := r.lookupFor(r.otherUser(entry.Owner))

	if token, ok := utils.FingerprintFromImportRef(entry.ImportRef); ok {
		if owner, isPaid := counterpart.FindOwnerByFingerprint(token).(domain.PaidEntry); isPaid {
			return r.fromOwnerEntry(owner)
		}
	}

	if recipient, isOwed := counterpart.FindRecipientByFingerprint(r.fingerprint(entry.ID)).(domain.OwedEntry); isOwed {
		return r.fromRecipientEntry(recipient)
	}

	return nil, nil
}

func (r *ChargeResolver) buildNew(entry domain.PaidEntry) (domain.Charge, error) {
	base := entry.Base()
	paid := entry.PaidAmount()

	var ownerOwed decimal.Decimal
	if _, transfer := entry.(domain.PaidTransferEntry); !transfer {
		var err error
		if ownerOwed, err = ownerShare(entry); err != nil {
			return nil, err
		}
	}

	return domain.ChargeNew{ChargeBase: domain.ChargeBase{
		ID:            r.fingerprint(base.ID),
		Date:          base.Date,
		Memo:          r.chargeMemo(entry),
		PayeeName:     base.PayeeName,
		Paid:          decimal.NewNullDecimal(paid),
		OwnerOwed:     decimal.NewNullDecimal(ownerOwed),
		RecipientOwed: decimal.NewNullDecimal(paid.Sub(ownerOwed)),
		Owner:         base.Owner,
		Recipient:     r.otherUser(base.Owner),
		OwnerEntryID:  base.ID,
		OwnerCategory: base.Category,
	}}, nil
}

func (r *ChargeResolver) buildRecipientIncomplete(entry domain.PaidEntry) domain.Charge {
	base := entry.Base()
	paid := entry.PaidAmount()
	owed := ownerOwedAmount(entry)
	return domain.ChargeNewIncompleteRecipient{ChargeBase: domain.ChargeBase{
		ID:            r.fingerprint(base.ID),
		Date:          base.Date,
		Memo:          r.chargeMemo(entry),
		PayeeName:     base.PayeeName,
		Paid:          decimal.NewNullDecimal(paid),
		OwnerOwed:     decimal.NewNullDecimal(owed),
		RecipientOwed: decimal.NewNullDecimal(paid.Sub(owed)),
		Owner:         base.Owner,
		Recipient:     r.otherUser(base.Owner),
		OwnerEntryID:  base.ID,
		OwnerCategory: base.Category,
	}}
}

func (r *ChargeResolver) buildOwnerIncomplete(entry domain.PaidEntry, recipient domain.EntryBase) (domain.Charge, error) {
	base := entry.Base()
	paid := entry.PaidAmount()
	ownerOwed, err := ownerShare(entry)
	if err != nil {
		return nil, err
	}
	return domain.ChargeNewIncompleteOwner{
		ChargeBase: domain.ChargeBase{
			ID:            r.fingerprint(base.ID),
			Date:          base.Date,
			Memo:          r.chargeMemo(entry),
			PayeeName:     base.PayeeName,
			Paid:          decimal.NewNullDecimal(paid),
			OwnerOwed:     decimal.NewNullDecimal(ownerOwed),
			RecipientOwed: decimal.NewNullDecimal(paid.Sub(ownerOwed)),
			Owner:         base.Owner,
			Recipient:     recipient.Owner,
			OwnerEntryID:  base.ID,
			OwnerCategory: base.Category,
		},
		RecipientEntryID: recipient.ID,
	}, nil
}

func (r *ChargeResolver) buildChanged(entry domain.PaidEntry, recipientEntryID string) domain.Charge {
	base := entry.Base()
	paid := entry.PaidAmount()
	owed := ownerOwedAmount(entry)
	return domain.ChargeChanged{
		ChargeBase: domain.ChargeBase{
			ID:            r.fingerprint(base.ID),
			Date:          base.Date,
			Memo:          r.chargeMemo(entry),
			PayeeName:     base.PayeeName,
			Paid:          decimal.NewNullDecimal(paid),
			OwnerOwed:     decimal.NewNullDecimal(owed),
			RecipientOwed: decimal.NewNullDecimal(paid.Sub(owed)),
			Owner:         base.Owner,
			Recipient:     r.otherUser(base.Owner),
			OwnerEntryID:  base.ID,
			OwnerCategory: base.Category,
		},
		RecipientEntryID: recipientEntryID,
	}
}

func (r *ChargeResolver) buildRecipientDeleted(entry domain.PaidEntry, recipientEntryID string) domain.Charge {
	base := entry.Base()
	paid := entry.PaidAmount()
	owed := ownerOwedAmount(entry)
	return domain.ChargeRecipientDeleted{
		ChargeBase: domain.ChargeBase{
			ID:            r.fingerprint(base.ID),
			Date:          base.Date,
			Memo:          base.Memo,
			PayeeName:     base.PayeeName,
			Paid:          decimal.NewNullDecimal(paid),
			OwnerOwed:     decimal.NewNullDecimal(owed),
			RecipientOwed: decimal.NewNullDecimal(paid.Sub(owed)),
			Owner:         base.Owner,
			Recipient:     r.otherUser(base.Owner),
			OwnerEntryID:  base.ID,
			OwnerCategory: base.Category,
		},
		RecipientEntryID: recipientEntryID,
	}
}

func (r *ChargeResolver) buildOwnerDeleted(entry domain.PaidEntry, recipientEntryID string) domain.Charge {
	base := entry.Base()
	return domain.ChargeOwnerDeleted{
		ChargeBase: domain.ChargeBase{
			ID:            r.fingerprint(base.ID),
			Date:          base.Date,
			Memo:          base.Memo,
			PayeeName:     base.PayeeName,
			Paid:          decimal.NewNullDecimal(entry.PaidAmount()),
			Owner:         base.Owner,
			Recipient:     r.otherUser(base.Owner),
			OwnerEntryID:  base.ID,
			OwnerCategory: base.Category,
		},
		RecipientEntryID: recipientEntryID,
	}
}

// buildOwnerDeletedFromReference covers the owner side having reverted to a
// plain line: the owner entry still exists but no longer carries a split.
func (r *ChargeResolver) buildOwnerDeletedFromReference(entry domain.ReferenceEntry, recipientEntryID string) domain.Charge {
	return domain.ChargeOwnerDeleted{
		ChargeBase: domain.ChargeBase{
			ID:            r.fingerprint(entry.ID),
			Date:          entry.Date,
			Memo:          entry.Memo,
			PayeeName:     entry.PayeeName,
			Paid:          decimal.NewNullDecimal(entry.Amount),
			Owner:         entry.Owner,
			Recipient:     r.otherUser(entry.Owner),
			OwnerEntryID:  entry.ID,
			OwnerCategory: entry.Category,
		},
		RecipientEntryID: recipientEntryID,
	}
}

// chargeMemo normalizes an owner memo for the charge: the split annotation
// is stripped, an empty memo falls back to the payee name, and a negative
// paid amount appends a refund note naming the payer.
func (r *ChargeResolver) chargeMemo(entry domain.PaidEntry) string {
	base := entry.Base()
	memo := stripSplitAnnotation(base.Memo)
	if memo == "" {
		memo = base.PayeeName
	}
	if entry.PaidAmount().IsNegative() {
		memo += fmt.Sprintf(" (Refund from %s)", base.Owner.Name)
	}
	return memo
}

func (r *ChargeResolver) otherUser(u domain.User) domain.User {
	if u == r.user1 {
		return r.user2
	}
	return r.user1
}

func (r *ChargeResolver) lookupFor(u domain.User) *LookupIndex {
	if u == r.user1 {
		return r.user1Lookup
	}
	return r.user2Lookup
}

// splitShare is what the recipient should owe for an owner entry: the paid
// amount minus the owner's retained share.
func splitShare(entry domain.PaidEntry) decimal.Decimal {
	return entry.PaidAmount().Sub(ownerOwedAmount(entry))
}

// ownerOwedAmount is the owner's retained share. A direct transfer retains
// nothing; the full amount passes through to the recipient.
func ownerOwedAmount(entry domain.PaidEntry) decimal.Decimal {
	if split, ok := entry.(domain.PaidSplitEntry); ok {
		return split.Owed
	}
	return decimal.Zero
}

// recipientOwedAmount extracts the owed amount from a recipient-side entry.
func recipientOwedAmount(entry domain.Entry) (decimal.Decimal, bool) {
	switch e := entry.(type) {
	case domain.OwedEntry:
		return e.Owed, true
	case domain.ReferenceEntry:
		return e.Amount, true
	default:
		return decimal.Zero, false
	}
}
