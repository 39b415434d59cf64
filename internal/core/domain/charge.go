package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeBase holds the fields shared by every charge variant. ID is the
// fingerprint of the owner's original entry id and is stable across
// resolutions of the same underlying entry; it is never regenerated.
//
// Paid, OwnerOwed and RecipientOwed are NullDecimals because not every
// variant carries them: once the owner side is deleted only the recipient's
// claim is known.
type ChargeBase struct {
	ID            string              `json:"id"`
	Date          time.Time           `json:"date"`
	Memo          string              `json:"memo"`
	PayeeName     string              `json:"payeeName"`
	Paid          decimal.NullDecimal `json:"paid"`
	OwnerOwed     decimal.NullDecimal `json:"ownerOwed"`
	RecipientOwed decimal.NullDecimal `json:"recipientOwed"`
	Owner         User                `json:"owner"`
	Recipient     User                `json:"recipient"`
	OwnerEntryID  string              `json:"ownerEntryID"` // empty when the owner side is gone
	OwnerCategory *Category           `json:"ownerCategory"`
}

// Charge is the sealed set of resolved shared-expense states.
type Charge interface {
	Base() ChargeBase
}

// ChargeNew is a brand-new shared expense with nothing correlated on either
// side yet.
type ChargeNew struct {
	ChargeBase
}

// ChargeNewIncompleteRecipient means the owner has already split while the
// recipient has no record yet.
type ChargeNewIncompleteRecipient struct {
	ChargeBase
}

// ChargeNewIncompleteOwner means the owner has flagged the expense for
// splitting but not yet split it, while the recipient already holds a
// provisional record.
type ChargeNewIncompleteOwner struct {
	ChargeBase
	RecipientEntryID string `json:"recipientEntryID"`
}

// ChargeChanged means both sides are correlated but the recipient's owed
// amount no longer matches the owner's split.
type ChargeChanged struct {
	ChargeBase
	RecipientEntryID string `json:"recipientEntryID"`
}

// ChargeOwnerDeleted means the owner side was deleted or reverted while the
// recipient still holds a claim.
type ChargeOwnerDeleted struct {
	ChargeBase
	RecipientEntryID string `json:"recipientEntryID"`
}

// ChargeRecipientDeleted means the recipient deleted their side while the
// owner's split still stands.
type ChargeRecipientDeleted struct {
	ChargeBase
	RecipientEntryID string `json:"recipientEntryID"`
}

func (c ChargeNew) Base() ChargeBase                 { return c.ChargeBase }
func (c ChargeNewIncompleteRecipient) Base() ChargeBase { return c.ChargeBase }
func (c ChargeNewIncompleteOwner) Base() ChargeBase  { return c.ChargeBase }
func (c ChargeChanged) Base() ChargeBase             { return c.ChargeBase }
func (c ChargeOwnerDeleted) Base() ChargeBase        { return c.ChargeBase }
func (c ChargeRecipientDeleted) Base() ChargeBase    { return c.ChargeBase }
