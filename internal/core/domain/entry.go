package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryBase holds the fields shared by every ledger entry variant.
// Amounts are decimal currency units, already converted from the ledger's
// milliunit representation with the outflow sign flipped.
type EntryBase struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Memo      string    `json:"memo"`
	PayeeName string    `json:"payeeName"`
	PayeeID   string    `json:"payeeID"`
	ImportRef string    `json:"importRef"` // opaque cross-ledger correlation string, empty when absent
	Deleted   bool      `json:"deleted"`
	Category  *Category `json:"category"`
	Owner     User      `json:"owner"`
}

// Entry is the sealed set of ledger entry variants. Exactly one variant
// describes a given raw row; classification is total over all inputs.
type Entry interface {
	Base() EntryBase
}

// PaidEntry groups the variants recorded on the paying user's side.
type PaidEntry interface {
	Entry
	PaidAmount() decimal.Decimal
}

// OwedEntry is recorded in the shared split account itself.
type OwedEntry struct {
	EntryBase
	Owed decimal.Decimal `json:"owed"`
}

// ReferenceEntry is a plain ledger line with no split or transfer signal.
type ReferenceEntry struct {
	EntryBase
	Amount decimal.Decimal `json:"amount"`
}

// PaidToSplitEntry is flagged for splitting but not yet split.
type PaidToSplitEntry struct {
	EntryBase
	Paid decimal.Decimal `json:"paid"`
}

// PaidTransferEntry is a direct transfer into the shared split account.
type PaidTransferEntry struct {
	EntryBase
	Paid decimal.Decimal `json:"paid"`
}

// PaidSplitEntry has been split into a shared-portion sub-entry and one or
// more owner-portion sub-entries. TransferEntryID is the id of the linked
// transfer created inside the shared account.
type PaidSplitEntry struct {
	EntryBase
	Paid            decimal.Decimal `json:"paid"`
	Owed            decimal.Decimal `json:"owed"`
	SubTransferID   string          `json:"subTransferID"`
	SubOwedID       string          `json:"subOwedID"`
	TransferEntryID string          `json:"transferEntryID"`
}

// PaidSplitPartEntry is one sub-entry of a split parent. It must be resolved
// back to its PaidSplitEntry parent before processing.
type PaidSplitPartEntry struct {
	EntryBase
	Paid decimal.Decimal `json:"paid"`
}

// PaidDeletedEntry is a paid entry that has been deleted or voided.
type PaidDeletedEntry struct {
	EntryBase
	Paid decimal.Decimal `json:"paid"`
}

func (e OwedEntry) Base() EntryBase          { return e.EntryBase }
func (e ReferenceEntry) Base() EntryBase     { return e.EntryBase }
func (e PaidToSplitEntry) Base() EntryBase   { return e.EntryBase }
func (e PaidTransferEntry) Base() EntryBase  { return e.EntryBase }
func (e PaidSplitEntry) Base() EntryBase     { return e.EntryBase }
func (e PaidSplitPartEntry) Base() EntryBase { return e.EntryBase }
func (e PaidDeletedEntry) Base() EntryBase   { return e.EntryBase }

func (e PaidToSplitEntry) PaidAmount() decimal.Decimal   { return e.Paid }
func (e PaidTransferEntry) PaidAmount() decimal.Decimal  { return e.Paid }
func (e PaidSplitEntry) PaidAmount() decimal.Decimal     { return e.Paid }
func (e PaidSplitPartEntry) PaidAmount() decimal.Decimal { return e.Paid }
func (e PaidDeletedEntry) PaidAmount() decimal.Decimal   { return e.Paid }
