package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation is one corrective write instruction derived from a Charge,
// targeted at exactly one user's ledger. Operations carry no ownership over
// external state; they are pure instructions for the ledger client.
type Operation interface {
	TargetUser() User
}

// InsertOperation creates the recipient's share entry in the shared account.
// FingerprintID seeds the import reference used for cross-ledger
// correlation and ledger-side duplicate detection.
type InsertOperation struct {
	Owner         User            `json:"owner"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Payee         string          `json:"payee"`
	Memo          string          `json:"memo"`
	FingerprintID string          `json:"fingerprintID"`
}

// SplitOperation rewrites the owner's entry into a transfer-portion
// sub-entry and an owed-portion sub-entry retaining the original category.
type SplitOperation struct {
	Owner      User            `json:"owner"`
	EntryID    string          `json:"entryID"`
	Paid       decimal.Decimal `json:"paid"`
	Owed       decimal.Decimal `json:"owed"`
	Payee      string          `json:"payee"`
	Memo       string          `json:"memo"`
	CategoryID string          `json:"categoryID"`
}

// UpdateOperation corrects an existing recipient entry in place.
type UpdateOperation struct {
	Owner   User            `json:"owner"`
	EntryID string          `json:"entryID"`
	Amount  decimal.Decimal `json:"amount"`
	Date    time.Time       `json:"date"`
	Memo    string          `json:"memo"`
	Payee   string          `json:"payee"`
}

// DeleteOperation removes an orphaned recipient entry.
type DeleteOperation struct {
	Owner   User   `json:"owner"`
	EntryID string `json:"entryID"`
}

func (o InsertOperation) TargetUser() User { return o.Owner }
func (o SplitOperation) TargetUser() User  { return o.Owner }
func (o UpdateOperation) TargetUser() User { return o.Owner }
func (o DeleteOperation) TargetUser() User { return o.Owner }
