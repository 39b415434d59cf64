package services

import (
	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
)

// OperationDeriver maps a resolved charge onto the corrective write one
// user's ledger needs. For every charge variant at most one of the two
// users receives an operation, except ChargeNew which produces exactly one
// for each side; the empty cells of the table are how double-processing is
// prevented structurally.
type OperationDeriver struct{}

// NewOperationDeriver returns the deriver.
func NewOperationDeriver() *OperationDeriver {
	return &OperationDeriver{}
}

// Derive returns the operation the given user's ledger needs for the
// charge, or nil when that user is unaffected.
func (d *OperationDeriver) Derive(charge domain.Charge, user domain.User) domain.Operation {
	switch c := charge.(type) {
	case domain.ChargeNew:
		if c.Owner == user {
			return d.split(c.ChargeBase)
		}
		return d.insert(c.ChargeBase)
	case domain.ChargeNewIncompleteRecipient:
		if c.Owner != user {
			return d.insert(c.ChargeBase)
		}
	case domain.ChargeNewIncompleteOwner:
		if c.Owner == user {
			return d.split(c.ChargeBase)
		}
		return d.update(c.ChargeBase, c.RecipientEntryID)
	case domain.ChargeChanged:
		if c.Owner != user {
			return d.update(c.ChargeBase, c.RecipientEntryID)
		}
	case domain.ChargeOwnerDeleted:
		if c.Owner != user {
			return domain.DeleteOperation{
				Owner:   c.Recipient,
				EntryID: c.RecipientEntryID,
			}
		}
	case domain.ChargeRecipientDeleted:
		if c.Owner != user {
			return d.insert(c.ChargeBase)
		}
	}
	return nil
}

func (d *OperationDeriver) insert(c domain.ChargeBase) domain.Operation {
	return domain.InsertOperation{
		Owner:         c.Recipient,
		Amount:        c.OwnerOwed.Decimal.Neg(),
		Date:          c.Date,
		Payee:         c.PayeeName,
		Memo:          c.Memo,
		FingerprintID: c.ID,
	}
}

func (d *OperationDeriver) split(c domain.ChargeBase) domain.Operation {
	categoryID := ""
	if c.OwnerCategory != nil {
		categoryID = c.OwnerCategory.ID
	}
	return domain.SplitOperation{
		Owner:      c.Owner,
		EntryID:    c.OwnerEntryID,
		Paid:       c.Paid.Decimal,
		Owed:       c.OwnerOwed.Decimal,
		Payee:      c.PayeeName,
		Memo:       c.Memo,
		CategoryID: categoryID,
	}
}

func (d *OperationDeriver) update(c domain.ChargeBase, recipientEntryID string) domain.Operation {
	return domain.UpdateOperation{
		Owner:   c.Recipient,
		EntryID: recipientEntryID,
		Amount:  c.RecipientOwed.Decimal.Neg(),
		Date:    c.Date,
		Memo:    c.Memo,
		Payee:   c.PayeeName,
	}
}
