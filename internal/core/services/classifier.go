package services

import (
	"time"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
	"github.com/dnbasta/ynab-split-budget/internal/utils/accounting"
)

// DefaultFlagColor is the marker color that flags an entry for splitting
// when no other color is configured.
const DefaultFlagColor = "purple"

// Classifier converts raw ledger rows of one user into typed Entry
// variants. It is a pure function over its input; classification never
// fails and always yields exactly one variant.
type Classifier struct {
	user      domain.User
	flagColor string
}

// NewClassifier builds a classifier for the given user. An empty flagColor
// falls back to DefaultFlagColor.
func NewClassifier(user domain.User, flagColor string) *Classifier {
	if flagColor == "" {
		flagColor = DefaultFlagColor
	}
	return &Classifier{user: user, flagColor: flagColor}
}

// Classify maps one raw row onto its Entry variant. Decision order, first
// match wins:
//
//  1. row sits in the shared account with no transfer link -> Owed
//  2. deleted and carrying any split signal -> PaidDeleted
//  3. multiple sub-entries, one transferring to the shared account -> PaidSplit
//  4. split-flag color set -> PaidToSplit
//  5. direct transfer link to the shared account -> PaidTransfer
//  6. anything else -> Reference
func (c *Classifier) Classify(row dto.LedgerRow) domain.Entry {
	hasSubs := len(row.Subtransactions) > 1
	hasTransfer := c.hasTransferToSplit(row)
	hasFlag := row.FlagColor != nil && *row.FlagColor == c.flagColor
	isOwed := row.AccountID == c.user.SplitAccountID && row.TransferAccountID == nil

	switch {
	case isOwed:
		return domain.OwedEntry{
			EntryBase: c.base(row),
			Owed:      accounting.FromMilliunits(row.Amount),
		}
	case row.Deleted && (hasSubs || hasFlag || hasTransfer):
		return domain.PaidDeletedEntry{
			EntryBase: c.base(row),
			Paid:      accounting.FromMilliunits(row.Amount),
		}
	case hasSubs && hasTransfer:
		return c.classifySplit(row)
	case hasFlag:
		return domain.PaidToSplitEntry{
			EntryBase: c.base(row),
			Paid:      accounting.FromMilliunits(row.Amount),
		}
	case hasTransfer:
		e := domain.PaidTransferEntry{
			EntryBase: c.base(row),
			Paid:      accounting.FromMilliunits(row.Amount),
		}
		e.Category = nil
		return e
	default:
		return domain.ReferenceEntry{
			EntryBase: c.base(row),
			Amount:    accounting.FromMilliunits(row.Amount),
		}
	}
}

func (c *Classifier) classifySplit(row dto.LedgerRow) domain.Entry {
	var transfer *dto.SubRow
	for i := range row.Subtransactions {
		st := &row.Subtransactions[i]
		if dto.StringOrEmpty(st.PayeeID) == c.user.SplitTransferPayeeID {
			transfer = st
			break
		}
	}
	if transfer == nil {
		// transfer link exists but not through the split payee; treat as
		// a plain reference line rather than guessing a sub-entry
		return domain.ReferenceEntry{
			EntryBase: c.base(row),
			Amount:    accounting.FromMilliunits(row.Amount),
		}
	}

	var owedMilliunits int64
	subOwedID := ""
	for _, st := range row.Subtransactions {
		if st.ID == transfer.ID {
			continue
		}
		owedMilliunits += st.Amount
		if subOwedID == "" {
			subOwedID = st.ID
		}
	}

	base := c.base(row)
	base.Category = &domain.Category{
		ID:   dto.StringOrEmpty(transfer.CategoryID),
		Name: utils.StripEmojis(dto.StringOrEmpty(transfer.CategoryName)),
	}

	return domain.PaidSplitEntry{
		EntryBase:       base,
		Paid:            accounting.FromMilliunits(row.Amount),
		Owed:            accounting.FromMilliunits(owedMilliunits),
		SubTransferID:   transfer.ID,
		SubOwedID:       subOwedID,
		TransferEntryID: dto.StringOrEmpty(transfer.TransferTransactionID),
	}
}

func (c *Classifier) base(row dto.LedgerRow) domain.EntryBase {
	base := domain.EntryBase{
		ID:        row.ID,
		Memo:      dto.StringOrEmpty(row.Memo),
		PayeeName: dto.StringOrEmpty(row.PayeeName),
		PayeeID:   dto.StringOrEmpty(row.PayeeID),
		ImportRef: dto.StringOrEmpty(row.ImportID),
		Deleted:   row.Deleted,
		Owner:     c.user,
	}
	if d, err := time.Parse("2006-01-02", row.Date); err == nil {
		base.Date = d
	}
	if row.CategoryID != nil {
		base.Category = &domain.Category{
			ID:   *row.CategoryID,
			Name: utils.StripEmojis(dto.StringOrEmpty(row.CategoryName)),
		}
	}
	return base
}

// hasTransferToSplit reports whether the row or one of its sub-entries
// transfers into the user's shared account.
func (c *Classifier) hasTransferToSplit(row dto.LedgerRow) bool {
	if len(row.Subtransactions) > 1 {
		for _, st := range row.Subtransactions {
			if dto.StringOrEmpty(st.TransferAccountID) == c.user.SplitAccountID {
				return true
			}
		}
		return false
	}
	return dto.StringOrEmpty(row.TransferAccountID) == c.user.SplitAccountID
}
