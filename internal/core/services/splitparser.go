package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dnbasta/ynab-split-budget/internal/apperrors"
	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
)

// splitAnnotationRe matches the share annotation a user may embed in a
// memo: "@25%" (percentage of the paid amount) or "@12.50" (absolute share
// in currency units).
var splitAnnotationRe = regexp.MustCompile(`@(\d+(?:\.\d+)?)(%?)`)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// ownerShare computes the owner's share of a paid amount from the memo
// annotation. Without an annotation the split is an even 50/50. Out-of-range
// annotations are user authoring errors and fail loudly with the entry's
// full context.
func ownerShare(entry domain.PaidEntry) (decimal.Decimal, error) {
	base := entry.Base()
	paid := entry.PaidAmount()

	m := splitAnnotationRe.FindStringSubmatch(base.Memo)
	if m == nil {
		return paid.Div(two).Round(2), nil
	}

	value, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, fmt.Errorf("share %q unreadable for entry %s: %w",
			m[0], entryContext(base, paid), apperrors.ErrSplitInvalid)
	}

	if m[2] == "%" {
		if value.GreaterThan(hundred) {
			return decimal.Zero, fmt.Errorf("split is above 100%% for entry %s: %w",
				entryContext(base, paid), apperrors.ErrSplitInvalid)
		}
		return paid.Mul(value).Div(hundred).Round(2), nil
	}

	if value.GreaterThan(paid.Abs()) {
		return decimal.Zero, fmt.Errorf("split is above total amount of %s for entry %s: %w",
			paid.StringFixed(2), entryContext(base, paid), apperrors.ErrSplitInvalid)
	}
	if paid.IsNegative() {
		return value.Neg(), nil
	}
	return value, nil
}

// stripSplitAnnotation removes the share annotation from a memo.
func stripSplitAnnotation(memo string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(splitAnnotationRe.ReplaceAllString(memo, "")), " "))
}

func entryContext(base domain.EntryBase, paid decimal.Decimal) string {
	return fmt.Sprintf("[%s | %s | %s | %s]",
		base.Date.Format("2006-01-02"), base.PayeeName, paid.StringFixed(2), base.Memo)
}
