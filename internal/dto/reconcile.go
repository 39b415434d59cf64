package dto

import (
	"github.com/shopspring/decimal"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
)

// UserFetchResult bundles everything resolved for one user in a cycle:
// the charges discovered, the operations their ledger needs, and the server
// knowledge the cursor may advance to once those operations are applied.
type UserFetchResult struct {
	Name            string             `json:"name"`
	Charges         []domain.Charge    `json:"charges"`
	Operations      []domain.Operation `json:"operations"`
	ServerKnowledge int64              `json:"serverKnowledge"`
}

// FetchResult is the outcome of the fetch-classify-resolve-derive half of a
// cycle, before any write is issued. Errors carries malformed-annotation
// messages for entries that were skipped; they do not abort the cycle.
type FetchResult struct {
	User1  UserFetchResult `json:"user1"`
	User2  UserFetchResult `json:"user2"`
	Errors []string        `json:"errors,omitempty"`
}

// UserBalance is one user's cleared balance in the shared account.
type UserBalance struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceResult reports both users' shared-account cleared balances and
// whether they cancel out, without running a cycle.
type BalanceResult struct {
	User1   UserBalance `json:"user1"`
	User2   UserBalance `json:"user2"`
	Matches bool        `json:"matches"`
}

// UserSessionResult reports the apply phase for one user.
type UserSessionResult struct {
	Name              string          `json:"name"`
	ChargesFound      int             `json:"chargesFound"`
	OperationsApplied int             `json:"operationsApplied"`
	ServerKnowledge   int64           `json:"serverKnowledge"`
	Balance           decimal.Decimal `json:"balance"`
	ApplyError        string          `json:"applyError,omitempty"`
}

// SessionResult is the aggregate outcome of one full reconciliation cycle.
// Warnings holds non-fatal conditions such as a shared-account balance
// mismatch; the caller decides whether to escalate them.
type SessionResult struct {
	User1    UserSessionResult `json:"user1"`
	User2    UserSessionResult `json:"user2"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
}

// BalanceMatches reports whether both users' cleared balances in the shared
// account cancel out.
func (r SessionResult) BalanceMatches() bool {
	return r.User1.Balance.Add(r.User2.Balance).IsZero()
}
