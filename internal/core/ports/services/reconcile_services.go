package services

import (
	"context"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
)

// ReconcilerSvc drives reconciliation cycles across both users' ledgers.
type ReconcilerSvc interface {
	// Fetch runs the read half of a cycle: classify, resolve and derive,
	// without issuing any write.
	Fetch(ctx context.Context) (*dto.FetchResult, error)
	// Process runs a full cycle: Fetch, apply the derived operations per
	// user, advance cursors for users whose writes all succeeded, and
	// report balances.
	Process(ctx context.Context) (*dto.SessionResult, error)
	// SyncKnowledge overwrites both cursors with the ledgers' current
	// server knowledge without processing anything.
	SyncKnowledge(ctx context.Context) (domain.Cursors, error)
	// Balances reports both users' shared-account cleared balances
	// without running a cycle.
	Balances(ctx context.Context) (*dto.BalanceResult, error)
}
