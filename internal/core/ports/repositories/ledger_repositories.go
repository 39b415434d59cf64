package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
)

// LedgerReader fetches raw rows from one user's ledger.
type LedgerReader interface {
	// FetchChanged returns every row changed since the given server
	// knowledge, together with the new knowledge value.
	FetchChanged(ctx context.Context, sinceKnowledge int64) ([]dto.LedgerRow, int64, error)
	// FetchSince returns every row dated on or after since, regardless of
	// change state. Used to build the lookback window.
	FetchSince(ctx context.Context, since time.Time) ([]dto.LedgerRow, error)
	// FetchClearedBalance returns the shared account's cleared balance in
	// currency units.
	FetchClearedBalance(ctx context.Context) (decimal.Decimal, error)
	// FetchServerKnowledge returns the ledger's current server knowledge
	// without fetching rows.
	FetchServerKnowledge(ctx context.Context) (int64, error)
}

// LedgerWriter applies corrective operations to one user's ledger.
// ApplyInsert must treat a ledger-side duplicate import token as success.
type LedgerWriter interface {
	ApplyInsert(ctx context.Context, op domain.InsertOperation) error
	ApplyUpdate(ctx context.Context, op domain.UpdateOperation) error
	ApplySplit(ctx context.Context, op domain.SplitOperation) error
	ApplyDelete(ctx context.Context, op domain.DeleteOperation) error
}

// LedgerRepositoryFacade combines read and write access to one user's
// ledger.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// CursorRepository persists the per-user sync cursors across cycles. Store
// must replace the whole record atomically; partial writes are not allowed.
type CursorRepository interface {
	Load(ctx context.Context) (domain.Cursors, error)
	Store(ctx context.Context, cursors domain.Cursors) error
}
