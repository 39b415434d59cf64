package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	portsrepo "github.com/dnbasta/ynab-split-budget/internal/core/ports/repositories"
	portssvc "github.com/dnbasta/ynab-split-budget/internal/core/ports/services"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
)

// clearedReconciled marks rows already reconciled in the ledger UI; they
// are settled and excluded from the changed set.
const clearedReconciled = "reconciled"

// ReconcileService orchestrates the fetch-classify-resolve-derive-apply
// cycle across both users. It holds no mutable state between cycles; the
// persisted cursors are the only thing carried over.
type ReconcileService struct {
	BaseService
	// cycleMu serializes cursor-writing cycles; the scheduler and the HTTP
	// surface may trigger them concurrently but only one runs at a time.
	cycleMu     sync.Mutex
	user1       domain.User
	user2       domain.User
	ledger1     portsrepo.LedgerRepositoryFacade
	ledger2     portsrepo.LedgerRepositoryFacade
	cursorRepo  portsrepo.CursorRepository
	classifier1 *Classifier
	classifier2 *Classifier
	deriver     *OperationDeriver
	fingerprint Fingerprinter
}

// NewReconcileService wires a reconciler for one user pairing.
func NewReconcileService(
	user1, user2 domain.User,
	ledger1, ledger2 portsrepo.LedgerRepositoryFacade,
	cursorRepo portsrepo.CursorRepository,
	flagColor string,
	fingerprint Fingerprinter,
) *ReconcileService {
	return &ReconcileService{
		user1:       user1,
		user2:       user2,
		ledger1:     ledger1,
		ledger2:     ledger2,
		cursorRepo:  cursorRepo,
		classifier1: NewClassifier(user1, flagColor),
		classifier2: NewClassifier(user2, flagColor),
		deriver:     NewOperationDeriver(),
		fingerprint: fingerprint,
	}
}

var _ portssvc.ReconcilerSvc = (*ReconcileService)(nil)

// Fetch runs the read half of a cycle. Entries whose split annotation is
// malformed are reported in the result's Errors and skipped; all other
// entries still resolve.
func (s *ReconcileService) Fetch(ctx context.Context) (*dto.FetchResult, error) {
	cursors, err := s.cursorRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cursors: %w", err)
	}

	changed1, knowledge1, err := s.fetchChanged(ctx, s.ledger1, s.classifier1, cursors.User1)
	if err != nil {
		return nil, fmt.Errorf("fetching changed rows for %s: %w", s.user1.Name, err)
	}
	changed2, knowledge2, err := s.fetchChanged(ctx, s.ledger2, s.classifier2, cursors.User2)
	if err != nil {
		return nil, fmt.Errorf("fetching changed rows for %s: %w", s.user2.Name, err)
	}

	lookup1, lookup2, err := s.fetchLookback(ctx, changed1, changed2)
	if err != nil {
		return nil, err
	}

	index1 := NewLookupIndex(append(changed1, lookup1...), s.fingerprint)
	index2 := NewLookupIndex(append(changed2, lookup2...), s.fingerprint)
	resolver := NewChargeResolver(s.user1, s.user2, index1, index2, s.fingerprint)

	result := &dto.FetchResult{
		User1: dto.UserFetchResult{Name: s.user1.Name, ServerKnowledge: knowledge1},
		User2: dto.UserFetchResult{Name: s.user2.Name, ServerKnowledge: knowledge2},
	}

	seen := make(map[string]bool)
	for _, entry := range append(changed1, changed2...) {
		charge, err := resolver.Resolve(entry)
		if err != nil {
			s.LogWarn(ctx, "Skipping entry with invalid split annotation",
				slog.String("entry_id", entry.Base().ID),
				slog.String("error", err.Error()))
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if charge == nil || seen[charge.Base().ID] {
			continue
		}
		seen[charge.Base().ID] = true

		if charge.Base().Owner == s.user1 {
			result.User1.Charges = append(result.User1.Charges, charge)
		} else {
			result.User2.Charges = append(result.User2.Charges, charge)
		}
		if op := s.deriver.Derive(charge, s.user1); op != nil {
			result.User1.Operations = append(result.User1.Operations, op)
		}
		if op := s.deriver.Derive(charge, s.user2); op != nil {
			result.User2.Operations = append(result.User2.Operations, op)
		}
	}

	s.LogInfo(ctx, "Fetch cycle complete",
		slog.Int("user1_charges", len(result.User1.Charges)),
		slog.Int("user2_charges", len(result.User2.Charges)),
		slog.Int("user1_operations", len(result.User1.Operations)),
		slog.Int("user2_operations", len(result.User2.Operations)))

	return result, nil
}

// Process runs a full cycle. Writes are applied sequentially per user; any
// non-duplicate failure aborts that user's remaining writes and freezes
// that user's cursor so the next cycle reprocesses the unresolved charges.
// Already-applied writes stay applied: the cycle is at-least-once, and the
// derived operations are idempotent against the ledger.
func (s *ReconcileService) Process(ctx context.Context) (*dto.SessionResult, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	fetched, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	cursors, err := s.cursorRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cursors: %w", err)
	}

	result := &dto.SessionResult{Errors: fetched.Errors}
	result.User1 = s.applyForUser(ctx, s.ledger1, fetched.User1)
	result.User2 = s.applyForUser(ctx, s.ledger2, fetched.User2)

	if result.User1.ApplyError == "" {
		cursors.User1 = fetched.User1.ServerKnowledge
	}
	if result.User2.ApplyError == "" {
		cursors.User2 = fetched.User2.ServerKnowledge
	}
	if err := s.cursorRepo.Store(ctx, cursors); err != nil {
		return nil, fmt.Errorf("storing cursors: %w", err)
	}
	result.User1.ServerKnowledge = cursors.User1
	result.User2.ServerKnowledge = cursors.User2

	if balance1, err := s.ledger1.FetchClearedBalance(ctx); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("balance unavailable for %s: %v", s.user1.Name, err))
	} else {
		result.User1.Balance = balance1
	}
	if balance2, err := s.ledger2.FetchClearedBalance(ctx); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("balance unavailable for %s: %v", s.user2.Name, err))
	} else {
		result.User2.Balance = balance2
	}
	if !result.BalanceMatches() {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"shared account balances do not net to zero: %s (%s) + %s (%s)",
			result.User1.Balance.StringFixed(2), s.user1.Name,
			result.User2.Balance.StringFixed(2), s.user2.Name))
	}

	s.LogInfo(ctx, "Process cycle complete",
		slog.Int("user1_applied", result.User1.OperationsApplied),
		slog.Int("user2_applied", result.User2.OperationsApplied),
		slog.Int("warnings", len(result.Warnings)))

	return result, nil
}

// SyncKnowledge overwrites both cursors with the ledgers' current server
// knowledge. Used on first setup and to skip a backlog deliberately.
func (s *ReconcileService) SyncKnowledge(ctx context.Context) (domain.Cursors, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	knowledge1, err := s.ledger1.FetchServerKnowledge(ctx)
	if err != nil {
		return domain.Cursors{}, fmt.Errorf("fetching server knowledge for %s: %w", s.user1.Name, err)
	}
	knowledge2, err := s.ledger2.FetchServerKnowledge(ctx)
	if err != nil {
		return domain.Cursors{}, fmt.Errorf("fetching server knowledge for %s: %w", s.user2.Name, err)
	}
	cursors := domain.Cursors{User1: knowledge1, User2: knowledge2}
	if err := s.cursorRepo.Store(ctx, cursors); err != nil {
		return domain.Cursors{}, fmt.Errorf("storing cursors: %w", err)
	}
	return cursors, nil
}

// Balances fetches both users' shared-account cleared balances without
// touching cursors or issuing any write.
func (s *ReconcileService) Balances(ctx context.Context) (*dto.BalanceResult, error) {
	balance1, err := s.ledger1.FetchClearedBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching cleared balance for %s: %w", s.user1.Name, err)
	}
	balance2, err := s.ledger2.FetchClearedBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching cleared balance for %s: %w", s.user2.Name, err)
	}
	return &dto.BalanceResult{
		User1:   dto.UserBalance{Name: s.user1.Name, Balance: balance1},
		User2:   dto.UserBalance{Name: s.user2.Name, Balance: balance2},
		Matches: balance1.Add(balance2).IsZero(),
	}, nil
}

func (s *ReconcileService) fetchChanged(ctx context.Context, ledger portsrepo.LedgerReader, classifier *Classifier, cursor int64) ([]domain.Entry, int64, error) {
	rows, knowledge, err := ledger.FetchChanged(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		if row.Cleared == clearedReconciled {
			continue
		}
		if !s.validRowDate(ctx, row) {
			continue
		}
		entries = append(entries, classifier.Classify(row))
	}
	return entries, knowledge, nil
}

// validRowDate guards the classifier's date parse. A row with a mangled
// date would classify with a zero time and drag the lookback window back to
// year one.
func (s *ReconcileService) validRowDate(ctx context.Context, row dto.LedgerRow) bool {
	if _, err := time.Parse("2006-01-02", row.Date); err != nil {
		s.LogWarn(ctx, "Skipping row with unparseable date",
			slog.String("row_id", row.ID),
			slog.String("date", row.Date))
		return false
	}
	return true
}

// fetchLookback widens each user's snapshot to the oldest date seen among
// both users' changed entries, so a lagging counterpart is still found.
func (s *ReconcileService) fetchLookback(ctx context.Context, changed1, changed2 []domain.Entry) ([]domain.Entry, []domain.Entry, error) {
	if len(changed1)+len(changed2) == 0 {
		return nil, nil, nil
	}

	combined := NewLookupIndex(append(append([]domain.Entry{}, changed1...), changed2...), s.fingerprint)
	since := combined.OldestDate()

	rows1, err := s.ledger1.FetchSince(ctx, since)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching lookback rows for %s: %w", s.user1.Name, err)
	}
	rows2, err := s.ledger2.FetchSince(ctx, since)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching lookback rows for %s: %w", s.user2.Name, err)
	}

	lookup1 := make([]domain.Entry, 0, len(rows1))
	for _, row := range rows1 {
		if s.validRowDate(ctx, row) {
			lookup1 = append(lookup1, s.classifier1.Classify(row))
		}
	}
	lookup2 := make([]domain.Entry, 0, len(rows2))
	for _, row := range rows2 {
		if s.validRowDate(ctx, row) {
			lookup2 = append(lookup2, s.classifier2.Classify(row))
		}
	}
	return lookup1, lookup2, nil
}

func (s *ReconcileService) applyForUser(ctx context.Context, ledger portsrepo.LedgerWriter, fetched dto.UserFetchResult) dto.UserSessionResult {
	result := dto.UserSessionResult{
		Name:         fetched.Name,
		ChargesFound: len(fetched.Charges),
	}
	for _, op := range fetched.Operations {
		if err := s.applyOperation(ctx, ledger, op); err != nil {
			s.LogError(ctx, err, "Aborting remaining writes for user",
				slog.String("user", fetched.Name),
				slog.Int("applied", result.OperationsApplied))
			result.ApplyError = err.Error()
			return result
		}
		result.OperationsApplied++
	}
	return result
}

func (s *ReconcileService) applyOperation(ctx context.Context, ledger portsrepo.LedgerWriter, op domain.Operation) error {
	switch o := op.(type) {
	case domain.InsertOperation:
		return ledger.ApplyInsert(ctx, o)
	case domain.UpdateOperation:
		return ledger.ApplyUpdate(ctx, o)
	case domain.SplitOperation:
		return ledger.ApplySplit(ctx, o)
	case domain.DeleteOperation:
		return ledger.ApplyDelete(ctx, o)
	default:
		return fmt.Errorf("unhandled operation type %T", op)
	}
}
