package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/core/services"
	"github.com/dnbasta/ynab-split-budget/internal/dto"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
)

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FetchChanged(ctx context.Context, sinceKnowledge int64) ([]dto.LedgerRow, int64, error) {
	args := m.Called(ctx, sinceKnowledge)
	var rows []dto.LedgerRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]dto.LedgerRow)
	}
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) FetchSince(ctx context.Context, since time.Time) ([]dto.LedgerRow, error) {
	args := m.Called(ctx, since)
	var rows []dto.LedgerRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]dto.LedgerRow)
	}
	return rows, args.Error(1)
}

func (m *MockLedgerRepository) FetchClearedBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) FetchServerKnowledge(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) ApplyInsert(ctx context.Context, op domain.InsertOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyUpdate(ctx context.Context, op domain.UpdateOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplySplit(ctx context.Context, op domain.SplitOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyDelete(ctx context.Context, op domain.DeleteOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

// MockCursorRepository is a mock type for the CursorRepository interface
type MockCursorRepository struct {
	mock.Mock
}

func (m *MockCursorRepository) Load(ctx context.Context) (domain.Cursors, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Cursors), args.Error(1)
}

func (m *MockCursorRepository) Store(ctx context.Context, cursors domain.Cursors) error {
	args := m.Called(ctx, cursors)
	return args.Error(0)
}

type ReconcileServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	ledger1    *MockLedgerRepository
	ledger2    *MockLedgerRepository
	cursorRepo *MockCursorRepository
	svc        *services.ReconcileService
}

func (s *ReconcileServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger1 = new(MockLedgerRepository)
	s.ledger2 = new(MockLedgerRepository)
	s.cursorRepo = new(MockCursorRepository)
	s.svc = services.NewReconcileService(alice, bob, s.ledger1, s.ledger2, s.cursorRepo, "", utils.Fingerprint)
}

func flaggedRow(id string, amount int64) dto.LedgerRow {
	return dto.LedgerRow{
		ID:        id,
		Date:      "2024-03-14",
		Amount:    amount,
		Cleared:   "cleared",
		FlagColor: strPtr("purple"),
		AccountID: "checking-alice",
		PayeeName: strPtr("Supermarket"),
	}
}

func (s *ReconcileServiceTestSuite) expectNoLookbackRows() {
	s.ledger1.On("FetchSince", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	s.ledger2.On("FetchSince", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
}

func (s *ReconcileServiceTestSuite) TestFetch_NewCharge() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{User1: 10, User2: 20}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(10)).Return([]dto.LedgerRow{flaggedRow("e1", -40000)}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(20)).Return(nil, int64(222), nil)
	s.expectNoLookbackRows()

	result, err := s.svc.Fetch(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(result.User1.Charges, 1)
	s.IsType(domain.ChargeNew{}, result.User1.Charges[0])
	s.Require().Len(result.User1.Operations, 1)
	s.IsType(domain.SplitOperation{}, result.User1.Operations[0])
	s.Require().Len(result.User2.Operations, 1)
	s.IsType(domain.InsertOperation{}, result.User2.Operations[0])
	s.Equal(int64(111), result.User1.ServerKnowledge)
	s.Equal(int64(222), result.User2.ServerKnowledge)
	s.Empty(result.Errors)
}

func (s *ReconcileServiceTestSuite) TestFetch_SkipsReconciledRows() {
	row := flaggedRow("e1", -40000)
	row.Cleared = "reconciled"
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return([]dto.LedgerRow{row}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(222), nil)

	result, err := s.svc.Fetch(s.ctx)

	s.Require().NoError(err)
	s.Empty(result.User1.Charges)
	s.Empty(result.User1.Operations)
	s.ledger1.AssertNotCalled(s.T(), "FetchSince", mock.Anything, mock.Anything)
}

func (s *ReconcileServiceTestSuite) TestFetch_InvalidAnnotationSkipsEntryOnly() {
	bad := flaggedRow("e1", -40000)
	bad.Memo = strPtr("dinner @150%")
	good := flaggedRow("e2", -30000)
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return([]dto.LedgerRow{bad, good}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(222), nil)
	s.expectNoLookbackRows()

	result, err := s.svc.Fetch(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0], "above 100%")
	s.Len(result.User1.Charges, 1, "the valid entry still resolves")
}

func (s *ReconcileServiceTestSuite) TestFetch_DeduplicatesChargeSeenFromBothSides() {
	// the same mismatched pair surfaces in both users' changed sets; the
	// charge must resolve once and yield a single corrective write
	ownerRow := dto.LedgerRow{
		ID:        "e1",
		Date:      "2024-03-14",
		Amount:    -50000,
		Cleared:   "cleared",
		AccountID: "checking-alice",
		PayeeName: strPtr("Supermarket"),
		Subtransactions: []dto.SubRow{
			{ID: "st-own", Amount: -25000},
			{
				ID:                    "st-xfer",
				Amount:                -25000,
				PayeeID:               strPtr(alice.SplitTransferPayeeID),
				TransferAccountID:     strPtr(alice.SplitAccountID),
				TransferTransactionID: strPtr("xfer-9"),
			},
		},
	}
	recipientRow := dto.LedgerRow{
		ID:        "b1",
		Date:      "2024-03-14",
		Amount:    -15000,
		Cleared:   "cleared",
		AccountID: bob.SplitAccountID,
		ImportID:  strPtr(utils.ImportRefFromFingerprint(utils.Fingerprint("e1"))),
	}
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return([]dto.LedgerRow{ownerRow}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return([]dto.LedgerRow{recipientRow}, int64(222), nil)
	s.expectNoLookbackRows()

	result, err := s.svc.Fetch(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(result.User1.Charges, 1)
	s.IsType(domain.ChargeChanged{}, result.User1.Charges[0])
	s.Empty(result.User1.Operations)
	s.Require().Len(result.User2.Operations, 1, "one corrective update, not one per side")
	update := result.User2.Operations[0].(domain.UpdateOperation)
	s.Equal("b1", update.EntryID)
	assertDecimal(s.T(), "-25", update.Amount)
}

func (s *ReconcileServiceTestSuite) TestProcess_TwoExpensesSettleToZero() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{User1: 10, User2: 20}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(10)).
		Return([]dto.LedgerRow{flaggedRow("e1", -50000), flaggedRow("e2", -30000)}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(20)).Return(nil, int64(222), nil)
	s.expectNoLookbackRows()

	var splits []domain.SplitOperation
	s.ledger1.On("ApplySplit", mock.Anything, mock.AnythingOfType("domain.SplitOperation")).
		Run(func(args mock.Arguments) {
			splits = append(splits, args.Get(1).(domain.SplitOperation))
		}).Return(nil)
	var inserts []domain.InsertOperation
	s.ledger2.On("ApplyInsert", mock.Anything, mock.AnythingOfType("domain.InsertOperation")).
		Run(func(args mock.Arguments) {
			inserts = append(inserts, args.Get(1).(domain.InsertOperation))
		}).Return(nil)
	s.cursorRepo.On("Store", mock.Anything, domain.Cursors{User1: 111, User2: 222}).Return(nil)
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("40"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("-40"), nil)

	result, err := s.svc.Process(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, result.User1.OperationsApplied)
	s.Equal(2, result.User2.OperationsApplied)
	s.Equal(int64(111), result.User1.ServerKnowledge)
	s.Equal(int64(222), result.User2.ServerKnowledge)

	s.Require().Len(splits, 2)
	assertDecimal(s.T(), "25", splits[0].Owed, "even split of 50")
	assertDecimal(s.T(), "15", splits[1].Owed, "even split of 30")
	s.Require().Len(inserts, 2)
	assertDecimal(s.T(), "-25", inserts[0].Amount)
	assertDecimal(s.T(), "-15", inserts[1].Amount)

	s.True(result.BalanceMatches(), "shared balances cancel after both sides apply")
	s.Empty(result.Warnings)
	s.cursorRepo.AssertExpectations(s.T())
}

func (s *ReconcileServiceTestSuite) TestProcess_ApplyFailureFreezesCursor() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{User1: 10, User2: 20}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(10)).
		Return([]dto.LedgerRow{flaggedRow("e1", -40000)}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(20)).Return(nil, int64(222), nil)
	s.expectNoLookbackRows()

	s.ledger1.On("ApplySplit", mock.Anything, mock.Anything).Return(nil)
	s.ledger2.On("ApplyInsert", mock.Anything, mock.Anything).Return(errors.New("ledger unavailable"))
	// the failed side keeps its old cursor so the charge is reprocessed
	s.cursorRepo.On("Store", mock.Anything, domain.Cursors{User1: 111, User2: 20}).Return(nil)
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("20"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("0"), nil)

	result, err := s.svc.Process(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, result.User1.OperationsApplied)
	s.Equal(0, result.User2.OperationsApplied)
	s.Contains(result.User2.ApplyError, "ledger unavailable")
	s.Equal(int64(20), result.User2.ServerKnowledge)
	s.False(result.BalanceMatches())
	s.NotEmpty(result.Warnings, "half-applied charge leaves the balances off")
	s.cursorRepo.AssertExpectations(s.T())
}

func (s *ReconcileServiceTestSuite) TestProcess_BalanceMismatchWarns() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(222), nil)
	s.cursorRepo.On("Store", mock.Anything, domain.Cursors{User1: 111, User2: 222}).Return(nil)
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("10"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("-5"), nil)

	result, err := s.svc.Process(s.ctx)

	s.Require().NoError(err)
	s.False(result.BalanceMatches())
	s.Require().Len(result.Warnings, 1)
	s.Contains(result.Warnings[0], "net to zero")
}

func (s *ReconcileServiceTestSuite) TestFetch_SkipsUnparseableDates() {
	mangled := flaggedRow("e1", -40000)
	mangled.Date = "14.03.2024"
	good := flaggedRow("e2", -30000)
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return([]dto.LedgerRow{mangled, good}, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(222), nil)
	// the lookback window starts at the good row's date, not year one
	goodDate := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	s.ledger1.On("FetchSince", mock.Anything, goodDate).Return(nil, nil)
	s.ledger2.On("FetchSince", mock.Anything, goodDate).Return(nil, nil)

	result, err := s.svc.Fetch(s.ctx)

	s.Require().NoError(err)
	s.Len(result.User1.Charges, 1, "only the well-formed row resolves")
	s.ledger1.AssertExpectations(s.T())
	s.ledger2.AssertExpectations(s.T())
}

func (s *ReconcileServiceTestSuite) TestBalances() {
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("25"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("-25"), nil)

	result, err := s.svc.Balances(s.ctx)

	s.Require().NoError(err)
	s.Equal("Alice", result.User1.Name)
	s.Equal("Bob", result.User2.Name)
	assertDecimal(s.T(), "25", result.User1.Balance)
	assertDecimal(s.T(), "-25", result.User2.Balance)
	s.True(result.Matches)
	s.cursorRepo.AssertNotCalled(s.T(), "Load", mock.Anything)
	s.cursorRepo.AssertNotCalled(s.T(), "Store", mock.Anything, mock.Anything)
}

func (s *ReconcileServiceTestSuite) TestBalances_Mismatch() {
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("25"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("-10"), nil)

	result, err := s.svc.Balances(s.ctx)

	s.Require().NoError(err)
	s.False(result.Matches)
}

func (s *ReconcileServiceTestSuite) TestBalances_FetchFailure() {
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(decimal.Zero, errors.New("ledger unavailable"))

	result, err := s.svc.Balances(s.ctx)

	s.Require().Error(err)
	s.Nil(result)
	s.Contains(err.Error(), "Alice")
}

// Cycles can be triggered by the scheduler and the HTTP surface at the same
// time; they must run one after the other, never interleaved on the cursor
// file.
func (s *ReconcileServiceTestSuite) TestProcess_SerializesConcurrentCycles() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, nil)
	s.ledger1.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(111), nil)
	s.ledger2.On("FetchChanged", mock.Anything, int64(0)).Return(nil, int64(222), nil)
	s.ledger1.On("FetchClearedBalance", mock.Anything).Return(dec("0"), nil)
	s.ledger2.On("FetchClearedBalance", mock.Anything).Return(dec("0"), nil)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	s.cursorRepo.On("Store", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			entered <- struct{}{}
			<-release
		}).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Process(s.ctx)
			s.NoError(err)
		}()
	}

	<-entered
	select {
	case <-entered:
		s.Fail("second cycle reached the cursor store while the first was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	s.cursorRepo.AssertNumberOfCalls(s.T(), "Store", 2)
}

func (s *ReconcileServiceTestSuite) TestSyncKnowledge() {
	s.ledger1.On("FetchServerKnowledge", mock.Anything).Return(int64(555), nil)
	s.ledger2.On("FetchServerKnowledge", mock.Anything).Return(int64(777), nil)
	s.cursorRepo.On("Store", mock.Anything, domain.Cursors{User1: 555, User2: 777}).Return(nil)

	cursors, err := s.svc.SyncKnowledge(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.Cursors{User1: 555, User2: 777}, cursors)
	s.cursorRepo.AssertExpectations(s.T())
}

func (s *ReconcileServiceTestSuite) TestFetch_CursorLoadFailurePropagates() {
	s.cursorRepo.On("Load", mock.Anything).Return(domain.Cursors{}, errors.New("corrupt state file"))

	result, err := s.svc.Fetch(s.ctx)

	s.Require().Error(err)
	s.Nil(result)
	s.Contains(err.Error(), "corrupt state file")
}

func TestReconcileService(t *testing.T) {
	suite.Run(t, new(ReconcileServiceTestSuite))
}
