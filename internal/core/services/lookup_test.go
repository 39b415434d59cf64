package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
	"github.com/dnbasta/ynab-split-budget/internal/core/services"
	"github.com/dnbasta/ynab-split-budget/internal/utils"
)

func TestLookupIndex_FindOwnerByFingerprint(t *testing.T) {
	entry := domain.PaidSplitEntry{EntryBase: entryBase("e1", alice, ""), Paid: dec("40"), Owed: dec("20")}
	idx := services.NewLookupIndex([]domain.Entry{entry}, utils.Fingerprint)

	found := idx.FindOwnerByFingerprint(utils.Fingerprint("e1"))
	require.NotNil(t, found)
	assert.Equal(t, "e1", found.Base().ID)

	assert.Nil(t, idx.FindOwnerByFingerprint(utils.Fingerprint("other")))
}

func TestLookupIndex_FindRecipientByFingerprint(t *testing.T) {
	token := utils.Fingerprint("e1")
	match := owedCounterpart("b1", "e1", bob, "20")
	noise := domain.ReferenceEntry{EntryBase: entryBase("b2", bob, ""), Amount: dec("3")}
	idx := services.NewLookupIndex([]domain.Entry{noise, match}, utils.Fingerprint)

	found := idx.FindRecipientByFingerprint(token)
	require.NotNil(t, found)
	assert.Equal(t, "b1", found.Base().ID)

	assert.Nil(t, idx.FindRecipientByFingerprint(utils.Fingerprint("unknown")))
}

func TestLookupIndex_FindSplitParent(t *testing.T) {
	parent := domain.PaidSplitEntry{EntryBase: entryBase("e1", alice, ""), TransferEntryID: "xfer-9"}
	idx := services.NewLookupIndex([]domain.Entry{parent}, utils.Fingerprint)

	found := idx.FindSplitParent("xfer-9")
	require.NotNil(t, found)
	assert.Equal(t, "e1", found.ID)

	assert.Nil(t, idx.FindSplitParent("xfer-0"))
}

func TestLookupIndex_OldestDate(t *testing.T) {
	older := entryBase("e1", alice, "")
	older.Date = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	newer := entryBase("e2", alice, "")
	newer.Date = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	idx := services.NewLookupIndex([]domain.Entry{
		domain.ReferenceEntry{EntryBase: newer},
		domain.ReferenceEntry{EntryBase: older},
	}, utils.Fingerprint)

	assert.Equal(t, older.Date, idx.OldestDate())
}

func TestLookupIndex_OldestDateEmptySnapshot(t *testing.T) {
	idx := services.NewLookupIndex(nil, utils.Fingerprint)

	assert.True(t, idx.OldestDate().After(time.Now()), "empty snapshot needs no lookback")
}
