package services

import (
	"strings"
	"time"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
)

// Fingerprinter derives the stable correlation token for an entry id. It
// must be deterministic and collision-free for practical purposes.
type Fingerprinter func(id string) string

// LookupIndex is a read-only view over a snapshot of one user's entries,
// supporting reverse lookup by fingerprint and by embedded reference token.
// Entries are never mutated through the index.
type LookupIndex struct {
	entries     []domain.Entry
	fingerprint Fingerprinter
}

// NewLookupIndex builds an index over the given snapshot.
func NewLookupIndex(entries []domain.Entry, fingerprint Fingerprinter) *LookupIndex {
	return &LookupIndex{entries: entries, fingerprint: fingerprint}
}

// FindOwnerByFingerprint returns the entry whose own id fingerprints to the
// given token, or nil.
func (l *LookupIndex) FindOwnerByFingerprint(token string) domain.Entry {
	for _, e := range l.entries {
		if l.fingerprint(e.Base().ID) == token {
			return e
		}
	}
	return nil
}

// FindRecipientByFingerprint returns the entry whose import reference
// contains the given token, or nil.
func (l *LookupIndex) FindRecipientByFingerprint(token string) domain.Entry {
	for _, e := range l.entries {
		if ref := e.Base().ImportRef; ref != "" && strings.Contains(ref, token) {
			return e
		}
	}
	return nil
}

// FindSplitParent resolves a split sub-entry back to its PaidSplit parent
// through the parent's embedded transfer link.
func (l *LookupIndex) FindSplitParent(transferEntryID string) *domain.PaidSplitEntry {
	for _, e := range l.entries {
		if split, ok := e.(domain.PaidSplitEntry); ok && split.TransferEntryID == transferEntryID {
			return &split
		}
	}
	return nil
}

// OldestDate returns the minimum date across all entries. An empty snapshot
// yields tomorrow, the sentinel for "no lookback needed".
func (l *LookupIndex) OldestDate() time.Time {
	if len(l.entries) == 0 {
		return time.Now().AddDate(0, 0, 1)
	}
	oldest := l.entries[0].Base().Date
	for _, e := range l.entries[1:] {
		if d := e.Base().Date; d.Before(oldest) {
			oldest = d
		}
	}
	return oldest
}
