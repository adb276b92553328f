package integrity

import (
	"tally/internal/core/apperror"
	"tally/internal/domain/entry"
)

// ChainWarning is a condition detected while gathering chain state.
// Gap and NoDocument block normal posting but can be overridden in recovery
// mode; Unreconciled always blocks.
type ChainWarning string

const (
	WarnGap          ChainWarning = "gap"
	WarnUnreconciled ChainWarning = "unreconciled"
	WarnNoDocument   ChainWarning = "no_document"
)

// ChainInfo is the hashing state of one (journal, prefix) chain, gathered
// under the chain lock.
type ChainInfo struct {
	JournalID int64
	Prefix    string

	// PreviousHash is the stored hash of the last hashed entry, "" for a
	// fresh chain.
	PreviousHash string

	// LastHashedNumber / LastSecureNumber are taken from the last hashed
	// entry, 0 for a fresh chain.
	LastHashedNumber int64
	LastSecureNumber int64

	// MovesToHash are the posted, unhashed entries to extend the chain
	// with, ascending by sequence number.
	MovesToHash []*entry.JournalEntry

	// Remaining are posted entries above the requested number, left for a
	// later extension.
	Remaining []*entry.JournalEntry

	Warnings map[ChainWarning]bool
}

// buildChainInfo partitions the chain's posted entries around the last
// hashed number and the requested upper bound, and detects the warning
// conditions.
func buildChainInfo(journalID int64, prefix string, all []*entry.JournalEntry, lastHashed *entry.JournalEntry, upTo int64) *ChainInfo {
	info := &ChainInfo{
		JournalID: journalID,
		Prefix:    prefix,
		Warnings:  make(map[ChainWarning]bool),
	}
	if lastHashed != nil {
		info.PreviousHash = *lastHashed.InalterableHash
		info.LastHashedNumber = lastHashed.SequenceNumber
		info.LastSecureNumber = lastHashed.SecureSequenceNumber
	}

	for _, e := range all {
		if e.State != entry.StatePosted || e.IsHashed() {
			continue
		}
		if e.SequenceNumber <= info.LastHashedNumber {
			continue
		}
		if e.SequenceNumber > upTo {
			info.Remaining = append(info.Remaining, e)
			continue
		}
		info.MovesToHash = append(info.MovesToHash, e)
		if unreconciled(e) {
			info.Warnings[WarnUnreconciled] = true
		}
	}

	if len(info.MovesToHash) == 0 {
		info.Warnings[WarnNoDocument] = true
		return info
	}

	// The candidates must continue the chain without holes:
	// lastHashed+1 .. max, one entry per number.
	expected := info.LastHashedNumber + 1
	for _, e := range info.MovesToHash {
		if e.SequenceNumber != expected {
			info.Warnings[WarnGap] = true
			break
		}
		expected++
	}

	return info
}

// unreconciled reports whether the entry carries a bank statement line that
// has not been settled yet. Cash-basis tax correctness depends on it.
func unreconciled(e *entry.JournalEntry) bool {
	for _, l := range e.Lines {
		if l.StatementLineID != nil && !l.Reconciled {
			return true
		}
	}
	return false
}

// CalculateHashes walks the ordered entries and computes each chain link
// from its predecessor. Input out of ascending sequence order is rejected,
// never silently reordered. Returns stored-form hashes keyed by entry id.
func CalculateHashes(ordered []*entry.JournalEntry, previousHash string, version int, decimalPlaces entry.DecimalPlaces) (map[int64]string, error) {
	prev := StripVersionTag(previousHash)
	out := make(map[int64]string, len(ordered))

	var lastNumber int64 = -1
	for _, e := range ordered {
		if lastNumber >= 0 && e.SequenceNumber <= lastNumber {
			return nil, apperror.NewValidation("entries must be hashed in ascending sequence order").
				WithDetail("entry", e.Name).
				WithDetail("sequenceNumber", e.SequenceNumber)
		}
		lastNumber = e.SequenceNumber

		stored, err := HashEntry(prev, e, version, decimalPlaces(e.CompanyID))
		if err != nil {
			return nil, err
		}
		out[e.ID] = stored
		prev = StripVersionTag(stored)
	}
	return out, nil
}
