package entry

import (
	"context"

	"tally/internal/core/apperror"
	"tally/internal/core/sequence"
	"tally/internal/domain/journal"
)

// Allocation is the outcome of assigning a number in a sequence chain.
type Allocation struct {
	Name    string
	Prefix  string
	Number  int64
	MadeGap bool
}

// Allocator produces the next gapless document number for an entry within
// its (journal, prefix) chain and validates manually chosen names against
// the chain format.
type Allocator struct {
	repo Repository
}

// NewAllocator creates an allocator over the entry store.
func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// partitionTypes selects which document types share the entry's chain.
// Journals splitting refund or payment numbering carve those types out into
// their own chains; everything else counts together.
func partitionTypes(e *JournalEntry, j *journal.Journal) []DocType {
	switch {
	case j.RefundSequence && e.IsRefund():
		return []DocType{DocRefund}
	case j.PaymentSequence && e.IsPayment():
		return []DocType{DocPayment}
	default:
		types := []DocType{DocEntry, DocInvoice}
		if !j.RefundSequence {
			types = append(types, DocRefund)
		}
		if !j.PaymentSequence {
			types = append(types, DocPayment)
		}
		return types
	}
}

// chainFormat deduces the chain format from the most recent prior named
// entry of the journal partition, re-periodized for the entry's date.
// ok is false for a brand-new chain.
func (a *Allocator) chainFormat(ctx context.Context, e *JournalEntry, j *journal.Journal, fs sequence.FiscalSettings, docTypes []DocType) (sequence.Format, bool, error) {
	last, err := a.repo.LastNamed(ctx, j.ID, docTypes)
	if err != nil {
		return sequence.Format{}, false, err
	}
	if last == nil {
		return sequence.Format{}, false, nil
	}
	if override := j.Override(); override != "" {
		f, err := sequence.OverrideFormat(override, last.Name)
		if err != nil {
			// Existing names no longer match the override; start fresh.
			return sequence.Format{}, false, nil
		}
		return f, true, nil
	}
	f, ok := sequence.Classify(last.Name)
	if !ok {
		return sequence.Format{}, false, nil
	}
	return f.ForDate(e.Date, fs), true, nil
}

// startingFormat builds the format of a chain's very first entry from the
// journal code and the entry date. Bank and cash journals count monthly.
func (a *Allocator) startingFormat(e *JournalEntry, j *journal.Journal, fs sequence.FiscalSettings) (sequence.Format, error) {
	monthly := j.JournalType == journal.TypeBank || j.JournalType == journal.TypeCash
	name := sequence.StartingName(e.Date, sequence.StartingOptions{
		Code:    j.Code,
		Refund:  j.RefundSequence && e.IsRefund(),
		Payment: j.PaymentSequence && e.IsPayment(),
		Monthly: monthly,
		Fiscal:  fs,
	})
	f, ok := sequence.Classify(name)
	if !ok {
		return sequence.Format{}, apperror.NewInternal(nil).
			WithDetail("reason", "starting template did not classify").
			WithDetail("template", name)
	}
	return f, nil
}

// NextSequence assigns the next number of the entry's chain. Must run
// inside the posting transaction: it locks the chain's highest entry before
// reading, serializing allocation per chain.
func (a *Allocator) NextSequence(ctx context.Context, e *JournalEntry, j *journal.Journal, fs sequence.FiscalSettings) (Allocation, error) {
	docTypes := partitionTypes(e, j)

	f, found, err := a.chainFormat(ctx, e, j, fs, docTypes)
	if err != nil {
		return Allocation{}, err
	}
	if !found {
		if f, err = a.startingFormat(e, j, fs); err != nil {
			return Allocation{}, err
		}
	}

	prefix := f.SequencePrefix()
	start, end := f.PeriodBounds(e.Date, fs)
	q := ChainQuery{
		JournalID: j.ID,
		Prefix:    prefix,
		DateStart: start,
		DateEnd:   end,
		DocTypes:  docTypes,
	}

	highest, err := a.repo.LockChain(ctx, q)
	if err != nil {
		return Allocation{}, err
	}
	var number int64 = 1
	if highest != nil {
		number = highest.SequenceNumber + 1
	}

	madeGap, err := a.checkGap(ctx, q, number)
	if err != nil {
		return Allocation{}, err
	}

	return Allocation{
		Name:    f.Render(number),
		Prefix:  prefix,
		Number:  number,
		MadeGap: madeGap,
	}, nil
}

// CheckManualName decomposes a user-chosen name, flags contiguity breaks,
// and collects advisory warnings: format drift against the chain format, and
// backwards numbering outside quick-edit mode.
func (a *Allocator) CheckManualName(ctx context.Context, e *JournalEntry, j *journal.Journal, fs sequence.FiscalSettings, quickEdit bool) (Allocation, Warnings, error) {
	docTypes := partitionTypes(e, j)

	var f sequence.Format
	var ok bool
	if override := j.Override(); override != "" {
		var err error
		if f, err = sequence.OverrideFormat(override, e.Name); err != nil {
			return Allocation{}, nil, apperror.NewValidation(err.Error()).
				WithDetail("field", "name")
		}
		ok = true
	} else {
		f, ok = sequence.Classify(e.Name)
	}
	if !ok {
		return Allocation{}, nil, apperror.NewValidation("name has no sequence number").
			WithDetail("field", "name").
			WithDetail("value", e.Name)
	}

	var warnings Warnings

	chain, found, err := a.chainFormat(ctx, e, j, fs, docTypes)
	if err != nil {
		return Allocation{}, nil, err
	}
	if found && chain.Reset != f.Reset {
		warnings.Add(WarningSequenceFormatMismatch, e,
			"name %q does not follow the %s format of its journal sequence", e.Name, chain.Reset)
	}

	prefix := f.SequencePrefix()
	start, end := f.PeriodBounds(e.Date, fs)
	q := ChainQuery{
		JournalID: j.ID,
		Prefix:    prefix,
		DateStart: start,
		DateEnd:   end,
		DocTypes:  docTypes,
	}

	highest, err := a.repo.LockChain(ctx, q)
	if err != nil {
		return Allocation{}, nil, err
	}
	if highest != nil && highest.ID != e.ID && f.Seq <= highest.SequenceNumber && !quickEdit {
		warnings.Add(WarningBackwardsNumbering, e,
			"name %q is not above the chain's latest %q", e.Name, highest.Name)
	}

	madeGap, err := a.checkGap(ctx, q, f.Seq)
	if err != nil {
		return Allocation{}, nil, err
	}

	return Allocation{
		Name:    e.Name,
		Prefix:  prefix,
		Number:  f.Seq,
		MadeGap: madeGap,
	}, warnings, nil
}

// LockChain takes the row lock of the chain an already-numbered entry
// belongs to, serializing it with concurrent allocations on the same chain.
func (a *Allocator) LockChain(ctx context.Context, e *JournalEntry, j *journal.Journal, fs sequence.FiscalSettings) error {
	f, ok := sequence.Classify(e.Name)
	if !ok {
		return nil
	}
	start, end := f.PeriodBounds(e.Date, fs)
	_, err := a.repo.LockChain(ctx, ChainQuery{
		JournalID: j.ID,
		Prefix:    e.SequencePrefix,
		DateStart: start,
		DateEnd:   end,
		DocTypes:  partitionTypes(e, j),
	})
	return err
}

// checkGap reports whether assigning number breaks contiguity: true when
// number-1 is absent from the chain's committed numbers. Runs inside the
// chain lock, so only committed history counts.
func (a *Allocator) checkGap(ctx context.Context, q ChainQuery, number int64) (bool, error) {
	if number <= 1 {
		return false, nil
	}
	numbers, err := a.repo.ChainNumbers(ctx, q)
	if err != nil {
		return false, err
	}
	return !numbers[number-1], nil
}
