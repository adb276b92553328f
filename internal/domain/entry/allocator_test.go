package entry

import (
	"context"
	"testing"
	"time"

	"tally/internal/core/sequence"
)

// seed stores a named posted entry directly, bypassing the service.
func (f *fixture) seed(t *testing.T, journalID int64, date time.Time, name string) *JournalEntry {
	t.Helper()
	e := balanced(journalID, date, "100")
	e.Normalize()
	e.State = StatePosted
	e.PostedBefore = true
	e.Name = name
	fm, ok := sequence.Classify(name)
	if !ok {
		t.Fatalf("seed name %q does not classify", name)
	}
	e.SequencePrefix = fm.SequencePrefix()
	e.SequenceNumber = fm.Seq
	if err := f.repo.Create(context.Background(), e); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return e
}

func (f *fixture) next(t *testing.T, e *JournalEntry) Allocation {
	t.Helper()
	ctx := context.Background()
	j, err := f.journals.GetByID(ctx, e.JournalID)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	alloc, err := f.svc.allocator.NextSequence(ctx, e, j, f.companies[1].Fiscal())
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	return alloc
}

func TestNextSequenceFirstEntry(t *testing.T) {
	f := newFixture()
	alloc := f.next(t, NewJournalEntry(1, 1, day(2024, 1, 15)))

	if alloc.Name != "INV/2024/00001" {
		t.Errorf("name = %q, want INV/2024/00001", alloc.Name)
	}
	if alloc.Number != 1 || alloc.MadeGap {
		t.Errorf("number=%d gap=%v", alloc.Number, alloc.MadeGap)
	}
}

func TestNextSequenceFirstEntryBankIsMonthly(t *testing.T) {
	f := newFixture()
	e := NewJournalEntry(1, 2, day(2024, 3, 10))
	alloc := f.next(t, e)

	if alloc.Name != "BNK1/2024/03/0001" {
		t.Errorf("name = %q, want BNK1/2024/03/0001", alloc.Name)
	}
}

func TestNextSequenceContinuesChain(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 10), "INV/2024/01/0005")

	alloc := f.next(t, NewJournalEntry(1, 1, day(2024, 1, 20)))
	if alloc.Name != "INV/2024/01/0006" {
		t.Errorf("same month continues: got %q", alloc.Name)
	}
}

func TestNextSequenceMonthlyRollover(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 10), "INV/2024/01/0005")

	alloc := f.next(t, NewJournalEntry(1, 1, day(2024, 2, 3)))
	if alloc.Name != "INV/2024/02/0001" {
		t.Errorf("new month restarts at 1: got %q", alloc.Name)
	}
	if alloc.MadeGap {
		t.Error("a fresh period is not a gap")
	}
}

func TestNextSequenceRefundPartition(t *testing.T) {
	f := newFixture()
	f.seed(t, 3, day(2024, 1, 10), "RSL/2024/00009")

	refund := NewJournalEntry(1, 3, day(2024, 1, 20))
	refund.DocType = DocRefund
	alloc := f.next(t, refund)

	if alloc.Name != "RRSL/2024/00001" {
		t.Errorf("refunds start their own chain: got %q", alloc.Name)
	}

	// The main chain is unaffected by the refund chain.
	invoice := NewJournalEntry(1, 3, day(2024, 1, 21))
	invoice.DocType = DocInvoice
	if alloc := f.next(t, invoice); alloc.Name != "RSL/2024/00010" {
		t.Errorf("main chain continues: got %q", alloc.Name)
	}
}

func TestNextSequencePaymentPartition(t *testing.T) {
	f := newFixture()
	payment := NewJournalEntry(1, 2, day(2024, 5, 2))
	payment.DocType = DocPayment
	alloc := f.next(t, payment)

	if alloc.Name != "PBNK1/2024/05/0001" {
		t.Errorf("payments get the P prefix: got %q", alloc.Name)
	}
}

func TestNextSequenceLocksChain(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 10), "INV/2024/00001")
	f.next(t, NewJournalEntry(1, 1, day(2024, 1, 20)))

	if len(f.repo.locks) == 0 {
		t.Fatal("allocation must lock the chain")
	}
	q := f.repo.locks[len(f.repo.locks)-1]
	if q.Prefix != "INV/2024/" || q.JournalID != 1 {
		t.Errorf("locked %+v", q)
	}
}

func TestNextSequenceAfterForcedGap(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 5), "INV/2024/00001")
	three := f.seed(t, 1, day(2024, 1, 12), "INV/2024/00003")

	// Numbers {1,3}: the next allocation takes 4, and 3 being present means
	// the new entry did not break contiguity itself.
	alloc := f.next(t, NewJournalEntry(1, 1, day(2024, 1, 20)))
	if alloc.Number != 4 {
		t.Fatalf("number = %d, want 4", alloc.Number)
	}
	if alloc.MadeGap {
		t.Error("number 3 exists, the new entry made no gap")
	}
	_ = three
}

func TestCheckManualNameGapFlag(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 5), "INV/2024/00001")

	ctx := context.Background()
	e := NewJournalEntry(1, 1, day(2024, 1, 20))
	e.Name = "INV/2024/00003"
	j, _ := f.journals.GetByID(ctx, 1)

	alloc, _, err := f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), false)
	if err != nil {
		t.Fatalf("CheckManualName: %v", err)
	}
	if !alloc.MadeGap {
		t.Error("skipping number 2 must flag the gap")
	}
}

func TestCheckManualNameBackwardsWarning(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 5), "INV/2024/00005")

	ctx := context.Background()
	e := NewJournalEntry(1, 1, day(2024, 1, 20))
	e.Name = "INV/2024/00003"
	j, _ := f.journals.GetByID(ctx, 1)

	_, warnings, err := f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), false)
	if err != nil {
		t.Fatalf("CheckManualName: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != WarningBackwardsNumbering {
		t.Fatalf("expected backwards warning, got %v", warnings)
	}

	// quick-edit mode suppresses it
	_, warnings, err = f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), true)
	if err != nil {
		t.Fatalf("CheckManualName: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("quick edit suppresses the warning, got %v", warnings)
	}
}

func TestCheckManualNameFormatMismatchWarning(t *testing.T) {
	f := newFixture()
	f.seed(t, 1, day(2024, 1, 5), "INV/2024/00005")

	ctx := context.Background()
	e := NewJournalEntry(1, 1, day(2024, 1, 20))
	e.Name = "INV/2024/01/0001"
	j, _ := f.journals.GetByID(ctx, 1)

	_, warnings, err := f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), true)
	if err != nil {
		t.Fatalf("CheckManualName: %v", err)
	}
	found := false
	for _, w := range warnings {
		if w.Code == WarningSequenceFormatMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("monthly name on a yearly chain must warn, got %v", warnings)
	}
}

func TestCheckManualNameOverrideRegex(t *testing.T) {
	f := newFixture()
	pattern := `^(?P<prefix>CTR-)(?P<seq>\d{4})$`
	j, _ := f.journals.GetByID(context.Background(), 1)
	j.SequenceOverrideRegex = &pattern

	ctx := context.Background()
	e := NewJournalEntry(1, 1, day(2024, 1, 20))
	e.Name = "CTR-0042"

	alloc, _, err := f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), true)
	if err != nil {
		t.Fatalf("CheckManualName: %v", err)
	}
	if alloc.Prefix != "CTR-" || alloc.Number != 42 {
		t.Errorf("got prefix=%q number=%d", alloc.Prefix, alloc.Number)
	}

	e.Name = "INV/2024/00001"
	if _, _, err := f.svc.allocator.CheckManualName(ctx, e, j, f.companies[1].Fiscal(), true); err == nil {
		t.Error("names outside the override regex are rejected")
	}
}
