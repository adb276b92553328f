package entry

import (
	"testing"

	"tally/internal/core/apperror"
)

func twoPlaces(int64) int { return 2 }

func TestCheckBalancedOK(t *testing.T) {
	e := balanced(1, day(2024, 1, 15), "100.00")
	e.Normalize()
	if err := CheckBalanced([]*JournalEntry{e}, twoPlaces); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckBalancedRejects(t *testing.T) {
	e := NewJournalEntry(1, 1, day(2024, 1, 15))
	e.Name = "INV/2024/00007"
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney("100")},
		{AccountID: 700, Credit: mustMoney("99")},
	}
	e.Normalize()

	err := CheckBalanced([]*JournalEntry{e}, twoPlaces)
	if !apperror.IsCode(err, apperror.CodeEntryUnbalanced) {
		t.Fatalf("expected ENTRY_UNBALANCED, got %v", err)
	}
}

func TestCheckBalancedNamesEveryFailure(t *testing.T) {
	a := balanced(1, day(2024, 1, 15), "50")
	b := NewJournalEntry(1, 1, day(2024, 1, 16))
	b.Name = "INV/2024/00002"
	b.Lines = []*EntryLine{{AccountID: 400, Debit: mustMoney("10")}}
	c := NewJournalEntry(1, 1, day(2024, 1, 17))
	c.Name = "INV/2024/00003"
	c.Lines = []*EntryLine{{AccountID: 700, Credit: mustMoney("5")}}
	for _, e := range []*JournalEntry{a, b, c} {
		e.Normalize()
	}

	err := CheckBalanced([]*JournalEntry{a, b, c}, twoPlaces)
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	names, _ := appErr.Details["entries"].([]string)
	if len(names) != 2 {
		t.Fatalf("expected both unbalanced entries reported, got %v", appErr.Details)
	}
}

func TestCheckBalancedRoundingTolerance(t *testing.T) {
	e := NewJournalEntry(1, 1, day(2024, 1, 15))
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney("10.001")},
		{AccountID: 700, Credit: mustMoney("10.003")},
	}
	e.Normalize()

	// 0.002 residual rounds to zero at 2 decimal places.
	if err := CheckBalanced([]*JournalEntry{e}, twoPlaces); err != nil {
		t.Fatalf("residual below currency precision must pass: %v", err)
	}
	if err := CheckBalanced([]*JournalEntry{e}, func(int64) int { return 3 }); err == nil {
		t.Fatal("same residual must fail at 3 decimal places")
	}
}

func TestCheckBalancedSkipsLineless(t *testing.T) {
	e := NewJournalEntry(1, 1, day(2024, 1, 15))
	if err := CheckBalanced([]*JournalEntry{e}, twoPlaces); err != nil {
		t.Fatalf("entries without lines are not checked: %v", err)
	}
}

func TestAutoBalance(t *testing.T) {
	e := NewJournalEntry(1, 1, day(2024, 1, 15))
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney("100")},
		{AccountID: 700, Credit: mustMoney("80")},
	}
	e.Normalize()

	if !AutoBalance(e, 999, 2) {
		t.Fatal("expected a suspense line")
	}
	if len(e.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(e.Lines))
	}
	added := e.Lines[2]
	if added.AccountID != 999 || !added.Credit.Equal(mustMoney("20")) {
		t.Errorf("suspense line = account %d credit %s", added.AccountID, added.Credit)
	}
	if err := CheckBalanced([]*JournalEntry{e}, twoPlaces); err != nil {
		t.Fatalf("entry must balance after the pre-pass: %v", err)
	}
}

func TestAutoBalanceLeavesPostedAlone(t *testing.T) {
	e := balanced(1, day(2024, 1, 15), "100")
	e.State = StatePosted
	e.Lines[1].Credit = mustMoney("80")
	e.Normalize()

	if AutoBalance(e, 999, 2) {
		t.Fatal("posted entries are never auto-balanced")
	}
}

func TestAutoBalanceOnlyMiscellaneous(t *testing.T) {
	e := balanced(1, day(2024, 1, 15), "100")
	e.DocType = DocInvoice
	e.Lines[1].Credit = mustMoney("80")
	e.Normalize()

	if AutoBalance(e, 999, 2) {
		t.Fatal("invoices are never auto-balanced")
	}
}
