package entry

import (
	"tally/internal/core/apperror"
	"tally/internal/core/types"
)

// DecimalPlaces resolves the precision of a company's accounting currency.
type DecimalPlaces func(companyID int64) int

// CheckBalanced verifies that every entry with at least one line sums to
// zero within its company currency's rounding tolerance. Pure check: it
// collects all failing entries and reports them together rather than
// stopping at the first.
func CheckBalanced(entries []*JournalEntry, places DecimalPlaces) error {
	var names []string
	for _, e := range entries {
		if len(e.Lines) == 0 {
			continue
		}
		sum := types.Zero()
		for _, l := range e.Lines {
			sum = sum.Add(l.Balance)
		}
		if !types.IsZero(sum, places(e.CompanyID)) {
			names = append(names, displayName(e))
		}
	}
	if len(names) > 0 {
		return apperror.NewUnbalancedEntry(names)
	}
	return nil
}

// AutoBalance appends a suspense line absorbing the residual of a draft
// miscellaneous entry. Returns true when a line was added. Posted entries
// are never auto-balanced.
func AutoBalance(e *JournalEntry, suspenseAccountID int64, decimalPlaces int) bool {
	if e.State != StateDraft || e.DocType != DocEntry || len(e.Lines) == 0 {
		return false
	}
	sum := types.Zero()
	for _, l := range e.Lines {
		sum = sum.Add(l.Balance)
	}
	residual := types.Round(sum, decimalPlaces)
	if residual.IsZero() {
		return false
	}
	line := &EntryLine{
		EntryID:   e.ID,
		AccountID: suspenseAccountID,
		Balance:   residual.Neg(),
	}
	if residual.IsPositive() {
		line.Credit = residual
	} else {
		line.Debit = residual.Neg()
	}
	e.Lines = append(e.Lines, line)
	return true
}

func displayName(e *JournalEntry) string {
	if e.IsUnassigned() {
		if e.Ref != "" {
			return e.Ref
		}
		return "draft entry"
	}
	return e.Name
}
