package sequence

import (
	"fmt"
	"time"
)

// FiscalSettings holds the company-level fiscal year end.
type FiscalSettings struct {
	LastDay   int
	LastMonth time.Month
}

// DefaultFiscal is a calendar fiscal year ending December 31.
var DefaultFiscal = FiscalSettings{LastDay: 31, LastMonth: time.December}

// Standard reports whether the fiscal year matches the calendar year.
func (fs FiscalSettings) Standard() bool {
	return fs.LastDay == 31 && fs.LastMonth == time.December
}

// YearBounds returns the first and last day of the fiscal year containing t.
func (fs FiscalSettings) YearBounds(t time.Time) (start, end time.Time) {
	day := fs.LastDay
	if day <= 0 {
		day = 31
	}
	month := fs.LastMonth
	if month <= 0 || month > 12 {
		month = time.December
	}

	end = fiscalDate(t.Year(), month, day, t.Location())
	if end.Before(dateOnly(t)) {
		end = fiscalDate(t.Year()+1, month, day, t.Location())
	}
	// The previous year's end must be re-clamped (Feb 29 has no -1y twin),
	// so derive start from it rather than shifting end back a year.
	start = fiscalDate(end.Year()-1, month, day, t.Location()).AddDate(0, 0, 1)
	return start, end
}

// fiscalDate clamps the day to the month's length (Feb 30 becomes Feb 28/29).
func fiscalDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	last := firstOfNext.AddDate(0, 0, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PeriodBounds returns the date window implied by the format's reset period
// for the period containing t. Entries inside one window share a counter.
func (f Format) PeriodBounds(t time.Time, fs FiscalSettings) (start, end time.Time) {
	loc := t.Location()
	switch f.Reset {
	case ResetYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc),
			time.Date(t.Year(), 12, 31, 0, 0, 0, 0, loc)
	case ResetMonth, ResetYearRangeMonth:
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		return first, first.AddDate(0, 1, -1)
	case ResetYearRange:
		return fs.YearBounds(t)
	default:
		// Fixed chains have no window.
		return time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, loc)
	}
}

// StartingOptions configures the template used for a chain's very first name.
type StartingOptions struct {
	Code    string // journal short code ("INV", "BNK1")
	Refund  bool   // dedicated refund partition, "R" prefix
	Payment bool   // dedicated payment partition, "P" prefix
	Monthly bool   // journal prefers a monthly counter
	Fiscal  FiscalSettings
}

// StartingName builds the first formatted name of a brand-new chain for the
// given date. The template follows the journal code with the period parts:
//
//	INV/2024/00000            yearly (standard fiscal year)
//	INV/2024/01/0000          monthly journals
//	INV/2024-25/00000         staggered fiscal years
//	RINV/2024/00000           refund partition
//	PBNK1/2024/00000          payment partition
//
// The returned name carries number zero; callers classify it and render the
// real first number from the resulting format.
func StartingName(t time.Time, opts StartingOptions) string {
	code := opts.Code
	if opts.Refund {
		code = "R" + code
	}
	if opts.Payment {
		code = "P" + code
	}

	switch {
	case !opts.Fiscal.Standard():
		start, end := opts.Fiscal.YearBounds(t)
		if opts.Monthly {
			return fmt.Sprintf("%s/%04d-%02d/%02d/0000", code, start.Year(), end.Year()%100, t.Month())
		}
		return fmt.Sprintf("%s/%04d-%02d/00000", code, start.Year(), end.Year()%100)
	case opts.Monthly:
		return fmt.Sprintf("%s/%04d/%02d/0000", code, t.Year(), t.Month())
	default:
		return fmt.Sprintf("%s/%04d/00000", code, t.Year())
	}
}
