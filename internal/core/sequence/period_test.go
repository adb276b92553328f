package sequence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearBounds(t *testing.T) {
	cases := []struct {
		fs         FiscalSettings
		in         time.Time
		start, end time.Time
	}{
		{DefaultFiscal, date(2024, 3, 15), date(2024, 1, 1), date(2024, 12, 31)},
		{FiscalSettings{30, time.June}, date(2024, 3, 15), date(2023, 7, 1), date(2024, 6, 30)},
		{FiscalSettings{30, time.June}, date(2024, 8, 1), date(2024, 7, 1), date(2025, 6, 30)},
		// Day clamped to the month's length.
		{FiscalSettings{31, time.February}, date(2024, 1, 10), date(2023, 3, 1), date(2024, 2, 29)},
		// The first day after a clamped end belongs to the next fiscal year.
		{FiscalSettings{31, time.February}, date(2023, 3, 1), date(2023, 3, 1), date(2024, 2, 29)},
	}

	for _, tc := range cases {
		start, end := tc.fs.YearBounds(tc.in)
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Errorf("YearBounds(%v, %v) = %v..%v, want %v..%v",
				tc.fs, tc.in, start, end, tc.start, tc.end)
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	monthly, _ := Classify("INV/2024/01/0001")
	start, end := monthly.PeriodBounds(date(2024, 1, 15), DefaultFiscal)
	if !start.Equal(date(2024, 1, 1)) || !end.Equal(date(2024, 1, 31)) {
		t.Errorf("monthly bounds = %v..%v", start, end)
	}

	yearly, _ := Classify("INV/2024/00001")
	start, end = yearly.PeriodBounds(date(2024, 6, 15), DefaultFiscal)
	if !start.Equal(date(2024, 1, 1)) || !end.Equal(date(2024, 12, 31)) {
		t.Errorf("yearly bounds = %v..%v", start, end)
	}

	ranged, _ := Classify("INV/2024-25/00001")
	fiscal := FiscalSettings{30, time.June}
	start, end = ranged.PeriodBounds(date(2024, 10, 1), fiscal)
	if !start.Equal(date(2024, 7, 1)) || !end.Equal(date(2025, 6, 30)) {
		t.Errorf("year range bounds = %v..%v", start, end)
	}
}

func TestStartingName(t *testing.T) {
	jan := date(2024, 1, 5)

	cases := []struct {
		opts StartingOptions
		want string
	}{
		{StartingOptions{Code: "INV", Fiscal: DefaultFiscal}, "INV/2024/00000"},
		{StartingOptions{Code: "INV", Monthly: true, Fiscal: DefaultFiscal}, "INV/2024/01/0000"},
		{StartingOptions{Code: "INV", Refund: true, Fiscal: DefaultFiscal}, "RINV/2024/00000"},
		{StartingOptions{Code: "BNK1", Payment: true, Fiscal: DefaultFiscal}, "PBNK1/2024/00000"},
		{StartingOptions{Code: "INV", Fiscal: FiscalSettings{30, time.June}}, "INV/2023-24/00000"},
	}

	for _, tc := range cases {
		got := StartingName(jan, tc.opts)
		if got != tc.want {
			t.Errorf("StartingName(%+v) = %q, want %q", tc.opts, got, tc.want)
		}

		// The template must classify back into a usable format.
		f, ok := Classify(got)
		if !ok {
			t.Fatalf("starting name %q not classifiable", got)
		}
		if first := f.Render(1); first == got {
			t.Errorf("first render should differ from the zero template: %q", first)
		}
	}
}
