package sequence

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		reset  ResetPeriod
		prefix string
		seq    int64
	}{
		{"INV/2024/01/0001", ResetMonth, "INV/2024/01/", 1},
		{"INV/2024/00005", ResetYear, "INV/2024/", 5},
		{"INV/24/00005", ResetYear, "INV/24/", 5},
		{"INV/2024-25/00001", ResetYearRange, "INV/2024-25/", 1},
		{"INV/2024-2025/00001", ResetYearRange, "INV/2024-2025/", 1},
		{"INV/2024-25/04/0007", ResetYearRangeMonth, "INV/2024-25/04/", 7},
		{"CONTRACT/0042", ResetNever, "CONTRACT/", 42},
		{"RINV/2024/00003", ResetYear, "RINV/2024/", 3},
		{"T4/2024/0001", ResetYear, "T4/2024/", 1},
		// 13 is neither a month nor 2024+1, so it reads as a two-digit year
		// and the leading 2024 folds into the literal prefix.
		{"INV/2024/13/0001", ResetYear, "INV/2024/13/", 1},
	}

	for _, tc := range cases {
		f, ok := Classify(tc.name)
		if !ok {
			t.Fatalf("Classify(%q) not ok", tc.name)
		}
		if f.Reset != tc.reset {
			t.Errorf("Classify(%q) reset = %s, want %s", tc.name, f.Reset, tc.reset)
		}
		if got := f.SequencePrefix(); got != tc.prefix {
			t.Errorf("Classify(%q) prefix = %q, want %q", tc.name, got, tc.prefix)
		}
		if f.Seq != tc.seq {
			t.Errorf("Classify(%q) seq = %d, want %d", tc.name, f.Seq, tc.seq)
		}
	}
}

func TestClassifyUnnumbered(t *testing.T) {
	for _, name := range []string{"/", "", "DRAFT"} {
		if _, ok := Classify(name); ok {
			t.Errorf("Classify(%q) should not classify", name)
		}
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	names := []string{
		"INV/2024/01/0001",
		"INV/2024/00005",
		"INV/2024-25/00001",
		"INV/2024-25/04/0007",
		"BILL-24-00099",
		"CONTRACT/0042",
	}
	for _, name := range names {
		f, ok := Classify(name)
		if !ok {
			t.Fatalf("Classify(%q) not ok", name)
		}
		if got := f.Render(f.Seq); got != name {
			t.Errorf("Render(Classify(%q)) = %q", name, got)
		}
	}
}

// Every name must be attributed to exactly one period: the one Classify
// picks. The Shadows table must agree, i.e. each period shadows exactly the
// less specific shapes its example names also parse under.
func TestShadowsConsistency(t *testing.T) {
	examples := map[ResetPeriod]string{
		ResetNever:          "DOC/0001",
		ResetYear:           "DOC/2024/0001",
		ResetMonth:          "DOC/2024/01/0001",
		ResetYearRange:      "DOC/2024-25/0001",
		ResetYearRangeMonth: "DOC/2024-25/01/0001",
	}

	for period, name := range examples {
		f, ok := Classify(name)
		if !ok || f.Reset != period {
			t.Fatalf("example %q classified as %s, want %s", name, f.Reset, period)
		}
		for _, shadowed := range Shadows[period] {
			if shadowed == period {
				t.Errorf("%s shadows itself", period)
			}
		}
	}

	// A shadowed period is always strictly less specific.
	specificity := map[ResetPeriod]int{
		ResetNever: 0, ResetYear: 1, ResetYearRange: 2, ResetMonth: 2, ResetYearRangeMonth: 3,
	}
	for period, shadowed := range Shadows {
		for _, s := range shadowed {
			if specificity[s] >= specificity[period] {
				t.Errorf("%s should not shadow %s", period, s)
			}
		}
	}
}

func TestRenderNumberOverflow(t *testing.T) {
	f, _ := Classify("INV/2024/001")
	if got := f.Render(1234); got != "INV/2024/1234" {
		t.Errorf("Render(1234) = %q", got)
	}
}

func TestForDate(t *testing.T) {
	f, _ := Classify("INV/2024/01/0003")
	feb := f.ForDate(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), DefaultFiscal)
	if got := feb.Render(1); got != "INV/2024/02/0001" {
		t.Errorf("ForDate renders %q", got)
	}

	fr, _ := Classify("INV/2024-25/00009")
	fiscal := FiscalSettings{LastDay: 30, LastMonth: time.June}
	next := fr.ForDate(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), fiscal)
	if got := next.Render(1); got != "INV/2025-26/00001" {
		t.Errorf("ForDate fiscal renders %q", got)
	}
}

func TestInPeriod(t *testing.T) {
	f, _ := Classify("INV/2024/01/0001")
	if !f.InPeriod(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), DefaultFiscal) {
		t.Error("january date should be in period")
	}
	if f.InPeriod(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), DefaultFiscal) {
		t.Error("february date should not be in period")
	}

	fixed, _ := Classify("CONTRACT/0042")
	if !fixed.InPeriod(time.Date(1993, 7, 1, 0, 0, 0, 0, time.UTC), DefaultFiscal) {
		t.Error("fixed chains cover any date")
	}

	// A ranged monthly format covers its month only within its own fiscal year.
	rm, _ := Classify("INV/2024-25/04/0001")
	fiscal := FiscalSettings{LastDay: 30, LastMonth: time.June}
	if !rm.InPeriod(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), fiscal) {
		t.Error("april 2025 belongs to fiscal 2024-25")
	}
	if rm.InPeriod(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), fiscal) {
		t.Error("april 2026 is fiscal 2025-26, not 2024-25")
	}
}

func TestMatchesOverride(t *testing.T) {
	prefix, number, err := MatchesOverride(`^(?P<prefix>X-)(?P<seq>\d+)$`, "X-0100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix != "X-" || number != 100 {
		t.Errorf("got prefix=%q number=%d", prefix, number)
	}

	if _, _, err := MatchesOverride(`^(?P<prefix>X-)(?P<seq>\d+)$`, "Y-0100"); err == nil {
		t.Error("expected mismatch error")
	}
}
