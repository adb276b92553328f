// Package sequence provides parsing, classification and rendering of
// document sequence names ("INV/2024/01/0001"). A sequence name encodes the
// reset period of its chain: the shape of the year/month parts decides
// whether numbering restarts never, yearly, monthly, or per fiscal year
// range. Classification is an explicit priority-ordered matcher over five
// tagged shapes rather than a family of overlapping regexes.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ResetPeriod identifies when the numbering of a chain restarts from 1.
type ResetPeriod int

const (
	// ResetNever: fixed prefix, the counter never restarts ("CONTRACT/0042").
	ResetNever ResetPeriod = iota
	// ResetYear: restarts every calendar year ("INV/2024/00001").
	ResetYear
	// ResetMonth: restarts every month ("INV/2024/01/0001").
	ResetMonth
	// ResetYearRange: restarts every fiscal year with a staggered end
	// ("INV/2024-25/00001").
	ResetYearRange
	// ResetYearRangeMonth: fiscal year range plus month ("INV/2024-25/04/0001").
	ResetYearRangeMonth
)

// String returns the period name used in logs and API payloads.
func (p ResetPeriod) String() string {
	switch p {
	case ResetYear:
		return "year"
	case ResetMonth:
		return "month"
	case ResetYearRange:
		return "year_range"
	case ResetYearRangeMonth:
		return "year_range_month"
	default:
		return "never"
	}
}

// Shadows lists, per reset period, the less specific shapes its names also
// match. "INV/2024/01/0001" parses under the yearly shape too, so a yearly
// chain query must reject names classified monthly. Classify resolves the
// overlap by trying the most specific shape first; this table makes the
// precedence explicit and testable.
var Shadows = map[ResetPeriod][]ResetPeriod{
	ResetNever:          nil,
	ResetYear:           {ResetNever},
	ResetMonth:          {ResetNever, ResetYear},
	ResetYearRange:      {ResetNever, ResetYear},
	ResetYearRangeMonth: {ResetNever, ResetYear, ResetMonth, ResetYearRange},
}

// Format is a fully parsed sequence name. The literal text segments
// (prefixes, separators, suffix) are preserved so the format can be
// re-rendered for another period or another number without losing the
// user's chosen punctuation.
type Format struct {
	Reset ResetPeriod

	Prefix1 string // text before the year part (or before seq when fixed)
	SepYear string // separator between year and year-end in range shapes
	Prefix2 string // text after the year parts, before month or seq
	Prefix3 string // text between month and seq
	Suffix  string // trailing non-digit text after seq

	Year    int // full year (two-digit years are pivoted into 2000-2099)
	YearEnd int // second year of a fiscal range, full form
	Month   int

	YearLen    int // 2 or 4, as written
	YearEndLen int
	SeqLen     int // zero-padding width of the numeric part

	Seq int64 // the number parsed from the classified name
}

type digitRun struct {
	start, end int // byte offsets into the name
	text       string
	val        int64
}

func digitRuns(name string) []digitRun {
	var runs []digitRun
	i := 0
	for i < len(name) {
		if name[i] < '0' || name[i] > '9' {
			i++
			continue
		}
		j := i
		for j < len(name) && name[j] >= '0' && name[j] <= '9' {
			j++
		}
		text := name[i:j]
		val, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			runs = append(runs, digitRun{start: i, end: j, text: text, val: val})
		}
		i = j
	}
	return runs
}

func isYearRun(r digitRun) bool {
	if len(r.text) == 4 {
		return r.val >= 1900 && r.val < 2200
	}
	return len(r.text) == 2
}

func yearValue(r digitRun) int {
	if len(r.text) == 2 {
		return 2000 + int(r.val)
	}
	return int(r.val)
}

// isYearEndRun reports whether r continues y as a fiscal range: the written
// value must equal year+1, in full or two-digit form.
func isYearEndRun(y, r digitRun) bool {
	next := yearValue(y) + 1
	switch len(r.text) {
	case 4:
		return int(r.val) == next
	case 2:
		return int(r.val) == next%100
	default:
		return false
	}
}

func isMonthRun(r digitRun) bool {
	return len(r.text) == 2 && r.val >= 1 && r.val <= 12
}

// Classify parses a sequence name into its Format. Shapes are tried most
// specific first (year-range-monthly, year-range, monthly, yearly, fixed),
// so a name is attributed to exactly one reset period. Returns false for
// names with no numeric part at all (including the unassigned marker "/").
func Classify(name string) (Format, bool) {
	runs := digitRuns(name)
	if len(runs) == 0 {
		return Format{}, false
	}

	seq := runs[len(runs)-1]
	head := runs[:len(runs)-1]
	f := Format{
		Suffix: name[seq.end:],
		SeqLen: len(seq.text),
		Seq:    seq.val,
	}

	if len(head) >= 3 {
		y, ye, m := head[len(head)-3], head[len(head)-2], head[len(head)-1]
		if isYearRun(y) && isYearEndRun(y, ye) && isMonthRun(m) {
			f.Reset = ResetYearRangeMonth
			f.Prefix1 = name[:y.start]
			f.SepYear = name[y.end:ye.start]
			f.Prefix2 = name[ye.end:m.start]
			f.Prefix3 = name[m.end:seq.start]
			f.Year, f.YearLen = yearValue(y), len(y.text)
			f.YearEnd, f.YearEndLen = yearValue(y)+1, len(ye.text)
			f.Month = int(m.val)
			return f, true
		}
	}

	if len(head) >= 2 {
		y, second := head[len(head)-2], head[len(head)-1]
		if isYearRun(y) && isYearEndRun(y, second) {
			f.Reset = ResetYearRange
			f.Prefix1 = name[:y.start]
			f.SepYear = name[y.end:second.start]
			f.Prefix2 = name[second.end:seq.start]
			f.Year, f.YearLen = yearValue(y), len(y.text)
			f.YearEnd, f.YearEndLen = yearValue(y)+1, len(second.text)
			return f, true
		}
		if isYearRun(y) && isMonthRun(second) {
			f.Reset = ResetMonth
			f.Prefix1 = name[:y.start]
			f.Prefix2 = name[y.end:second.start]
			f.Prefix3 = name[second.end:seq.start]
			f.Year, f.YearLen = yearValue(y), len(y.text)
			f.Month = int(second.val)
			return f, true
		}
	}

	if len(head) >= 1 {
		y := head[len(head)-1]
		if isYearRun(y) {
			f.Reset = ResetYear
			f.Prefix1 = name[:y.start]
			f.Prefix2 = name[y.end:seq.start]
			f.Year, f.YearLen = yearValue(y), len(y.text)
			return f, true
		}
	}

	f.Reset = ResetNever
	f.Prefix1 = name[:seq.start]
	return f, true
}

func (f Format) yearText(year, width int) string {
	if width == 2 {
		return fmt.Sprintf("%02d", year%100)
	}
	return fmt.Sprintf("%04d", year)
}

// Render formats the name for the given number, keeping the period values
// currently stored in the format.
func (f Format) Render(seq int64) string {
	var b strings.Builder
	b.WriteString(f.Prefix1)
	switch f.Reset {
	case ResetYear:
		b.WriteString(f.yearText(f.Year, f.YearLen))
		b.WriteString(f.Prefix2)
	case ResetMonth:
		b.WriteString(f.yearText(f.Year, f.YearLen))
		b.WriteString(f.Prefix2)
		fmt.Fprintf(&b, "%02d", f.Month)
		b.WriteString(f.Prefix3)
	case ResetYearRange:
		b.WriteString(f.yearText(f.Year, f.YearLen))
		b.WriteString(f.SepYear)
		b.WriteString(f.yearText(f.YearEnd, f.YearEndLen))
		b.WriteString(f.Prefix2)
	case ResetYearRangeMonth:
		b.WriteString(f.yearText(f.Year, f.YearLen))
		b.WriteString(f.SepYear)
		b.WriteString(f.yearText(f.YearEnd, f.YearEndLen))
		b.WriteString(f.Prefix2)
		fmt.Fprintf(&b, "%02d", f.Month)
		b.WriteString(f.Prefix3)
	}
	fmt.Fprintf(&b, "%0*d", f.SeqLen, seq)
	b.WriteString(f.Suffix)
	return b.String()
}

// SequencePrefix is the formatted name minus the zero-padded number and
// suffix: the partition key of a chain together with the journal.
func (f Format) SequencePrefix() string {
	full := f.Render(0)
	return full[:len(full)-f.SeqLen-len(f.Suffix)]
}

// ForDate returns a copy of the format with its period values taken from t.
// Fiscal settings decide year-range boundaries; a date in March 2025 under a
// June-ending fiscal year renders as "2024-25".
func (f Format) ForDate(t time.Time, fs FiscalSettings) Format {
	out := f
	switch f.Reset {
	case ResetYear:
		out.Year = t.Year()
	case ResetMonth:
		out.Year = t.Year()
		out.Month = int(t.Month())
	case ResetYearRange, ResetYearRangeMonth:
		start, end := fs.YearBounds(t)
		out.Year = start.Year()
		out.YearEnd = end.Year()
		if f.Reset == ResetYearRangeMonth {
			out.Month = int(t.Month())
		}
	}
	return out
}

// InPeriod reports whether a date falls inside the period currently encoded
// in the format. A monthly "INV/2024/01/" format does not cover a February
// date; the caller then either re-renders for February or clears the name.
func (f Format) InPeriod(t time.Time, fs FiscalSettings) bool {
	start, end := f.PeriodBounds(t, fs)
	switch f.Reset {
	case ResetNever:
		return true
	case ResetYear:
		return t.Year() == f.Year
	case ResetMonth:
		return t.Year() == f.Year && int(t.Month()) == f.Month
	case ResetYearRange:
		return !t.Before(start) && !t.After(end) && start.Year() == f.Year
	case ResetYearRangeMonth:
		fyStart, _ := fs.YearBounds(t)
		return !t.Before(start) && !t.After(end) &&
			int(t.Month()) == f.Month && fyStart.Year() == f.Year
	}
	return false
}

// ParseName splits a name into its chain prefix and number. ok is false for
// unnumbered names.
func ParseName(name string) (prefix string, number int64, ok bool) {
	f, ok := Classify(name)
	if !ok {
		return "", 0, false
	}
	return f.SequencePrefix(), f.Seq, true
}

// ValidateOverride checks that a journal-level override regex compiles and
// exposes the required "seq" named group.
func ValidateOverride(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile override regex: %w", err)
	}
	for _, group := range re.SubexpNames() {
		if group == "seq" {
			return nil
		}
	}
	return fmt.Errorf("override regex must define a (?P<seq>...) group")
}

// OverrideFormat parses a name against a journal override regex into a
// fixed-chain Format. Override chains never reset.
func OverrideFormat(pattern, name string) (Format, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Format{}, fmt.Errorf("compile override regex: %w", err)
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return Format{}, fmt.Errorf("name %q does not match override regex", name)
	}
	f := Format{Reset: ResetNever}
	for i, group := range re.SubexpNames() {
		switch group {
		case "prefix":
			f.Prefix1 = m[i]
		case "seq":
			f.SeqLen = len(m[i])
			f.Seq, _ = strconv.ParseInt(m[i], 10, 64)
		}
	}
	return f, nil
}

// MatchesOverride applies a journal-level override regex to a name. The
// regex must expose named groups "prefix" and "seq"; entries matching it are
// treated as one fixed chain regardless of shape classification.
func MatchesOverride(pattern, name string) (prefix string, number int64, err error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", 0, fmt.Errorf("compile override regex: %w", err)
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return "", 0, fmt.Errorf("name %q does not match override regex", name)
	}
	for i, group := range re.SubexpNames() {
		switch group {
		case "prefix":
			prefix = m[i]
		case "seq":
			number, _ = strconv.ParseInt(m[i], 10, 64)
		}
	}
	return prefix, number, nil
}
