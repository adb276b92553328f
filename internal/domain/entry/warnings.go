package entry

import "fmt"

// WarningCode identifies an advisory condition. Warnings are collected and
// returned with an otherwise successful result, never raised as errors.
type WarningCode string

const (
	// WarningSequenceFormatMismatch flags drift between a manually set name
	// and the format inferred for the chain.
	WarningSequenceFormatMismatch WarningCode = "sequence_format_mismatch"

	// WarningBackwardsNumbering flags a new name at or below the chain's
	// highest known name. Suppressed in quick-edit mode.
	WarningBackwardsNumbering WarningCode = "backwards_numbering"
)

// Warning is one advisory message attached to an entry.
type Warning struct {
	Code      WarningCode `json:"code"`
	EntryID   int64       `json:"entryId"`
	EntryName string      `json:"entryName"`
	Message   string      `json:"message"`
}

// Warnings is an ordered collection of advisory messages.
type Warnings []Warning

// Add appends a warning for an entry.
func (w *Warnings) Add(code WarningCode, e *JournalEntry, format string, args ...any) {
	*w = append(*w, Warning{
		Code:      code,
		EntryID:   e.ID,
		EntryName: e.Name,
		Message:   fmt.Sprintf(format, args...),
	})
}
