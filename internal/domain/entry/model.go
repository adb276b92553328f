// Package entry provides the JournalEntry document: a double-entry
// accounting record with gapless period-scoped numbering and an optional
// tamper-evident hash.
package entry

import (
	"context"
	"time"

	"tally/internal/core/apperror"
	"tally/internal/core/entity"
	"tally/internal/core/types"
)

// State is the entry lifecycle state.
type State string

const (
	StateDraft  State = "draft"
	StatePosted State = "posted"
	StateCancel State = "cancel"
)

// DocType partitions entries for sequence numbering. Refund and payment
// documents get their own chains on journals configured for it.
type DocType string

const (
	DocEntry   DocType = "entry"
	DocInvoice DocType = "invoice"
	DocRefund  DocType = "refund"
	DocPayment DocType = "payment"
)

// UnassignedName is the placeholder for entries without a sequence number.
const UnassignedName = "/"

// JournalEntry represents one accounting document (draft or posted).
type JournalEntry struct {
	entity.Document

	CompanyID int64 `db:"company_id" json:"companyId"`
	JournalID int64 `db:"journal_id" json:"journalId"`

	// Name is the formatted document number ("INV/2024/0001"), or "/" while
	// unassigned.
	Name string `db:"name" json:"name"`

	// SequencePrefix and SequenceNumber are the stored decomposition of
	// Name. SequenceNumber 0 means unassigned.
	SequencePrefix string `db:"sequence_prefix" json:"sequencePrefix"`
	SequenceNumber int64  `db:"sequence_number" json:"sequenceNumber"`

	Date time.Time `db:"date" json:"date"`

	Ref string `db:"ref" json:"ref,omitempty"`

	State State `db:"state" json:"state"`

	DocType DocType `db:"doc_type" json:"docType"`

	// PostedBefore is set on first post and never cleared; once set, the
	// assigned name is permanent.
	PostedBefore bool `db:"posted_before" json:"postedBefore"`

	// MadeSequenceGap marks the entry that broke chain contiguity.
	// Advisory, never an error by itself.
	MadeSequenceGap bool `db:"made_sequence_gap" json:"madeSequenceGap"`

	// InalterableHash is "$<version>$<hex>" (bare hex for versions < 4).
	// Once set, the hash-protected fields become immutable.
	InalterableHash *string `db:"inalterable_hash" json:"inalterableHash,omitempty"`

	// SecureSequenceNumber is the position in the hash chain.
	SecureSequenceNumber int64 `db:"secure_sequence_number" json:"secureSequenceNumber"`

	Lines []*EntryLine `db:"-" json:"lines"`
}

// EntryLine is one debit/credit row, owned by its JournalEntry.
type EntryLine struct {
	entity.Base

	EntryID   int64  `db:"entry_id" json:"entryId"`
	AccountID int64  `db:"account_id" json:"accountId"`
	PartnerID *int64 `db:"partner_id" json:"partnerId,omitempty"`

	Debit  types.Money `db:"debit" json:"debit"`
	Credit types.Money `db:"credit" json:"credit"`

	// Balance = Debit - Credit, kept in sync by Normalize.
	Balance types.Money `db:"balance" json:"balance"`

	CurrencyID     *int64      `db:"currency_id" json:"currencyId,omitempty"`
	AmountCurrency types.Money `db:"amount_currency" json:"amountCurrency"`

	// StatementLineID links a bank statement line; hashing waits for its
	// reconciliation (cash-basis safety).
	StatementLineID *int64 `db:"statement_line_id" json:"statementLineId,omitempty"`
	Reconciled      bool   `db:"reconciled" json:"reconciled"`
}

// NewJournalEntry creates a draft entry without a number.
func NewJournalEntry(companyID, journalID int64, date time.Time) *JournalEntry {
	return &JournalEntry{
		Document:  entity.NewDocument(),
		CompanyID: companyID,
		JournalID: journalID,
		Name:      UnassignedName,
		Date:      date,
		State:     StateDraft,
		DocType:   DocEntry,
	}
}

// IsUnassigned reports whether the entry has no document number yet.
func (e *JournalEntry) IsUnassigned() bool {
	return e.Name == "" || e.Name == UnassignedName
}

// IsHashed reports whether the entry is locked by the inalterability hash.
func (e *JournalEntry) IsHashed() bool {
	return e.InalterableHash != nil && *e.InalterableHash != ""
}

// IsRefund reports whether the entry belongs to the refund chain partition.
func (e *JournalEntry) IsRefund() bool { return e.DocType == DocRefund }

// IsPayment reports whether the entry belongs to the payment chain partition.
func (e *JournalEntry) IsPayment() bool { return e.DocType == DocPayment }

// ClearName resets the entry back to the unassigned state.
func (e *JournalEntry) ClearName() {
	e.Name = UnassignedName
	e.SequencePrefix = ""
	e.SequenceNumber = 0
}

// Normalize recomputes each line's balance. Must run before validation and
// the balance check.
func (e *JournalEntry) Normalize() {
	for _, l := range e.Lines {
		l.Balance = l.Debit.Sub(l.Credit)
	}
}

// Validate implements entity.Validatable interface.
func (e *JournalEntry) Validate(ctx context.Context) error {
	if e.CompanyID == 0 {
		return apperror.NewValidation("entry company is required").
			WithDetail("field", "companyId")
	}
	if e.JournalID == 0 {
		return apperror.NewValidation("entry journal is required").
			WithDetail("field", "journalId")
	}
	if e.Date.IsZero() {
		return apperror.NewValidation("entry date is required").
			WithDetail("field", "date")
	}
	switch e.State {
	case StateDraft, StatePosted, StateCancel:
	default:
		return apperror.NewValidation("unknown entry state").
			WithDetail("field", "state").
			WithDetail("value", string(e.State))
	}
	switch e.DocType {
	case DocEntry, DocInvoice, DocRefund, DocPayment:
	default:
		return apperror.NewValidation("unknown document type").
			WithDetail("field", "docType").
			WithDetail("value", string(e.DocType))
	}
	for i, l := range e.Lines {
		if err := l.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (l *EntryLine) validate(i int) error {
	if l.AccountID == 0 {
		return apperror.NewValidation("line account is required").
			WithDetail("line", i)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return apperror.NewValidation("debit and credit must be non-negative").
			WithDetail("line", i)
	}
	if !l.Debit.IsZero() && !l.Credit.IsZero() {
		return apperror.NewValidation("a line cannot carry both debit and credit").
			WithDetail("line", i)
	}
	return nil
}

// HashProtectedDiff lists the hash-protected fields that differ between the
// stored entry and an incoming update. Non-empty means the write must be
// rejected when the stored entry is hashed.
func (e *JournalEntry) HashProtectedDiff(incoming *JournalEntry) []string {
	var fields []string
	if e.Name != incoming.Name {
		fields = append(fields, "name")
	}
	if !e.Date.Equal(incoming.Date) {
		fields = append(fields, "date")
	}
	if e.JournalID != incoming.JournalID {
		fields = append(fields, "journal_id")
	}

	if len(e.Lines) != len(incoming.Lines) {
		fields = append(fields, "lines")
		return fields
	}
	current := make(map[int64]*EntryLine, len(e.Lines))
	for _, l := range e.Lines {
		current[l.ID] = l
	}
	for _, in := range incoming.Lines {
		cur, ok := current[in.ID]
		if !ok {
			fields = append(fields, "lines")
			return fields
		}
		if cur.AccountID != in.AccountID {
			fields = append(fields, "line.account_id")
		}
		if !cur.Debit.Equal(in.Debit) {
			fields = append(fields, "line.debit")
		}
		if !cur.Credit.Equal(in.Credit) {
			fields = append(fields, "line.credit")
		}
		if !ptrEq(cur.PartnerID, in.PartnerID) {
			fields = append(fields, "line.partner_id")
		}
	}
	return fields
}

func ptrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
