// Package journal provides the Journal catalog. Journals partition entries
// into independent numbering chains and carry the hash-restrict flag.
package journal

import (
	"context"

	"tally/internal/core/apperror"
	"tally/internal/core/entity"
	"tally/internal/core/sequence"
)

// Type classifies a journal by the documents it records.
type Type string

const (
	TypeSale     Type = "sale"
	TypePurchase Type = "purchase"
	TypeBank     Type = "bank"
	TypeCash     Type = "cash"
	TypeGeneral  Type = "general"
)

var validTypes = map[Type]bool{
	TypeSale:     true,
	TypePurchase: true,
	TypeBank:     true,
	TypeCash:     true,
	TypeGeneral:  true,
}

// Journal is a book of entries with its own numbering.
type Journal struct {
	entity.Catalog

	CompanyID int64 `db:"company_id" json:"companyId"`

	JournalType Type `db:"journal_type" json:"journalType"`

	// RefundSequence gives credit notes their own chain (R-prefixed names).
	RefundSequence bool `db:"refund_sequence" json:"refundSequence"`

	// PaymentSequence gives payments on bank/cash journals their own chain
	// (P-prefixed names).
	PaymentSequence bool `db:"payment_sequence" json:"paymentSequence"`

	// SequenceOverrideRegex, when set, replaces shape classification with a
	// fixed regex exposing "prefix" and "seq" named groups.
	SequenceOverrideRegex *string `db:"sequence_override_regex" json:"sequenceOverrideRegex,omitempty"`

	// RestrictModeHashTable enables the inalterability hash chain: every
	// posted entry is hashed and locked.
	RestrictModeHashTable bool `db:"restrict_mode_hash_table" json:"restrictModeHashTable"`
}

// NewJournal creates a new Journal.
func NewJournal(code, name string, companyID int64, journalType Type) *Journal {
	return &Journal{
		Catalog:     entity.NewCatalog(code, name),
		CompanyID:   companyID,
		JournalType: journalType,
	}
}

// Validate implements entity.Validatable interface.
func (j *Journal) Validate(ctx context.Context) error {
	if err := j.Catalog.Validate(ctx); err != nil {
		return err
	}

	if j.CompanyID == 0 {
		return apperror.NewValidation("journal company is required").
			WithDetail("field", "companyId")
	}
	if !validTypes[j.JournalType] {
		return apperror.NewValidation("unknown journal type").
			WithDetail("field", "journalType").
			WithDetail("value", string(j.JournalType))
	}
	if j.SequenceOverrideRegex != nil && *j.SequenceOverrideRegex != "" {
		if err := sequence.ValidateOverride(*j.SequenceOverrideRegex); err != nil {
			return apperror.NewValidation(err.Error()).
				WithDetail("field", "sequenceOverrideRegex")
		}
	}

	return nil
}

// Override returns the override regex, or "" when shape classification
// applies.
func (j *Journal) Override() string {
	if j.SequenceOverrideRegex == nil {
		return ""
	}
	return *j.SequenceOverrideRegex
}
