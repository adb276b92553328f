package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/domain/entry"
)

// --- Request DTOs ---

// EntryLineRequest is one debit/credit row of an entry payload. ID is set on
// update to keep an existing line; zero means a new line.
type EntryLineRequest struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"accountId" binding:"required"`
	PartnerID       *int64          `json:"partnerId"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	CurrencyID      *int64          `json:"currencyId"`
	AmountCurrency  decimal.Decimal `json:"amountCurrency"`
	StatementLineID *int64          `json:"statementLineId"`
}

func (r *EntryLineRequest) toLine() *entry.EntryLine {
	l := &entry.EntryLine{
		AccountID:       r.AccountID,
		PartnerID:       r.PartnerID,
		Debit:           r.Debit,
		Credit:          r.Credit,
		CurrencyID:      r.CurrencyID,
		AmountCurrency:  r.AmountCurrency,
		StatementLineID: r.StatementLineID,
	}
	l.ID = r.ID
	return l
}

// CreateEntryRequest is the request body for creating a journal entry.
// Name may carry a manually chosen document number; empty or "/" means the
// number is assigned on posting.
type CreateEntryRequest struct {
	CompanyID int64              `json:"companyId" binding:"required"`
	JournalID int64              `json:"journalId" binding:"required"`
	Date      time.Time          `json:"date" binding:"required"`
	Ref       string             `json:"ref"`
	Name      string             `json:"name"`
	DocType   string             `json:"docType"`
	Lines     []EntryLineRequest `json:"lines"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateEntryRequest) ToEntity() *entry.JournalEntry {
	e := entry.NewJournalEntry(r.CompanyID, r.JournalID, r.Date)
	e.Ref = r.Ref
	if r.Name != "" {
		e.Name = r.Name
	}
	if r.DocType != "" {
		e.DocType = entry.DocType(r.DocType)
	}
	e.Lines = make([]*entry.EntryLine, len(r.Lines))
	for i := range r.Lines {
		e.Lines[i] = r.Lines[i].toLine()
	}
	return e
}

// UpdateEntryRequest is the request body for updating a journal entry.
type UpdateEntryRequest struct {
	JournalID int64              `json:"journalId" binding:"required"`
	Date      time.Time          `json:"date" binding:"required"`
	Ref       string             `json:"ref"`
	Name      string             `json:"name"`
	DocType   string             `json:"docType"`
	Lines     []EntryLineRequest `json:"lines"`
	Version   int                `json:"version" binding:"required"`
}

// ApplyTo applies update DTO onto the stored entry.
func (r *UpdateEntryRequest) ApplyTo(e *entry.JournalEntry) {
	e.JournalID = r.JournalID
	e.Date = r.Date
	e.Ref = r.Ref
	e.Name = r.Name
	if e.Name == "" {
		e.ClearName()
	}
	if r.DocType != "" {
		e.DocType = entry.DocType(r.DocType)
	}
	e.Lines = make([]*entry.EntryLine, len(r.Lines))
	for i := range r.Lines {
		l := r.Lines[i].toLine()
		l.EntryID = e.ID
		e.Lines[i] = l
	}
	e.Version = r.Version
}

// --- Response DTOs ---

// EntryLineResponse is one line of an entry response.
type EntryLineResponse struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"accountId"`
	PartnerID       *int64          `json:"partnerId,omitempty"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Balance         decimal.Decimal `json:"balance"`
	CurrencyID      *int64          `json:"currencyId,omitempty"`
	AmountCurrency  decimal.Decimal `json:"amountCurrency"`
	StatementLineID *int64          `json:"statementLineId,omitempty"`
	Reconciled      bool            `json:"reconciled"`
}

// EntryResponse is the response body for a journal entry.
type EntryResponse struct {
	ID                   int64               `json:"id"`
	CompanyID            int64               `json:"companyId"`
	JournalID            int64               `json:"journalId"`
	Name                 string              `json:"name"`
	SequencePrefix       string              `json:"sequencePrefix,omitempty"`
	SequenceNumber       int64               `json:"sequenceNumber"`
	Date                 time.Time           `json:"date"`
	Ref                  string              `json:"ref,omitempty"`
	State                string              `json:"state"`
	DocType              string              `json:"docType"`
	PostedBefore         bool                `json:"postedBefore"`
	MadeSequenceGap      bool                `json:"madeSequenceGap"`
	InalterableHash      *string             `json:"inalterableHash,omitempty"`
	SecureSequenceNumber int64               `json:"secureSequenceNumber,omitempty"`
	Lines                []EntryLineResponse `json:"lines"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// FromEntry creates response DTO from domain entity.
func FromEntry(e *entry.JournalEntry) *EntryResponse {
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineResponse{
			ID:              l.ID,
			AccountID:       l.AccountID,
			PartnerID:       l.PartnerID,
			Debit:           l.Debit,
			Credit:          l.Credit,
			Balance:         l.Balance,
			CurrencyID:      l.CurrencyID,
			AmountCurrency:  l.AmountCurrency,
			StatementLineID: l.StatementLineID,
			Reconciled:      l.Reconciled,
		}
	}
	return &EntryResponse{
		ID:                   e.ID,
		CompanyID:            e.CompanyID,
		JournalID:            e.JournalID,
		Name:                 e.Name,
		SequencePrefix:       e.SequencePrefix,
		SequenceNumber:       e.SequenceNumber,
		Date:                 e.Date,
		Ref:                  e.Ref,
		State:                string(e.State),
		DocType:              string(e.DocType),
		PostedBefore:         e.PostedBefore,
		MadeSequenceGap:      e.MadeSequenceGap,
		InalterableHash:      e.InalterableHash,
		SecureSequenceNumber: e.SecureSequenceNumber,
		Lines:                lines,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// WarningResponse is one advisory message attached to a write result.
type WarningResponse struct {
	Code      string `json:"code"`
	EntryID   int64  `json:"entryId"`
	EntryName string `json:"entryName"`
	Message   string `json:"message"`
}

// FromWarnings converts domain warnings. Nil in, nil out, so clean results
// omit the field.
func FromWarnings(ws entry.Warnings) []WarningResponse {
	if len(ws) == 0 {
		return nil
	}
	out := make([]WarningResponse, len(ws))
	for i, w := range ws {
		out[i] = WarningResponse{
			Code:      string(w.Code),
			EntryID:   w.EntryID,
			EntryName: w.EntryName,
			Message:   w.Message,
		}
	}
	return out
}

// EntryResult pairs an entry with advisory warnings.
type EntryResult struct {
	Entry    *EntryResponse    `json:"entry"`
	Warnings []WarningResponse `json:"warnings,omitempty"`
}
