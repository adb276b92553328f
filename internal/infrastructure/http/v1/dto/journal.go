package dto

import (
	"tally/internal/domain/journal"
)

// --- Request DTOs ---

// CreateJournalRequest is the request body for creating a journal.
type CreateJournalRequest struct {
	Code                  string  `json:"code" binding:"required"`
	Name                  string  `json:"name" binding:"required"`
	CompanyID             int64   `json:"companyId" binding:"required"`
	JournalType           string  `json:"journalType" binding:"required"`
	RefundSequence        bool    `json:"refundSequence"`
	PaymentSequence       bool    `json:"paymentSequence"`
	SequenceOverrideRegex *string `json:"sequenceOverrideRegex"`
	RestrictModeHashTable bool    `json:"restrictModeHashTable"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateJournalRequest) ToEntity() *journal.Journal {
	j := journal.NewJournal(r.Code, r.Name, r.CompanyID, journal.Type(r.JournalType))
	j.RefundSequence = r.RefundSequence
	j.PaymentSequence = r.PaymentSequence
	j.SequenceOverrideRegex = r.SequenceOverrideRegex
	j.RestrictModeHashTable = r.RestrictModeHashTable
	return j
}

// UpdateJournalRequest is the request body for updating a journal.
type UpdateJournalRequest struct {
	Code                  string  `json:"code" binding:"required"`
	Name                  string  `json:"name" binding:"required"`
	JournalType           string  `json:"journalType" binding:"required"`
	RefundSequence        bool    `json:"refundSequence"`
	PaymentSequence       bool    `json:"paymentSequence"`
	SequenceOverrideRegex *string `json:"sequenceOverrideRegex"`
	RestrictModeHashTable bool    `json:"restrictModeHashTable"`
	Version               int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. The company of a journal
// never changes; disabling RestrictModeHashTable is rejected by the service.
func (r *UpdateJournalRequest) ApplyTo(j *journal.Journal) {
	j.Code = r.Code
	j.Name = r.Name
	j.JournalType = journal.Type(r.JournalType)
	j.RefundSequence = r.RefundSequence
	j.PaymentSequence = r.PaymentSequence
	j.SequenceOverrideRegex = r.SequenceOverrideRegex
	j.RestrictModeHashTable = r.RestrictModeHashTable
	j.Version = r.Version
}

// --- Response DTOs ---

// JournalResponse is the response body for a journal.
type JournalResponse struct {
	CatalogResponse
	CompanyID             int64   `json:"companyId"`
	JournalType           string  `json:"journalType"`
	RefundSequence        bool    `json:"refundSequence"`
	PaymentSequence       bool    `json:"paymentSequence"`
	SequenceOverrideRegex *string `json:"sequenceOverrideRegex,omitempty"`
	RestrictModeHashTable bool    `json:"restrictModeHashTable"`
}

// FromJournal creates response DTO from domain entity.
func FromJournal(j *journal.Journal) *JournalResponse {
	return &JournalResponse{
		CatalogResponse:       FromCatalog(j.Catalog),
		CompanyID:             j.CompanyID,
		JournalType:           string(j.JournalType),
		RefundSequence:        j.RefundSequence,
		PaymentSequence:       j.PaymentSequence,
		SequenceOverrideRegex: j.SequenceOverrideRegex,
		RestrictModeHashTable: j.RestrictModeHashTable,
	}
}
