package dto

import (
	"time"

	"tally/internal/domain/company"
)

// --- Request DTOs ---

// CreateCompanyRequest is the request body for creating a company.
type CreateCompanyRequest struct {
	Code                string `json:"code" binding:"required"`
	Name                string `json:"name" binding:"required"`
	CurrencyID          int64  `json:"currencyId" binding:"required"`
	FiscalYearLastDay   *int   `json:"fiscalYearLastDay"`
	FiscalYearLastMonth *int   `json:"fiscalYearLastMonth"`
	SuspenseAccountID   *int64 `json:"suspenseAccountId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCompanyRequest) ToEntity() *company.Company {
	c := company.NewCompany(r.Code, r.Name, r.CurrencyID)
	if r.FiscalYearLastDay != nil {
		c.FiscalYearLastDay = *r.FiscalYearLastDay
	}
	if r.FiscalYearLastMonth != nil {
		c.FiscalYearLastMonth = *r.FiscalYearLastMonth
	}
	c.SuspenseAccountID = r.SuspenseAccountID
	return c
}

// UpdateCompanyRequest is the request body for updating a company.
type UpdateCompanyRequest struct {
	Code                string `json:"code" binding:"required"`
	Name                string `json:"name" binding:"required"`
	CurrencyID          int64  `json:"currencyId" binding:"required"`
	FiscalYearLastDay   int    `json:"fiscalYearLastDay" binding:"required"`
	FiscalYearLastMonth int    `json:"fiscalYearLastMonth" binding:"required"`
	SuspenseAccountID   *int64 `json:"suspenseAccountId"`
	Version             int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. Lock dates are managed
// through their own endpoint, not the general update.
func (r *UpdateCompanyRequest) ApplyTo(c *company.Company) {
	c.Code = r.Code
	c.Name = r.Name
	c.CurrencyID = r.CurrencyID
	c.FiscalYearLastDay = r.FiscalYearLastDay
	c.FiscalYearLastMonth = r.FiscalYearLastMonth
	c.SuspenseAccountID = r.SuspenseAccountID
	c.Version = r.Version
}

// SetLockDateRequest sets the fiscal lock date.
type SetLockDateRequest struct {
	LockDate time.Time `json:"lockDate" binding:"required"`
}

// --- Response DTOs ---

// CompanyResponse is the response body for a company.
type CompanyResponse struct {
	CatalogResponse
	CurrencyID          int64      `json:"currencyId"`
	FiscalYearLastDay   int        `json:"fiscalYearLastDay"`
	FiscalYearLastMonth int        `json:"fiscalYearLastMonth"`
	FiscalLockDate      *time.Time `json:"fiscalLockDate,omitempty"`
	TaxLockDate         *time.Time `json:"taxLockDate,omitempty"`
	SuspenseAccountID   *int64     `json:"suspenseAccountId,omitempty"`
}

// FromCompany creates response DTO from domain entity.
func FromCompany(c *company.Company) *CompanyResponse {
	return &CompanyResponse{
		CatalogResponse:     FromCatalog(c.Catalog),
		CurrencyID:          c.CurrencyID,
		FiscalYearLastDay:   c.FiscalYearLastDay,
		FiscalYearLastMonth: c.FiscalYearLastMonth,
		FiscalLockDate:      c.FiscalLockDate,
		TaxLockDate:         c.TaxLockDate,
		SuspenseAccountID:   c.SuspenseAccountID,
	}
}
