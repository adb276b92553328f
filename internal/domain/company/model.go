// Package company provides the Company catalog. A company owns its fiscal
// year settings and period lock dates; every journal and account belongs to
// exactly one company.
package company

import (
	"context"
	"time"

	"tally/internal/core/apperror"
	"tally/internal/core/entity"
	"tally/internal/core/sequence"
)

// Company represents a legal entity keeping its own books.
type Company struct {
	entity.Catalog

	// CurrencyID is the company (accounting) currency
	CurrencyID int64 `db:"currency_id" json:"currencyId"`

	// FiscalYearLastDay / FiscalYearLastMonth define the fiscal year end.
	// December 31 means the fiscal year matches the calendar year.
	FiscalYearLastDay   int `db:"fiscal_year_last_day" json:"fiscalYearLastDay"`
	FiscalYearLastMonth int `db:"fiscal_year_last_month" json:"fiscalYearLastMonth"`

	// FiscalLockDate blocks any posting on or before it.
	FiscalLockDate *time.Time `db:"fiscal_lock_date" json:"fiscalLockDate,omitempty"`

	// TaxLockDate blocks posting of tax-relevant entries on or before it.
	TaxLockDate *time.Time `db:"tax_lock_date" json:"taxLockDate,omitempty"`

	// SuspenseAccountID receives the counterpart line when an entry is
	// auto-balanced instead of rejected.
	SuspenseAccountID *int64 `db:"suspense_account_id" json:"suspenseAccountId,omitempty"`
}

// NewCompany creates a new Company with a calendar fiscal year.
func NewCompany(code, name string, currencyID int64) *Company {
	return &Company{
		Catalog:             entity.NewCatalog(code, name),
		CurrencyID:          currencyID,
		FiscalYearLastDay:   31,
		FiscalYearLastMonth: int(time.December),
	}
}

// Validate implements entity.Validatable interface.
func (c *Company) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.CurrencyID == 0 {
		return apperror.NewValidation("company currency is required").
			WithDetail("field", "currencyId")
	}

	if c.FiscalYearLastMonth < 1 || c.FiscalYearLastMonth > 12 {
		return apperror.NewValidation("fiscal year last month must be between 1 and 12").
			WithDetail("field", "fiscalYearLastMonth")
	}
	if c.FiscalYearLastDay < 1 || c.FiscalYearLastDay > 31 {
		return apperror.NewValidation("fiscal year last day must be between 1 and 31").
			WithDetail("field", "fiscalYearLastDay")
	}

	return nil
}

// Fiscal returns the fiscal year settings in sequence package form.
func (c *Company) Fiscal() sequence.FiscalSettings {
	return sequence.FiscalSettings{
		LastDay:   c.FiscalYearLastDay,
		LastMonth: time.Month(c.FiscalYearLastMonth),
	}
}

// CheckFiscalLock rejects a posting date that falls on or before the fiscal
// lock date.
func (c *Company) CheckFiscalLock(date time.Time) error {
	if c.FiscalLockDate != nil && !date.After(*c.FiscalLockDate) {
		return apperror.NewPeriodLocked(c.FiscalLockDate.Format("2006-01-02"))
	}
	return nil
}
