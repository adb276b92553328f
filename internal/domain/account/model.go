// Package account provides the chart-of-accounts catalog.
package account

import (
	"context"

	"tally/internal/core/apperror"
	"tally/internal/core/entity"
)

// Type classifies an account on the balance sheet or P&L.
type Type string

const (
	TypeReceivable       Type = "asset_receivable"
	TypeCash             Type = "asset_cash"
	TypeCurrentAsset     Type = "asset_current"
	TypeFixedAsset       Type = "asset_fixed"
	TypePayable          Type = "liability_payable"
	TypeCurrentLiability Type = "liability_current"
	TypeCreditCard       Type = "liability_credit_card"
	TypeEquity           Type = "equity"
	TypeIncome           Type = "income"
	TypeExpense          Type = "expense"
	TypeOffBalance       Type = "off_balance"
)

var validTypes = map[Type]bool{
	TypeReceivable:       true,
	TypeCash:             true,
	TypeCurrentAsset:     true,
	TypeFixedAsset:       true,
	TypePayable:          true,
	TypeCurrentLiability: true,
	TypeCreditCard:       true,
	TypeEquity:           true,
	TypeIncome:           true,
	TypeExpense:          true,
	TypeOffBalance:       true,
}

// Account is one row of the chart of accounts.
type Account struct {
	entity.Catalog

	CompanyID int64 `db:"company_id" json:"companyId"`

	AccountType Type `db:"account_type" json:"accountType"`

	// Reconcile marks accounts whose lines are matched against each other
	// (receivables, payables, bank suspense).
	Reconcile bool `db:"reconcile" json:"reconcile"`
}

// NewAccount creates a new Account.
func NewAccount(code, name string, companyID int64, accountType Type) *Account {
	return &Account{
		Catalog:     entity.NewCatalog(code, name),
		CompanyID:   companyID,
		AccountType: accountType,
	}
}

// Validate implements entity.Validatable interface.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	if a.CompanyID == 0 {
		return apperror.NewValidation("account company is required").
			WithDetail("field", "companyId")
	}
	if !validTypes[a.AccountType] {
		return apperror.NewValidation("unknown account type").
			WithDetail("field", "accountType").
			WithDetail("value", string(a.AccountType))
	}

	return nil
}

// IsOffBalance reports whether lines on this account are excluded from the
// balance check.
func (a *Account) IsOffBalance() bool {
	return a.AccountType == TypeOffBalance
}
