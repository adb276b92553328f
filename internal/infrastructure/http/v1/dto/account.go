package dto

import (
	"tally/internal/domain/account"
)

// --- Request DTOs ---

// CreateAccountRequest is the request body for creating an account.
type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CompanyID   int64  `json:"companyId" binding:"required"`
	AccountType string `json:"accountType" binding:"required"`
	Reconcile   bool   `json:"reconcile"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateAccountRequest) ToEntity() *account.Account {
	a := account.NewAccount(r.Code, r.Name, r.CompanyID, account.Type(r.AccountType))
	a.Reconcile = r.Reconcile
	return a
}

// UpdateAccountRequest is the request body for updating an account.
type UpdateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	AccountType string `json:"accountType" binding:"required"`
	Reconcile   bool   `json:"reconcile"`
	Version     int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. The company of an account
// never changes.
func (r *UpdateAccountRequest) ApplyTo(a *account.Account) {
	a.Code = r.Code
	a.Name = r.Name
	a.AccountType = account.Type(r.AccountType)
	a.Reconcile = r.Reconcile
	a.Version = r.Version
}

// --- Response DTOs ---

// AccountResponse is the response body for an account.
type AccountResponse struct {
	CatalogResponse
	CompanyID   int64  `json:"companyId"`
	AccountType string `json:"accountType"`
	Reconcile   bool   `json:"reconcile"`
}

// FromAccount creates response DTO from domain entity.
func FromAccount(a *account.Account) *AccountResponse {
	return &AccountResponse{
		CatalogResponse: FromCatalog(a.Catalog),
		CompanyID:       a.CompanyID,
		AccountType:     string(a.AccountType),
		Reconcile:       a.Reconcile,
	}
}
