package dto

import (
	"tally/internal/domain/currency"
)

// --- Request DTOs ---

// CreateCurrencyRequest is the request body for creating a currency.
type CreateCurrencyRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Symbol        *string `json:"symbol"`
	DecimalPlaces *int    `json:"decimalPlaces"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCurrencyRequest) ToEntity() *currency.Currency {
	c := currency.NewCurrency(r.Code, r.Name)
	c.Symbol = r.Symbol
	if r.DecimalPlaces != nil {
		c.DecimalPlaces = *r.DecimalPlaces
	}
	return c
}

// UpdateCurrencyRequest is the request body for updating a currency.
type UpdateCurrencyRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Symbol        *string `json:"symbol"`
	DecimalPlaces int     `json:"decimalPlaces"`
	Version       int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCurrencyRequest) ApplyTo(c *currency.Currency) {
	c.Code = r.Code
	c.Name = r.Name
	c.Symbol = r.Symbol
	c.DecimalPlaces = r.DecimalPlaces
	c.Version = r.Version
}

// --- Response DTOs ---

// CurrencyResponse is the response body for a currency.
type CurrencyResponse struct {
	CatalogResponse
	Symbol        *string `json:"symbol,omitempty"`
	DecimalPlaces int     `json:"decimalPlaces"`
}

// FromCurrency creates response DTO from domain entity.
func FromCurrency(c *currency.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		Symbol:          c.Symbol,
		DecimalPlaces:   c.DecimalPlaces,
	}
}
