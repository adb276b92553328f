// Package currency provides the Currency catalog. A currency carries the
// decimal precision used for rounding and balance tolerance checks.
package currency

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"tally/internal/core/apperror"
	"tally/internal/core/entity"
)

// Currency represents a monetary unit. Code is the ISO 4217 alphabetic code.
type Currency struct {
	entity.Catalog

	// Symbol is the currency symbol (e.g., "$", "€")
	Symbol *string `db:"symbol" json:"symbol,omitempty"`

	// DecimalPlaces is the number of decimal places
	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces"`
}

// NewCurrency creates a new Currency with required fields.
func NewCurrency(code, name string) *Currency {
	return &Currency{
		Catalog:       entity.NewCatalog(code, name),
		DecimalPlaces: 2,
	}
}

var isoCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate implements entity.Validatable interface.
func (c *Currency) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isoCodeRe.MatchString(c.Code) {
		return apperror.NewValidation("currency code must be 3 uppercase letters").
			WithDetail("field", "code").
			WithDetail("value", c.Code)
	}

	if c.DecimalPlaces < 0 || c.DecimalPlaces > 8 {
		return apperror.NewValidation("decimal places must be between 0 and 8").
			WithDetail("field", "decimalPlaces")
	}

	return nil
}

// Round rounds an amount to this currency's precision.
func (c *Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(int32(c.DecimalPlaces))
}

// IsZero reports whether an amount is zero at this currency's precision.
func (c *Currency) IsZero(amount decimal.Decimal) bool {
	return c.Round(amount).IsZero()
}
