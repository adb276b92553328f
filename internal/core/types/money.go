// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round rounds a monetary value to the given number of decimal places
// using banker-unfriendly half-up rounding, matching monetary display rules.
func Round(m Money, decimalPlaces int) Money {
	return m.Round(int32(decimalPlaces))
}

// IsZero reports whether a monetary value rounds to zero at the given
// currency precision. This is the tolerance used by balance checks.
func IsZero(m Money, decimalPlaces int) bool {
	return Round(m, decimalPlaces).IsZero()
}

// FloatRepr renders a monetary value with a fixed number of decimal places.
// The representation is stable across runs, which hash canonicalization
// depends on: "100" and "100.0" must never both appear for the same amount.
func FloatRepr(m Money, decimalPlaces int) string {
	return m.StringFixed(int32(decimalPlaces))
}
