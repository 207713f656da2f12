/*
Package money provides INR base amounts and display-only currency projection.

PURPOSE:
  Every calculation in this repository is carried out in INR base units on
  decimal.Decimal. Converting to another currency happens only when a value
  is rendered, never before or between calculation steps, so there is a
  single rounding step at the very end.

KEY CONCEPTS:
  - Amounts are plain decimal.Decimal values in INR
  - Inputs are clamped (negative -> 0) or parsed leniently (blank -> 0)
  - RateTable projects INR amounts into display currencies
  - Format renders a projected amount with the currency's grouping rules

USAGE:
  income := money.ParseLenient(form["income"])
  shown := money.Format(taxINR, money.USD, rates)

SEE ALSO:
  - currency.go: RateTable and projection
  - format.go: Display formatting
  - errors.go: Error taxonomy
*/
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Hundred is used for percent conversions.
var Hundred = decimal.NewFromInt(100)

// ClampNonNegative returns d, or zero when d is negative.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseLenient parses a form-style amount. Blank, non-numeric and negative
// values all become zero so that nothing downstream sees an invalid number.
func ParseLenient(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return ClampNonNegative(d)
}

// ParseStrict parses an amount and reports non-numeric or negative input.
func ParseStrict(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidInputError{Field: field, Value: s, Reason: "not a number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &InvalidInputError{Field: field, Value: s, Reason: "must not be negative"}
	}
	return d, nil
}

// Percent returns part / whole * 100. A zero whole is a degenerate state.
func Percent(part, whole decimal.Decimal) (decimal.Decimal, error) {
	if whole.IsZero() {
		return decimal.Zero, ErrDegenerateState
	}
	return part.Mul(Hundred).Div(whole), nil
}
