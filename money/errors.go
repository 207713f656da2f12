/*
errors.go - Centralized error types for the finance core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculation packages (tax, budget) and the outer layers (api, marketdata,
  store) return or wrap these so callers can classify with errors.Is.

ERROR CATEGORIES:
  1. Input errors - non-numeric or out-of-range amounts (InvalidInput)
  2. Degenerate states - zero income where a ratio is requested
  3. Over-allocation - allocations exceeding income (a flag, rarely an error)
  4. Lookup errors - unknown regime, currency, or stored record
  5. Upstream errors - market data provider failures

USAGE:
  if errors.Is(err, money.ErrUnknownRegime) {
      // 400
  }

SEE ALSO:
  - amount.go: Clamping and lenient parsing that avoid InvalidInput
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package money

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when an amount is not a number or is outside
	// the accepted range and cannot be clamped.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateState is returned when a ratio is requested over a zero base,
	// e.g. an effective rate for zero income.
	ErrDegenerateState = errors.New("degenerate state: zero base")

	// ErrOverAllocation is returned by callers that refuse allocations larger
	// than income. The budget model itself only flags it.
	ErrOverAllocation = errors.New("allocations exceed income")

	// ErrUnknownRegime is returned when a tax regime is not registered.
	ErrUnknownRegime = errors.New("unknown tax regime")

	// ErrUnknownCurrency is returned when a display currency has no rate.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrNotFound is returned when a stored record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingAPIKey is returned when the market data key is not configured.
	ErrMissingAPIKey = errors.New("missing market data API key")

	// ErrUpstream is returned when the market data provider fails.
	ErrUpstream = errors.New("upstream request failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// UpstreamError provides details about a failed provider call.
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDegenerateState) ||
		errors.Is(err, ErrOverAllocation) ||
		errors.Is(err, ErrUnknownRegime) ||
		errors.Is(err, ErrUnknownCurrency)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
