package money

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code used for display.
type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Base is the currency every calculation runs in.
const Base = INR

// ParseCurrency accepts a case-insensitive code. Empty means INR.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return INR, nil
	}
	c := Currency(s)
	if _, ok := symbols[c]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCurrency, s)
	}
	return c, nil
}

var symbols = map[Currency]string{
	INR: "₹",
	USD: "$",
	EUR: "€",
}

// Symbol returns the display symbol, or the code itself.
func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

// FractionDigits is 0 for INR and 2 otherwise.
func (c Currency) FractionDigits() int32 {
	if c == INR {
		return 0
	}
	return 2
}

// =============================================================================
// RATE TABLE - INR -> display currency multipliers
// =============================================================================

// DefaultRates is the static table used when nothing else is configured.
func DefaultRates() map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		INR: decimal.NewFromInt(1),
		USD: decimal.RequireFromString("0.012"),
		EUR: decimal.RequireFromString("0.011"),
	}
}

// RateTable holds multipliers from INR to each display currency. It is safe
// for concurrent use; the FX refresher writes while handlers read.
type RateTable struct {
	mu    sync.RWMutex
	rates map[Currency]decimal.Decimal
}

// NewRateTable copies the given rates. INR is always pinned to 1.
func NewRateTable(rates map[Currency]decimal.Decimal) *RateTable {
	t := &RateTable{rates: make(map[Currency]decimal.Decimal, len(rates)+1)}
	for c, r := range rates {
		t.rates[c] = r
	}
	t.rates[INR] = decimal.NewFromInt(1)
	return t
}

// Rate returns the INR -> c multiplier.
func (t *RateTable) Rate(c Currency) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rates[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, c)
	}
	return r, nil
}

// Set replaces one rate. Setting INR or a non-positive rate is ignored.
func (t *RateTable) Set(c Currency, rate decimal.Decimal) bool {
	if c == INR || !rate.IsPositive() {
		return false
	}
	t.mu.Lock()
	t.rates[c] = rate
	t.mu.Unlock()
	return true
}

// Currencies lists the table's currencies with INR first.
func (t *RateTable) Currencies() []Currency {
	t.mu.RLock()
	out := make([]Currency, 0, len(t.rates))
	for c := range t.rates {
		if c != INR {
			out = append(out, c)
		}
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return append([]Currency{INR}, out...)
}

// Snapshot returns a copy of the rates.
func (t *RateTable) Snapshot() map[Currency]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Currency]decimal.Decimal, len(t.rates))
	for c, r := range t.rates {
		out[c] = r
	}
	return out
}

// Project converts an INR amount for display and rounds it to the
// currency's fraction digits. Only call this when rendering.
func (t *RateTable) Project(amountINR decimal.Decimal, c Currency) (decimal.Decimal, error) {
	r, err := t.Rate(c)
	if err != nil {
		return decimal.Zero, err
	}
	return amountINR.Mul(r).Round(c.FractionDigits()), nil
}
