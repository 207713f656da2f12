/*
Package tax provides the progressive income tax calculator.

PURPOSE:
  Computes slab-wise income tax for an annual taxable income under a
  selected regime, adds the flat cess and an optional professional tax,
  and produces an ordered breakdown with an effective rate.

KEY CONCEPTS IN THIS FILE (schedule.go):
  - Band: a contiguous income range taxed at a single marginal rate
  - Schedule: ordered bands; the last band may be unbounded
  - Apply: folds the bands over a running "remaining income" counter

ALGORITHM:
  remaining := income
  for each band in order:
      consumed := min(remaining, band.Width)   // whole remainder if unbounded
      tax      += consumed * band.Rate
      remaining -= consumed
  tax = max(tax, 0)

  Each band is independently verifiable with Breakdown.

SEE ALSO:
  - presets.go: Old and new regime schedules
  - calculator.go: Profile -> Result with cess and professional tax
  - factory/regime.go: JSON/YAML -> Schedule
*/
package tax

import (
	"fmt"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BAND & SCHEDULE
// =============================================================================

// Band is one marginal-rate slab. A nil Width means the band absorbs all
// remaining income and must be last.
type Band struct {
	Width *decimal.Decimal
	Rate  decimal.Decimal
}

// Bounded creates a band of the given width.
func Bounded(width, rate decimal.Decimal) Band {
	return Band{Width: &width, Rate: rate}
}

// Unbounded creates the final catch-all band.
func Unbounded(rate decimal.Decimal) Band {
	return Band{Rate: rate}
}

// Schedule is an ordered list of bands identified by a regime.
type Schedule struct {
	Regime Regime
	Name   string
	Bands  []Band
}

// BandTax is the tax attributed to a single band.
type BandTax struct {
	From     decimal.Decimal
	To       *decimal.Decimal // nil for the unbounded band
	Rate     decimal.Decimal
	Consumed decimal.Decimal
	Tax      decimal.Decimal
}

// Validate checks that widths are positive, rates are in [0, 1] and only
// the last band is unbounded.
func (s Schedule) Validate() error {
	if s.Regime == "" {
		return &money.InvalidInputError{Field: "regime", Reason: "id is required"}
	}
	if len(s.Bands) == 0 {
		return &money.InvalidInputError{Field: "bands", Value: string(s.Regime), Reason: "at least one band is required"}
	}
	one := decimal.NewFromInt(1)
	for i, b := range s.Bands {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return &money.InvalidInputError{
				Field: fmt.Sprintf("bands[%d].rate", i), Value: b.Rate.String(), Reason: "must be between 0 and 1",
			}
		}
		if b.Width == nil {
			if i != len(s.Bands)-1 {
				return &money.InvalidInputError{
					Field: fmt.Sprintf("bands[%d].width", i), Reason: "only the last band may be unbounded",
				}
			}
			continue
		}
		if !b.Width.IsPositive() {
			return &money.InvalidInputError{
				Field: fmt.Sprintf("bands[%d].width", i), Value: b.Width.String(), Reason: "must be positive",
			}
		}
	}
	return nil
}

// Apply returns the base tax for income, floored at zero. Income above the
// last bounded band is untaxed when the schedule has no unbounded band.
func (s Schedule) Apply(income decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, bt := range s.Breakdown(income) {
		total = total.Add(bt.Tax)
	}
	return money.ClampNonNegative(total)
}

// Breakdown returns the per-band consumption for income, in band order.
// Bands that consume nothing are still listed.
func (s Schedule) Breakdown(income decimal.Decimal) []BandTax {
	remaining := money.ClampNonNegative(income)
	from := decimal.Zero
	out := make([]BandTax, 0, len(s.Bands))

	for _, b := range s.Bands {
		consumed := remaining
		var to *decimal.Decimal
		if b.Width != nil {
			consumed = decimal.Min(remaining, *b.Width)
			upper := from.Add(*b.Width)
			to = &upper
		}
		remaining = remaining.Sub(consumed)

		out = append(out, BandTax{
			From:     from,
			To:       to,
			Rate:     b.Rate,
			Consumed: consumed,
			Tax:      consumed.Mul(b.Rate),
		})
		if to != nil {
			from = *to
		}
	}
	return out
}
