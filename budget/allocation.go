/*
Package budget provides the monthly budget allocation model.

PURPOSE:
  Tracks how a monthly income is split across four fixed buckets (taxes,
  savings, spending, investing) and derives totals, the remaining amount
  and per-bucket percentages for proportional bars.

KEY CONCEPTS:
  - AllocationSet: bucket -> amount, always the four fixed buckets
  - Recompute: pure function of (income, set); no history or diffing
  - Remaining may be negative; that is over-allocation and is flagged,
    never clamped
  - Percentages are rounded half-up for display only; totals and remaining
    keep full precision

USAGE:
  set := budget.AllocationSet{budget.Taxes: d("20000"), budget.Savings: d("30000")}
  totals := budget.Recompute(d("100000"), set)
  if totals.OverAllocated { ... }

SEE ALSO:
  - suggest.go: Ratio-based suggested plan
  - plan.go: Saved plans
*/
package budget

import (
	"fmt"
	"strings"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BUCKETS
// =============================================================================

// Bucket is one of the four fixed allocation categories.
type Bucket string

const (
	Taxes     Bucket = "taxes"
	Savings   Bucket = "savings"
	Spending  Bucket = "spending"
	Investing Bucket = "investing"
)

// Buckets lists the buckets in display order.
var Buckets = []Bucket{Taxes, Savings, Spending, Investing}

// Label is the display name.
func (b Bucket) Label() string {
	switch b {
	case Taxes:
		return "Taxes"
	case Savings:
		return "Savings"
	case Spending:
		return "Spending"
	case Investing:
		return "Investing"
	}
	return string(b)
}

// ParseBucket accepts a case-insensitive bucket key.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Buckets {
		if b == known {
			return b, nil
		}
	}
	return "", &money.InvalidInputError{Field: "bucket", Value: s, Reason: "use taxes, savings, spending or investing"}
}

// AllocationSet maps buckets to monthly INR amounts. Missing buckets count
// as zero.
type AllocationSet map[Bucket]decimal.Decimal

// Amount returns the clamped amount for b.
func (s AllocationSet) Amount(b Bucket) decimal.Decimal {
	return money.ClampNonNegative(s[b])
}

// Validate rejects keys outside the fixed bucket set.
func (s AllocationSet) Validate() error {
	for b := range s {
		if _, err := ParseBucket(string(b)); err != nil {
			return fmt.Errorf("allocation: %w", err)
		}
	}
	return nil
}

// Normalized returns a copy holding exactly the four buckets with
// non-negative amounts.
func (s AllocationSet) Normalized() AllocationSet {
	out := make(AllocationSet, len(Buckets))
	for _, b := range Buckets {
		out[b] = s.Amount(b)
	}
	return out
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals is the derived view of an allocation snapshot.
type Totals struct {
	Income           decimal.Decimal
	Allocations      AllocationSet
	TotalAllocated   decimal.Decimal
	Remaining        decimal.Decimal
	PerBucketPercent map[Bucket]int64
	OverAllocated    bool
}

// Recompute derives totals from the latest (income, set) snapshot.
// Negative inputs are clamped to zero. With zero income every percentage
// is zero.
func Recompute(income decimal.Decimal, set AllocationSet) Totals {
	income = money.ClampNonNegative(income)
	norm := set.Normalized()

	t := Totals{
		Income:           income,
		Allocations:      norm,
		TotalAllocated:   decimal.Zero,
		PerBucketPercent: make(map[Bucket]int64, len(Buckets)),
	}
	for _, b := range Buckets {
		amt := norm[b]
		t.TotalAllocated = t.TotalAllocated.Add(amt)
		t.PerBucketPercent[b] = percentOf(amt, income)
	}
	t.Remaining = income.Sub(t.TotalAllocated)
	t.OverAllocated = t.Remaining.IsNegative()
	return t
}

// percentOf rounds amount/income*100 half-up. Both operands are
// non-negative so decimal's half-away-from-zero rounding is half-up.
func percentOf(amount, income decimal.Decimal) int64 {
	p, err := money.Percent(amount, income)
	if err != nil {
		return 0
	}
	return p.Round(0).IntPart()
}

// BarWidth is the bucket's percent clamped to [0, 100] for drawing.
func (t Totals) BarWidth(b Bucket) int64 {
	p := t.PerBucketPercent[b]
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Err returns ErrOverAllocation for callers that refuse to accept an
// over-allocated plan.
func (t Totals) Err() error {
	if t.OverAllocated {
		return fmt.Errorf("%w: over by %s", money.ErrOverAllocation, t.Remaining.Neg().String())
	}
	return nil
}
