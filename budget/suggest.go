package budget

import (
	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// Ratios are suggested shares of income per bucket, as fractions.
type Ratios map[Bucket]decimal.Decimal

// DefaultRatios is the "let Batua plan my budget" split: 15% taxes,
// 20% savings, 40% spending, 25% investing.
func DefaultRatios() Ratios {
	return Ratios{
		Taxes:     decimal.New(15, -2),
		Savings:   decimal.New(20, -2),
		Spending:  decimal.New(40, -2),
		Investing: decimal.New(25, -2),
	}
}

// Validate requires every bucket present, non-negative, summing to at most 1.
func (r Ratios) Validate() error {
	sum := decimal.Zero
	for _, b := range Buckets {
		v, ok := r[b]
		if !ok {
			return &money.InvalidInputError{Field: "ratios." + string(b), Reason: "missing"}
		}
		if v.IsNegative() {
			return &money.InvalidInputError{Field: "ratios." + string(b), Value: v.String(), Reason: "must not be negative"}
		}
		sum = sum.Add(v)
	}
	if sum.GreaterThan(decimal.NewFromInt(1)) {
		return &money.InvalidInputError{Field: "ratios", Value: sum.String(), Reason: "must sum to at most 1"}
	}
	return nil
}

// Suggest splits income by ratios in whole rupees. When the ratios sum to
// exactly 1 the rounding residue goes to spending so nothing is lost.
func Suggest(income decimal.Decimal, ratios Ratios) (AllocationSet, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}
	income = money.ClampNonNegative(income)

	set := make(AllocationSet, len(Buckets))
	allocated := decimal.Zero
	share := decimal.Zero
	for _, b := range Buckets {
		amt := income.Mul(ratios[b]).RoundDown(0)
		set[b] = amt
		allocated = allocated.Add(amt)
		share = share.Add(ratios[b])
	}
	if share.Equal(decimal.NewFromInt(1)) {
		set[Spending] = set[Spending].Add(income.RoundDown(0).Sub(allocated))
	}
	return set, nil
}
