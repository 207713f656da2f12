package tax

import (
	"fmt"
	"time"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FISCAL YEAR
// =============================================================================

// FiscalYear is an Indian financial year, 1 April to 31 March. StartYear is
// the calendar year it starts in, so FY 2025-26 is FiscalYear{2025}.
type FiscalYear struct {
	StartYear int
}

// FiscalYearFor returns the financial year containing t.
func FiscalYearFor(t time.Time) FiscalYear {
	y := t.Year()
	// January to March belong to the year that started the previous April
	if t.Month() < time.April {
		y--
	}
	return FiscalYear{StartYear: y}
}

// Start is 1 April of StartYear.
func (fy FiscalYear) Start() time.Time {
	return time.Date(fy.StartYear, time.April, 1, 0, 0, 0, 0, time.UTC)
}

// End is 31 March of the following year.
func (fy FiscalYear) End() time.Time {
	return fy.Next().Start().AddDate(0, 0, -1)
}

// Contains reports whether the calendar date of t falls inside the year.
func (fy FiscalYear) Contains(t time.Time) bool {
	return FiscalYearFor(t) == fy
}

// Next returns the following financial year.
func (fy FiscalYear) Next() FiscalYear {
	return FiscalYear{StartYear: fy.StartYear + 1}
}

func (fy FiscalYear) String() string {
	return fmt.Sprintf("FY %d-%02d", fy.StartYear, (fy.StartYear+1)%100)
}

// =============================================================================
// ADVANCE TAX
// =============================================================================

// Instalment is one advance tax due date. Cumulative is what should have
// been paid by Due; Amount is this instalment's share.
type Instalment struct {
	Due               time.Time
	CumulativePercent int64
	CumulativeINR     decimal.Decimal
	AmountINR         decimal.Decimal
}

var advanceSteps = []struct {
	month   time.Month
	percent int64
}{
	{time.June, 15},
	{time.September, 45},
	{time.December, 75},
	{time.March, 100},
}

// AdvanceTaxSchedule splits total into the four instalments due on the 15th
// of June, September, December and March. Cumulative amounts are rounded to
// whole rupees and the last one is exactly total.
func AdvanceTaxSchedule(total decimal.Decimal, fy FiscalYear) []Instalment {
	total = money.ClampNonNegative(total)

	out := make([]Instalment, 0, len(advanceSteps))
	paid := decimal.Zero
	for i, step := range advanceSteps {
		year := fy.StartYear
		if step.month < time.April {
			year++
		}

		cumulative := total.Mul(decimal.NewFromInt(step.percent)).Div(money.Hundred).Round(0)
		if i == len(advanceSteps)-1 {
			cumulative = total
		}

		out = append(out, Instalment{
			Due:               time.Date(year, step.month, 15, 0, 0, 0, 0, time.UTC),
			CumulativePercent: step.percent,
			CumulativeINR:     cumulative,
			AmountINR:         cumulative.Sub(paid),
		})
		paid = cumulative
	}
	return out
}

// NextInstalment returns the first instalment due on or after the calendar
// date of asOf.
func NextInstalment(schedule []Instalment, asOf time.Time) (Instalment, bool) {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	for _, in := range schedule {
		if !in.Due.Before(day) {
			return in, true
		}
	}
	return Instalment{}, false
}
