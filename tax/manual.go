package tax

import (
	"strings"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// ManualLine is a user-named tax charged at a percentage of income.
type ManualLine struct {
	Name    string
	Percent decimal.Decimal
}

// ManualSheet is the "I know my taxes" mode: free-form lines over a single
// income. Names are unique ignoring case.
type ManualSheet struct {
	Income decimal.Decimal
	Lines  []ManualLine
}

// Add appends a line. Blank and duplicate names are ignored and reported
// as false.
func (m *ManualSheet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || m.index(name) >= 0 {
		return false
	}
	m.Lines = append(m.Lines, ManualLine{Name: name})
	return true
}

// SetPercent parses pct leniently and stores it on the named line.
func (m *ManualSheet) SetPercent(name, pct string) bool {
	i := m.index(name)
	if i < 0 {
		return false
	}
	m.Lines[i].Percent = money.ParseLenient(pct)
	return true
}

// Remove deletes the named line.
func (m *ManualSheet) Remove(name string) bool {
	i := m.index(name)
	if i < 0 {
		return false
	}
	m.Lines = append(m.Lines[:i], m.Lines[i+1:]...)
	return true
}

func (m *ManualSheet) index(name string) int {
	name = strings.TrimSpace(name)
	for i, l := range m.Lines {
		if strings.EqualFold(l.Name, name) {
			return i
		}
	}
	return -1
}

// ManualRow is one computed line.
type ManualRow struct {
	Name      string
	Percent   decimal.Decimal
	AmountINR decimal.Decimal
}

// ManualTotals is the computed sheet. HasData is false when there is no
// income or no line, in which case nothing should be shown.
type ManualTotals struct {
	Rows     []ManualRow
	TotalINR decimal.Decimal
	HasData  bool
}

// Totals computes income * pct / 100 for each line.
func (m *ManualSheet) Totals() ManualTotals {
	income := money.ClampNonNegative(m.Income)
	out := ManualTotals{Rows: make([]ManualRow, 0, len(m.Lines)), TotalINR: decimal.Zero}
	for _, l := range m.Lines {
		p := money.ClampNonNegative(l.Percent)
		amt := income.Mul(p).Div(money.Hundred)
		out.Rows = append(out.Rows, ManualRow{Name: l.Name, Percent: p, AmountINR: amt})
		out.TotalINR = out.TotalINR.Add(amt)
	}
	out.HasData = income.IsPositive() && len(m.Lines) > 0
	return out
}
