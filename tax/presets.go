/*
presets.go - Built-in regime schedules

AVAILABLE REGIMES:
  OldRegime:  0-2.5L 0%, 2.5-5L 5%, 5-10L 20%, above 10L 30%
  NewRegime:  0-3L 0%, then 3L-wide bands at 5/10/15/20%, above 15L 30%

  The old regime is usually written as fixed thresholds with cumulative
  fixed amounts (12,500 at 5L, 1,12,500 at 10L). Expressed as bands the
  fold produces exactly the same figures.

SEE ALSO:
  - schedule.go: Band folding
  - factory/regime.go: Custom regimes from JSON/YAML
*/
package tax

import (
	"fmt"
	"strings"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// Regime identifies a tax schedule.
type Regime string

const (
	RegimeOld Regime = "old"
	RegimeNew Regime = "new"
)

// ParseRegime normalises a regime id. Empty means the new regime, which is
// the default selection.
func ParseRegime(s string) (Regime, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RegimeNew, nil
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return "", &money.InvalidInputError{Field: "regime", Value: s, Reason: "use letters, digits, '-' or '_'"}
		}
	}
	return Regime(s), nil
}

// IsBuiltin reports whether r is one of the statutory presets.
func (r Regime) IsBuiltin() bool {
	return r == RegimeOld || r == RegimeNew
}

func lakhs(n int64) decimal.Decimal { return decimal.NewFromInt(n * 100000) }
func pct(n int64) decimal.Decimal   { return decimal.New(n, -2) }

// OldRegime returns the old regime schedule.
func OldRegime() Schedule {
	return Schedule{
		Regime: RegimeOld,
		Name:   "Old Regime",
		Bands: []Band{
			Bounded(decimal.NewFromInt(250000), pct(0)),
			Bounded(decimal.NewFromInt(250000), pct(5)),
			Bounded(lakhs(5), pct(20)),
			Unbounded(pct(30)),
		},
	}
}

// NewRegime returns the new regime schedule.
func NewRegime() Schedule {
	return Schedule{
		Regime: RegimeNew,
		Name:   "New Regime",
		Bands: []Band{
			Bounded(lakhs(3), pct(0)),
			Bounded(lakhs(3), pct(5)),
			Bounded(lakhs(3), pct(10)),
			Bounded(lakhs(3), pct(15)),
			Bounded(lakhs(3), pct(20)),
			Unbounded(pct(30)),
		},
	}
}

// Builtins returns the statutory schedules in display order.
func Builtins() []Schedule {
	return []Schedule{NewRegime(), OldRegime()}
}

// rowName is the label of the income tax row for a schedule.
func (s Schedule) rowName() string {
	name := s.Name
	if name == "" {
		name = string(s.Regime)
	}
	return fmt.Sprintf("Income Tax (%s)", name)
}
