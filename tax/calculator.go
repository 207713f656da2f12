package tax

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
)

// CessRate is the health & education cess applied to base tax.
var CessRate = decimal.New(4, -2)

// =============================================================================
// PROFILE
// =============================================================================

// EarningType is the answer to "are you currently earning money in India?".
type EarningType string

const (
	EarningNone    EarningType = "none"
	EarningSalary  EarningType = "salary"
	EarningSelf    EarningType = "self"
	EarningRetired EarningType = "retired"
)

// AgeBand is informational and carried into Meta.
type AgeBand string

const (
	AgeUnder60 AgeBand = "under60"
	Age60To80  AgeBand = "60to80"
	AgeOver80  AgeBand = "over80"
)

// Residency is informational and carried into Meta.
type Residency string

const (
	Resident    Residency = "resident"
	NonResident Residency = "nri"
)

// ParseEarningType defaults to salary, matching the questionnaire.
func ParseEarningType(s string) (EarningType, error) {
	switch e := EarningType(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EarningSalary, nil
	case EarningNone, EarningSalary, EarningSelf, EarningRetired:
		return e, nil
	default:
		return "", &money.InvalidInputError{Field: "earning_type", Value: s, Reason: "use none, salary, self or retired"}
	}
}

// ParseAgeBand defaults to under60.
func ParseAgeBand(s string) (AgeBand, error) {
	switch a := AgeBand(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AgeUnder60, nil
	case AgeUnder60, Age60To80, AgeOver80:
		return a, nil
	default:
		return "", &money.InvalidInputError{Field: "age_band", Value: s, Reason: "use under60, 60to80 or over80"}
	}
}

// ParseResidency defaults to resident.
func ParseResidency(s string) (Residency, error) {
	switch r := Residency(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return Resident, nil
	case Resident, NonResident:
		return r, nil
	default:
		return "", &money.InvalidInputError{Field: "residency", Value: s, Reason: "use resident or nri"}
	}
}

// Profile is one calculation request. Amounts are annual INR.
type Profile struct {
	AnnualIncome    decimal.Decimal
	Regime          Regime
	ProfessionalTax decimal.Decimal
	EarningType     EarningType
	AgeBand         AgeBand
	Residency       Residency
}

// =============================================================================
// RESULT
// =============================================================================

// Row keys.
const (
	RowIncome       = "income"
	RowCess         = "cess"
	RowProfessional = "pt"
)

// Row is one line of the breakdown, in INR.
type Row struct {
	Key       string
	Name      string
	AmountINR decimal.Decimal
}

// Meta echoes the questionnaire answers.
type Meta struct {
	EarningType EarningType
	AgeBand     AgeBand
	Residency   Residency
	Regime      Regime
}

// Result is a computed breakdown. EffectiveRate is nil when IncomeINR is
// zero; a percentage over zero income is never produced.
type Result struct {
	IncomeINR     decimal.Decimal
	BaseTaxINR    decimal.Decimal
	Rows          []Row
	TotalTaxINR   decimal.Decimal
	EffectiveRate *decimal.Decimal
	Bands         []BandTax
	Meta          Meta
}

// Degenerate reports whether the result is the "not earning" short-circuit.
func (r *Result) Degenerate() bool {
	return r != nil && r.IncomeINR.IsZero() && len(r.Rows) == 0
}

// Row returns the row with the given key.
func (r *Result) Row(key string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return Row{}, false
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes tax against a registry of schedules. The registry is
// guarded so custom regimes can be registered while requests are served;
// the computation itself holds no state.
type Calculator struct {
	mu        sync.RWMutex
	schedules map[Regime]Schedule
}

// NewCalculator creates a calculator with the built-in regimes.
func NewCalculator() *Calculator {
	c := &Calculator{schedules: make(map[Regime]Schedule)}
	for _, s := range Builtins() {
		c.schedules[s.Regime] = s
	}
	return c
}

// Register adds or replaces a custom schedule. Built-in regimes cannot be
// replaced.
func (c *Calculator) Register(s Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Regime.IsBuiltin() {
		return &money.InvalidInputError{Field: "regime", Value: string(s.Regime), Reason: "built-in regimes cannot be replaced"}
	}
	c.mu.Lock()
	c.schedules[s.Regime] = s
	c.mu.Unlock()
	return nil
}

// Remove drops a custom schedule.
func (c *Calculator) Remove(r Regime) bool {
	if r.IsBuiltin() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.schedules[r]; !ok {
		return false
	}
	delete(c.schedules, r)
	return true
}

// Schedule looks up a registered schedule.
func (c *Calculator) Schedule(r Regime) (Schedule, error) {
	c.mu.RLock()
	s, ok := c.schedules[r]
	c.mu.RUnlock()
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %s", money.ErrUnknownRegime, r)
	}
	return s, nil
}

// Schedules lists registered schedules, built-ins first then by id.
func (c *Calculator) Schedules() []Schedule {
	c.mu.RLock()
	out := make([]Schedule, 0, len(c.schedules))
	for _, s := range c.schedules {
		out = append(out, s)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].Regime.IsBuiltin(), out[j].Regime.IsBuiltin()
		if bi != bj {
			return bi
		}
		if bi {
			return builtinRank(out[i].Regime) < builtinRank(out[j].Regime)
		}
		return out[i].Regime < out[j].Regime
	})
	return out
}

// builtinRank is the position of r in Builtins(), or -1.
func builtinRank(r Regime) int {
	for i, s := range Builtins() {
		if s.Regime == r {
			return i
		}
	}
	return -1
}

// Compute returns the breakdown for p. A nil result with a nil error means
// no calculation is available because income is zero (negative income is
// treated as zero).
func (c *Calculator) Compute(p Profile) (*Result, error) {
	income := money.ClampNonNegative(p.AnnualIncome)
	if income.IsZero() {
		return nil, nil
	}

	regime := p.Regime
	if regime == "" {
		regime = RegimeNew
	}
	s, err := c.Schedule(regime)
	if err != nil {
		return nil, err
	}

	baseTax := s.Apply(income)
	cess := baseTax.Mul(CessRate)
	profTax := money.ClampNonNegative(p.ProfessionalTax)

	var rows []Row
	if baseTax.IsPositive() {
		rows = append(rows, Row{Key: RowIncome, Name: s.rowName(), AmountINR: baseTax})
	}
	if cess.IsPositive() {
		rows = append(rows, Row{Key: RowCess, Name: "Health & Education Cess (4%)", AmountINR: cess})
	}
	if profTax.IsPositive() {
		rows = append(rows, Row{Key: RowProfessional, Name: "Professional Tax (State)", AmountINR: profTax})
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.AmountINR)
	}
	rate, err := money.Percent(total, income)
	if err != nil {
		return nil, err
	}

	return &Result{
		IncomeINR:     income,
		BaseTaxINR:    baseTax,
		Rows:          rows,
		TotalTaxINR:   total,
		EffectiveRate: &rate,
		Bands:         s.Breakdown(income),
		Meta:          metaFor(p, regime),
	}, nil
}

// Assess is the questionnaire entry point. Someone who is not earning gets
// the degenerate result without touching the slab math; everyone else goes
// through Compute.
func (c *Calculator) Assess(p Profile) (*Result, error) {
	if p.EarningType == EarningNone {
		zero := decimal.Zero
		return &Result{
			IncomeINR:     decimal.Zero,
			BaseTaxINR:    decimal.Zero,
			Rows:          []Row{},
			TotalTaxINR:   decimal.Zero,
			EffectiveRate: &zero,
			Meta:          metaFor(p, p.Regime),
		}, nil
	}
	return c.Compute(p)
}

func metaFor(p Profile, regime Regime) Meta {
	m := Meta{EarningType: p.EarningType, AgeBand: p.AgeBand, Residency: p.Residency, Regime: regime}
	if m.EarningType == "" {
		m.EarningType = EarningSalary
	}
	if m.AgeBand == "" {
		m.AgeBand = AgeUnder60
	}
	if m.Residency == "" {
		m.Residency = Resident
	}
	if m.Regime == "" {
		m.Regime = RegimeNew
	}
	return m
}
