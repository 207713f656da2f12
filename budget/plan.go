package budget

import (
	"strings"
	"time"

	"github.com/Maanicadatta/Batua/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode records who set the allocations.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeSuggested Mode = "suggested"
)

// ParseMode defaults to manual.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeManual, nil
	case ModeManual, ModeSuggested:
		return m, nil
	default:
		return "", &money.InvalidInputError{Field: "mode", Value: s, Reason: "use manual or suggested"}
	}
}

// Plan is a saved (income, allocations) snapshot.
type Plan struct {
	ID          string
	Name        string
	Mode        Mode
	Income      decimal.Decimal
	Allocations AllocationSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPlan builds a plan with a fresh id and normalized allocations.
func NewPlan(name string, mode Mode, income decimal.Decimal, set AllocationSet, now time.Time) Plan {
	if strings.TrimSpace(name) == "" {
		name = "Monthly budget"
	}
	return Plan{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Mode:        mode,
		Income:      money.ClampNonNegative(income),
		Allocations: set.Normalized(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

// Totals recomputes the plan's derived values.
func (p Plan) Totals() Totals {
	return Recompute(p.Income, p.Allocations)
}
