/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario saves budget plans, tax calculations and
	sometimes a custom regime that demonstrate specific features.

AVAILABLE SCENARIOS:

	salaried-new:    Salaried employee on the new regime, manual budget
	freelancer-old:  Self-employed on the old regime with professional tax
	over-allocated:  Budget that exceeds income (negative remaining)
	custom-regime:   A flat custom regime next to the statutory ones

HOW SCENARIOS WORK:
 1. Reset database (clear all data) and drop stored custom regimes
 2. Register regimes via factory
 3. Run calculations through the calculator and save them
 4. Save budget plans

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "freelancer-old"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: CalculateTax and regime handlers
  - factory/regime.go: Regime JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/store/sqlite"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/shopspring/decimal"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "salaried-new",
		Name:        "Salaried, New Regime",
		Description: "₹15L salary on the new regime with a manual monthly budget",
		Category:    "tax",
	},
	{
		ID:          "freelancer-old",
		Name:        "Freelancer, Old Regime",
		Description: "₹10L self-employed income on the old regime with ₹2,500 professional tax and a suggested budget",
		Category:    "tax",
	},
	{
		ID:          "over-allocated",
		Name:        "Over-allocated Budget",
		Description: "Allocations exceed income so remaining goes negative",
		Category:    "budget",
	},
	{
		ID:          "custom-regime",
		Name:        "Custom Regime",
		Description: "Flat 10% above ₹3L registered next to the statutory regimes",
		Category:    "tax",
	},
}

const flatRegimeJSON = `{
	"id": "flat10",
	"name": "Flat 10%",
	"bands": [
		{"width": 300000, "rate": 0},
		{"rate": 0.1}
	]
}`

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var loader func(context.Context) error
	switch req.ScenarioID {
	case "salaried-new":
		loader = h.loadSalariedScenario
	case "freelancer-old":
		loader = h.loadFreelancerScenario
	case "over-allocated":
		loader = h.loadOverAllocatedScenario
	case "custom-regime":
		loader = h.loadCustomRegimeScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.resetData(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := loader(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// resetData clears the store and unregisters the custom regimes it held.
func (h *Handler) resetData(ctx context.Context) error {
	stored, err := h.Store.ListRegimes(ctx)
	if err != nil {
		return err
	}
	for _, rec := range stored {
		h.Calculator.Remove(tax.Regime(rec.ID))
	}
	return h.Store.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSalariedScenario(ctx context.Context) error {
	if err := h.seedCalculation(ctx, tax.Profile{
		AnnualIncome: decimal.NewFromInt(1500000),
		Regime:       tax.RegimeNew,
		EarningType:  tax.EarningSalary,
	}); err != nil {
		return err
	}

	return h.seedPlan(ctx, "April budget", budget.ModeManual, 125000, budget.AllocationSet{
		budget.Taxes:     decimal.NewFromInt(13000),
		budget.Savings:   decimal.NewFromInt(25000),
		budget.Spending:  decimal.NewFromInt(55000),
		budget.Investing: decimal.NewFromInt(30000),
	})
}

func (h *Handler) loadFreelancerScenario(ctx context.Context) error {
	if err := h.seedCalculation(ctx, tax.Profile{
		AnnualIncome:    decimal.NewFromInt(1000000),
		Regime:          tax.RegimeOld,
		ProfessionalTax: decimal.NewFromInt(2500),
		EarningType:     tax.EarningSelf,
	}); err != nil {
		return err
	}

	set, err := budget.Suggest(decimal.NewFromInt(80000), h.Ratios)
	if err != nil {
		return err
	}
	return h.seedPlan(ctx, "Suggested plan", budget.ModeSuggested, 80000, set)
}

func (h *Handler) loadOverAllocatedScenario(ctx context.Context) error {
	return h.seedPlan(ctx, "Too ambitious", budget.ModeManual, 100000, budget.AllocationSet{
		budget.Taxes:    decimal.NewFromInt(20000),
		budget.Savings:  decimal.NewFromInt(30000),
		budget.Spending: decimal.NewFromInt(60000),
	})
}

func (h *Handler) loadCustomRegimeScenario(ctx context.Context) error {
	s, err := h.RegimeFactory.ParseRegime(flatRegimeJSON)
	if err != nil {
		return err
	}
	if err := h.Calculator.Register(s); err != nil {
		return err
	}
	config, err := h.RegimeFactory.Marshal(s)
	if err != nil {
		return err
	}
	if err := h.Store.SaveRegime(ctx, sqlite.RegimeRecord{ID: string(s.Regime), Name: s.Name, ConfigJSON: config}); err != nil {
		return err
	}

	return h.seedCalculation(ctx, tax.Profile{
		AnnualIncome: decimal.NewFromInt(1000000),
		Regime:       s.Regime,
		EarningType:  tax.EarningSalary,
	})
}

func (h *Handler) seedCalculation(ctx context.Context, p tax.Profile) error {
	result, err := h.Calculator.Assess(p)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("scenario profile has no income")
	}
	_, err = h.saveCalculation(ctx, result, h.toTaxResultDTO(result, money.INR))
	return err
}

func (h *Handler) seedPlan(ctx context.Context, name string, mode budget.Mode, income int64, set budget.AllocationSet) error {
	plan := budget.NewPlan(name, mode, decimal.NewFromInt(income), set, h.Now())
	return h.Store.SavePlan(ctx, plan)
}
