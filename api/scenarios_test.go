package api

import (
	"net/http"
	"testing"

	"github.com/Maanicadatta/Batua/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListScenarios(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), 4)
}

func TestLoadScenario_AllLoad(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	for _, s := range scenarios {
		rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "`+s.ID+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code, "%s: %s", s.ID, rec.Body.String())
	}
}

func TestLoadScenario_Freelancer(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "freelancer-old"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/tax/calculations", "")
	calcs := decode[[]CalculationDTO](t, rec)
	require.Len(t, calcs, 1)
	assert.Equal(t, "old", calcs[0].Regime)
	assert.Equal(t, "119500", calcs[0].TotalTax.String())

	rec = do(t, router, http.MethodGet, "/api/budget/plans", "")
	plans := decode[[]PlanDTO](t, rec)
	require.Len(t, plans, 1)
	assert.Equal(t, "suggested", plans[0].Mode)
	assert.True(t, plans[0].Budget.Remaining.INR.IsZero())
}

func TestLoadScenario_ResetDropsCustomRegimes(t *testing.T) {
	h := setupTestHandler(t)
	router := NewRouter(h, nil)

	// GIVEN: The custom regime scenario
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "custom-regime"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, err := h.Calculator.Schedule("flat10")
	require.NoError(t, err)

	// WHEN: Loading another scenario
	rec = do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "over-allocated"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: The custom regime and earlier data are gone
	_, err = h.Calculator.Schedule("flat10")
	assert.Error(t, err)
	_, err = h.Calculator.Schedule(tax.RegimeOld)
	assert.NoError(t, err)

	rec = do(t, router, http.MethodGet, "/api/tax/calculations", "")
	assert.Empty(t, decode[[]CalculationDTO](t, rec))

	rec = do(t, router, http.MethodGet, "/api/budget/plans", "")
	plans := decode[[]PlanDTO](t, rec)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].Budget.OverAllocated)
}

func TestLoadScenario_Unknown(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "lottery-win"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
