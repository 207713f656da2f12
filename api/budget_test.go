package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucketByName(t *testing.T, dto BudgetDTO, name string) BucketDTO {
	t.Helper()
	for _, b := range dto.Buckets {
		if b.Bucket == name {
			return b
		}
	}
	t.Fatalf("bucket %s not found", name)
	return BucketDTO{}
}

func TestRecomputeBudget_OverAllocationIsFlagged(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	// GIVEN: Allocations that exceed income
	rec := do(t, router, http.MethodPost, "/api/budget/recompute", `{
		"income": 100000,
		"allocations": {"taxes": 20000, "savings": "30000", "spending": 60000}
	}`)

	// THEN: Remaining is negative, not clamped, and the request succeeds
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[BudgetDTO](t, rec)

	assert.True(t, dto.OverAllocated)
	assert.Equal(t, "110000", dto.TotalAllocated.INR.String())
	assert.Equal(t, "-10000", dto.Remaining.INR.String())
	assert.Equal(t, "-₹10,000", dto.Remaining.Display)

	require.Len(t, dto.Buckets, 4)
	assert.Equal(t, "taxes", dto.Buckets[0].Bucket)
	assert.Equal(t, "investing", dto.Buckets[3].Bucket)
	assert.Equal(t, int64(60), bucketByName(t, dto, "spending").Percent)
	assert.Equal(t, int64(0), bucketByName(t, dto, "investing").Percent)
}

func TestRecomputeBudget_ZeroIncome(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/budget/recompute",
		`{"income": 0, "allocations": {"savings": 5000}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[BudgetDTO](t, rec)
	assert.True(t, dto.OverAllocated)
	for _, b := range dto.Buckets {
		assert.Equal(t, int64(0), b.Percent, b.Bucket)
	}
}

func TestRecomputeBudget_PercentRoundsHalfUp(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/budget/recompute?currency=EUR",
		`{"income": 200, "allocations": {"taxes": 1, "savings": 3}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[BudgetDTO](t, rec)
	assert.Equal(t, "EUR", dto.Currency)
	assert.Equal(t, int64(1), bucketByName(t, dto, "taxes").Percent)   // 0.5 -> 1
	assert.Equal(t, int64(2), bucketByName(t, dto, "savings").Percent) // 1.5 -> 2
	assert.Equal(t, "196", dto.Remaining.INR.String())
	assert.Equal(t, "2.16", dto.Remaining.Value.String())
}

func TestRecomputeBudget_Rejected(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	for name, body := range map[string]string{
		"unknown bucket": `{"income": 1000, "allocations": {"rent": 100}}`,
		"bad amount":     `{"income": 1000, "allocations": {"taxes": "a lot"}}`,
		"bad currency":   `{"income": 1000, "currency": "JPY"}`,
	} {
		rec := do(t, router, http.MethodPost, "/api/budget/recompute", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestSuggestBudget(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/budget/suggest", `{"income": 80000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[BudgetDTO](t, rec)
	assert.False(t, dto.OverAllocated)
	assert.Equal(t, "12000", bucketByName(t, dto, "taxes").Amount.INR.String())
	assert.Equal(t, "16000", bucketByName(t, dto, "savings").Amount.INR.String())
	assert.Equal(t, "32000", bucketByName(t, dto, "spending").Amount.INR.String())
	assert.Equal(t, "20000", bucketByName(t, dto, "investing").Amount.INR.String())
	assert.True(t, dto.Remaining.INR.IsZero())
}

func TestPlans_Lifecycle(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	// GIVEN: A manual plan
	rec := do(t, router, http.MethodPost, "/api/budget/plans", `{
		"name": "April",
		"income": 100000,
		"allocations": {"taxes": 15000, "savings": 20000}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[PlanDTO](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "manual", created.Mode)
	assert.Equal(t, "65000", created.Budget.Remaining.INR.String())
	assert.Equal(t, "2026-04-01T09:00:00Z", created.CreatedAt)

	// WHEN: Fetching, listing and replacing it
	rec = do(t, router, http.MethodGet, "/api/budget/plans/"+created.ID+"?currency=USD", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[PlanDTO](t, rec)
	assert.Equal(t, "April", fetched.Name)
	assert.Equal(t, "$780.00", fetched.Budget.Remaining.Display)

	rec = do(t, router, http.MethodPut, "/api/budget/plans/"+created.ID, `{
		"name": "April v2",
		"income": 100000,
		"allocations": {"taxes": 15000, "savings": 20000, "spending": 70000}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[PlanDTO](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.Budget.OverAllocated)

	rec = do(t, router, http.MethodGet, "/api/budget/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode[[]PlanDTO](t, rec)
	require.Len(t, plans, 1)
	assert.Equal(t, "April v2", plans[0].Name)

	// THEN: Deleting removes it
	rec = do(t, router, http.MethodDelete, "/api/budget/plans/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/budget/plans/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/budget/plans/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlans_WriteHonoursCurrency(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	// GIVEN: A plan created with a EUR display currency
	rec := do(t, router, http.MethodPost, "/api/budget/plans?currency=EUR",
		`{"name": "May", "income": 100000, "allocations": {"taxes": 15000, "savings": 20000}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[PlanDTO](t, rec)

	// THEN: The response is projected into EUR
	assert.Equal(t, "EUR", created.Budget.Currency)
	assert.Equal(t, "€715.00", created.Budget.Remaining.Display)

	// WHEN: Replacing it with a USD display currency
	rec = do(t, router, http.MethodPut, "/api/budget/plans/"+created.ID+"?currency=USD",
		`{"name": "May", "income": 100000, "allocations": {"taxes": 15000, "savings": 20000, "spending": 70000}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[PlanDTO](t, rec)
	assert.Equal(t, "USD", updated.Budget.Currency)
	assert.Equal(t, "-$60.00", updated.Budget.Remaining.Display)

	// An unknown currency is rejected before anything is saved
	rec = do(t, router, http.MethodPost, "/api/budget/plans?currency=XYZ", `{"name": "June", "income": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/budget/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]PlanDTO](t, rec), 1)
}

func TestCreatePlan_SuggestedFillsFromRatios(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/budget/plans",
		`{"mode": "suggested", "income": 80000}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := decode[PlanDTO](t, rec)
	assert.Equal(t, "Monthly budget", plan.Name)
	assert.Equal(t, "suggested", plan.Mode)
	assert.Equal(t, "32000", bucketByName(t, plan.Budget, "spending").Amount.INR.String())
}

func TestPlans_Rejected(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	rec := do(t, router, http.MethodPost, "/api/budget/plans", `{"mode": "auto", "income": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/budget/plans/missing", `{"income": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
