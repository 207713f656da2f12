package api

import (
	"net/http"
	"time"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// RecomputeBudget derives totals, percentages and the over-allocation flag
// from the latest snapshot. Over-allocation is reported, not rejected.
// POST /api/budget/recompute
func (h *Handler) RecomputeBudget(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cur, err := h.currency(r, req.Currency)
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}
	set, err := allocationSet(req.Allocations)
	if err != nil {
		writeDomainError(w, "Invalid allocations", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toBudgetDTO(budget.Recompute(req.Income, set), cur))
}

// SuggestBudget returns the ratio-based plan for an income.
// POST /api/budget/suggest
func (h *Handler) SuggestBudget(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cur, err := h.currency(r, req.Currency)
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}

	set, err := budget.Suggest(req.Income, h.Ratios)
	if err != nil {
		writeDomainError(w, "Invalid ratios", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toBudgetDTO(budget.Recompute(req.Income, set), cur))
}

// ListPlans returns saved plans, most recently updated first.
// GET /api/budget/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	cur, err := h.currency(r, "")
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = h.toPlanDTO(p, cur)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan saves a new plan. A suggested plan with no allocations is
// filled from the configured ratios.
// POST /api/budget/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	cur, err := h.currency(r, "")
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}

	var req PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	mode, set, err := h.planInput(req)
	if err != nil {
		writeDomainError(w, "Invalid plan", err)
		return
	}

	plan := budget.NewPlan(req.Name, mode, req.Income, set, h.Now())
	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	h.Log.WithField("plan", plan.ID).Info("budget plan created")
	writeJSON(w, http.StatusCreated, h.toPlanDTO(plan, cur))
}

// GetPlan returns one plan.
// GET /api/budget/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	cur, err := h.currency(r, "")
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}
	plan, err := h.Store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Plan not found", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPlanDTO(*plan, cur))
}

// UpdatePlan replaces a plan's name, mode, income and allocations.
// PUT /api/budget/plans/{id}
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	cur, err := h.currency(r, "")
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}

	ctx := r.Context()
	existing, err := h.Store.GetPlan(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Plan not found", err)
		return
	}

	var req PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	mode, set, err := h.planInput(req)
	if err != nil {
		writeDomainError(w, "Invalid plan", err)
		return
	}

	updated := budget.NewPlan(req.Name, mode, req.Income, set, h.Now())
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := h.Store.SavePlan(ctx, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPlanDTO(updated, cur))
}

// DeletePlan removes a plan.
// DELETE /api/budget/plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Plan not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) planInput(req PlanRequest) (budget.Mode, budget.AllocationSet, error) {
	mode, err := budget.ParseMode(req.Mode)
	if err != nil {
		return "", nil, err
	}
	set, err := allocationSet(req.Allocations)
	if err != nil {
		return "", nil, err
	}
	if mode == budget.ModeSuggested && len(req.Allocations) == 0 {
		set, err = budget.Suggest(req.Income, h.Ratios)
		if err != nil {
			return "", nil, err
		}
	}
	return mode, set, nil
}

func allocationSet(in map[string]decimal.Decimal) (budget.AllocationSet, error) {
	set := make(budget.AllocationSet, len(in))
	for name, v := range in {
		b, err := budget.ParseBucket(name)
		if err != nil {
			return nil, err
		}
		set[b] = v
	}
	return set, nil
}

func (h *Handler) toBudgetDTO(t budget.Totals, cur money.Currency) BudgetDTO {
	dto := BudgetDTO{
		Currency:       string(cur),
		Income:         h.amount(t.Income, cur),
		Buckets:        make([]BucketDTO, 0, len(budget.Buckets)),
		TotalAllocated: h.amount(t.TotalAllocated, cur),
		Remaining:      h.amount(t.Remaining, cur),
		OverAllocated:  t.OverAllocated,
	}
	for _, b := range budget.Buckets {
		dto.Buckets = append(dto.Buckets, BucketDTO{
			Bucket:   string(b),
			Label:    b.Label(),
			Amount:   h.amount(t.Allocations[b], cur),
			Percent:  t.PerBucketPercent[b],
			BarWidth: t.BarWidth(b),
		})
	}
	return dto
}

func (h *Handler) toPlanDTO(p budget.Plan, cur money.Currency) PlanDTO {
	return PlanDTO{
		ID:        p.ID,
		Name:      p.Name,
		Mode:      string(p.Mode),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
		Budget:    h.toBudgetDTO(p.Totals(), cur),
	}
}
