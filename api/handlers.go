/*
handlers.go - HTTP API handlers for the Batua finance core

PURPOSE:
  Exposes the tax calculator, budget model, regime registry and stock proxy
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the calculators.

ENDPOINTS:
  Tax:
    POST   /api/tax/calculate          Compute a breakdown (?currency=, ?save=true)
    GET    /api/tax/guidance           "When to pay" text (?earning_type=)
    POST   /api/tax/manual             Manual tax sheet
    GET    /api/tax/calculations       Saved calculations (?limit=)
    GET    /api/tax/advance            Advance tax instalments (?total=&as_of=)

  Regimes:
    GET    /api/tax/regimes            Built-in and custom regimes
    POST   /api/tax/regimes            Register a custom regime from JSON
    GET    /api/tax/regimes/{id}       One regime
    DELETE /api/tax/regimes/{id}       Remove a custom regime

  Budget (budget.go):
    POST   /api/budget/recompute       Derived totals for a snapshot
    POST   /api/budget/suggest         "Let Batua plan my budget"
    GET    /api/budget/plans           Saved plans
    POST   /api/budget/plans           Save a plan
    GET    /api/budget/plans/{id}      One plan
    PUT    /api/budget/plans/{id}      Replace a plan
    DELETE /api/budget/plans/{id}      Delete a plan

  Stocks (stocks.go):
    GET    /api/stocks/search|details|history

  Misc:
    GET    /api/currencies             Display currencies and rates

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - RegimeFactory: JSON to Schedule conversion
  - Calculator: Regime registry plus the tax math
  - Rates: Display currency table (shared with the FX refresher)
  - Market: Twelve Data client

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the calculator (always in INR)
  4. Project amounts into the display currency
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unknown regime or currency
  - 404: Resource not found
  - 500: Internal errors, missing provider key
  - 502: Provider failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/factory"
	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/store/sqlite"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *sqlite.Store
	RegimeFactory *factory.RegimeFactory
	Calculator    *tax.Calculator
	Rates         *money.RateTable
	Market        *marketdata.Client
	Ratios        budget.Ratios

	DefaultCurrency money.Currency
	DefaultRegime   tax.Regime

	Log *logrus.Logger
	Now func() time.Time
}

// NewHandler creates a handler with default settings. Callers replace the
// exported fields to apply configuration.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Handler{
		Store:           store,
		RegimeFactory:   factory.NewRegimeFactory(),
		Calculator:      tax.NewCalculator(),
		Rates:           money.NewRateTable(money.DefaultRates()),
		Market:          marketdata.NewClient("", "", 0, log),
		Ratios:          budget.DefaultRatios(),
		DefaultCurrency: money.INR,
		DefaultRegime:   tax.RegimeNew,
		Log:             log,
		Now:             time.Now,
	}
}

// LoadRegimes registers stored custom regimes with the calculator. Invalid
// records are logged and skipped.
func (h *Handler) LoadRegimes(ctx context.Context) error {
	records, err := h.Store.ListRegimes(ctx)
	if err != nil {
		return err
	}

	for _, r := range records {
		s, err := h.RegimeFactory.ParseRegime(r.ConfigJSON)
		if err == nil {
			err = h.Calculator.Register(s)
		}
		if err != nil {
			h.Log.WithError(err).WithField("regime", r.ID).Warn("skipping stored regime")
		}
	}
	return nil
}

// RegisterSchedules registers schedules from a regimes file.
func (h *Handler) RegisterSchedules(schedules []tax.Schedule) error {
	for _, s := range schedules {
		if err := h.Calculator.Register(s); err != nil {
			return fmt.Errorf("register %s: %w", s.Regime, err)
		}
	}
	return nil
}

// =============================================================================
// TAX HANDLERS
// =============================================================================

// CalculateTax computes the breakdown for the questionnaire answers.
// POST /api/tax/calculate
func (h *Handler) CalculateTax(w http.ResponseWriter, r *http.Request) {
	var req TaxCalculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cur, err := h.currency(r, req.Currency)
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}
	profile, err := h.profileFrom(req)
	if err != nil {
		writeDomainError(w, "Invalid profile", err)
		return
	}

	result, err := h.Calculator.Assess(profile)
	if err != nil {
		writeDomainError(w, "Tax calculation failed", err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, UnavailableDTO{Available: false})
		return
	}

	dto := h.toTaxResultDTO(result, cur)
	if req.Save || r.URL.Query().Get("save") == "true" {
		id, err := h.saveCalculation(r.Context(), result, dto)
		if err != nil {
			writeDomainError(w, "Failed to save calculation", err)
			return
		}
		dto.ID = id
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetGuidance returns when tax is usually paid for an earning type.
// GET /api/tax/guidance?earning_type=self
func (h *Handler) GetGuidance(w http.ResponseWriter, r *http.Request) {
	e, err := tax.ParseEarningType(r.URL.Query().Get("earning_type"))
	if err != nil {
		writeDomainError(w, "Invalid earning type", err)
		return
	}
	g, ok := tax.GuidanceFor(e)
	if !ok {
		writeError(w, http.StatusNotFound, "No guidance for earning type", nil)
		return
	}
	writeJSON(w, http.StatusOK, GuidanceDTO{EarningType: string(e), Title: g.Title, Points: g.Points})
}

// ManualTax computes a free-form tax sheet.
// POST /api/tax/manual
func (h *Handler) ManualTax(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cur, err := h.currency(r, req.Currency)
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}

	sheet := tax.ManualSheet{Income: money.ClampNonNegative(req.Income)}
	var skipped []string
	for _, l := range req.Lines {
		if !sheet.Add(l.Name) {
			skipped = append(skipped, l.Name)
			continue
		}
		sheet.SetPercent(l.Name, string(l.Percent))
	}

	totals := sheet.Totals()
	dto := ManualResultDTO{
		Currency: string(cur),
		HasData:  totals.HasData,
		Rows:     make([]ManualRowDTO, 0, len(totals.Rows)),
		Total:    h.amount(totals.TotalINR, cur),
		Skipped:  skipped,
	}
	for _, row := range totals.Rows {
		dto.Rows = append(dto.Rows, ManualRowDTO{
			Name:    row.Name,
			Percent: row.Percent,
			Amount:  h.amount(row.AmountINR, cur),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListCalculations returns saved calculations, newest first.
// GET /api/tax/calculations?limit=20
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", &money.InvalidInputError{Field: "limit", Value: s, Reason: "must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.Store.ListCalculations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationDTO, len(records))
	for i, c := range records {
		dtos[i] = CalculationDTO{
			ID:        c.ID,
			Regime:    c.Regime,
			Income:    c.IncomeINR,
			TotalTax:  c.TotalTaxINR,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
			Result:    json.RawMessage(c.ResultJSON),
		}
		if c.EffectiveRate != "" {
			dtos[i].EffectiveRate = strPtr(c.EffectiveRate)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AdvanceSchedule splits an annual tax amount into advance tax instalments
// for the financial year containing as_of (default today).
// GET /api/tax/advance?total=156000&as_of=2026-07-01
func (h *Handler) AdvanceSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cur, err := h.currency(r, "")
	if err != nil {
		writeDomainError(w, "Unknown currency", err)
		return
	}
	if q.Get("total") == "" {
		writeError(w, http.StatusBadRequest, "Missing total", nil)
		return
	}
	total, err := money.ParseStrict("total", q.Get("total"))
	if err != nil {
		writeDomainError(w, "Invalid total", err)
		return
	}
	asOf := h.Now()
	if s := q.Get("as_of"); s != "" {
		asOf, err = time.Parse(time.DateOnly, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of, use YYYY-MM-DD", err)
			return
		}
	}

	fy := tax.FiscalYearFor(asOf)
	schedule := tax.AdvanceTaxSchedule(total, fy)
	dto := AdvanceScheduleDTO{
		FiscalYear:  fy.String(),
		Currency:    string(cur),
		Total:       h.amount(total, cur),
		Instalments: make([]InstalmentDTO, len(schedule)),
	}
	next, hasNext := tax.NextInstalment(schedule, asOf)
	for i, in := range schedule {
		dto.Instalments[i] = InstalmentDTO{
			Due:               in.Due.Format(time.DateOnly),
			CumulativePercent: in.CumulativePercent,
			Cumulative:        h.amount(in.CumulativeINR, cur),
			Amount:            h.amount(in.AmountINR, cur),
			Past:              !hasNext || in.Due.Before(next.Due),
		}
		if hasNext && in.Due.Equal(next.Due) {
			dto.Next = &dto.Instalments[i]
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) profileFrom(req TaxCalculateRequest) (tax.Profile, error) {
	regime := h.DefaultRegime
	if req.Regime != "" {
		r, err := tax.ParseRegime(req.Regime)
		if err != nil {
			return tax.Profile{}, err
		}
		regime = r
	}
	earning, err := tax.ParseEarningType(req.EarningType)
	if err != nil {
		return tax.Profile{}, err
	}
	age, err := tax.ParseAgeBand(req.AgeBand)
	if err != nil {
		return tax.Profile{}, err
	}
	res, err := tax.ParseResidency(req.Residency)
	if err != nil {
		return tax.Profile{}, err
	}
	return tax.Profile{
		AnnualIncome:    money.ClampNonNegative(req.AnnualIncome),
		Regime:          regime,
		ProfessionalTax: money.ClampNonNegative(req.ProfessionalTax),
		EarningType:     earning,
		AgeBand:         age,
		Residency:       res,
	}, nil
}

func (h *Handler) saveCalculation(ctx context.Context, result *tax.Result, dto TaxResultDTO) (string, error) {
	id := uuid.NewString()
	dto.ID = id

	profileJSON, err := json.Marshal(dto.Meta)
	if err != nil {
		return "", err
	}
	resultJSON, err := json.Marshal(dto)
	if err != nil {
		return "", err
	}

	rec := sqlite.CalculationRecord{
		ID:          id,
		Regime:      string(result.Meta.Regime),
		IncomeINR:   result.IncomeINR,
		TotalTaxINR: result.TotalTaxINR,
		ProfileJSON: string(profileJSON),
		ResultJSON:  string(resultJSON),
		CreatedAt:   h.Now(),
	}
	if result.EffectiveRate != nil {
		rec.EffectiveRate = result.EffectiveRate.String()
	}
	if err := h.Store.SaveCalculation(ctx, rec); err != nil {
		return "", err
	}
	h.Log.WithFields(logrus.Fields{"id": id, "regime": rec.Regime}).Info("calculation saved")
	return id, nil
}

func (h *Handler) toTaxResultDTO(res *tax.Result, cur money.Currency) TaxResultDTO {
	dto := TaxResultDTO{
		Available:            true,
		Currency:             string(cur),
		Income:               h.amount(res.IncomeINR, cur),
		Rows:                 make([]TaxRowDTO, 0, len(res.Rows)),
		Total:                h.amount(res.TotalTaxINR, cur),
		EffectiveRate:        res.EffectiveRate,
		EffectiveRateDisplay: money.FormatPercent(res.EffectiveRate),
		Meta: TaxMetaDTO{
			EarningType: string(res.Meta.EarningType),
			AgeBand:     string(res.Meta.AgeBand),
			Residency:   string(res.Meta.Residency),
			Regime:      string(res.Meta.Regime),
		},
	}
	for _, row := range res.Rows {
		dto.Rows = append(dto.Rows, TaxRowDTO{Key: row.Key, Name: row.Name, Amount: h.amount(row.AmountINR, cur)})
	}
	for _, b := range res.Bands {
		dto.Bands = append(dto.Bands, BandDTO{From: b.From, To: b.To, Rate: b.Rate, Consumed: b.Consumed, Tax: b.Tax})
	}
	return dto
}

// =============================================================================
// REGIME HANDLERS
// =============================================================================

// ListRegimes returns built-in and custom regimes.
// GET /api/tax/regimes
func (h *Handler) ListRegimes(w http.ResponseWriter, r *http.Request) {
	versions := make(map[string]int)
	if records, err := h.Store.ListRegimes(r.Context()); err == nil {
		for _, rec := range records {
			versions[rec.ID] = rec.Version
		}
	}

	schedules := h.Calculator.Schedules()
	dtos := make([]RegimeDTO, len(schedules))
	for i, s := range schedules {
		dtos[i] = h.toRegimeDTO(s)
		dtos[i].Version = versions[string(s.Regime)]
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRegime registers a custom regime from JSON and stores it.
// POST /api/tax/regimes
func (h *Handler) CreateRegime(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	s, err := h.RegimeFactory.ParseRegime(string(body))
	if err != nil {
		writeDomainError(w, "Invalid regime", err)
		return
	}
	previous, prevErr := h.Calculator.Schedule(s.Regime)
	if err := h.Calculator.Register(s); err != nil {
		writeDomainError(w, "Invalid regime", err)
		return
	}
	// the calculator only keeps what the store has
	rollback := func() {
		if prevErr == nil {
			_ = h.Calculator.Register(previous)
			return
		}
		h.Calculator.Remove(s.Regime)
	}

	config, err := h.RegimeFactory.Marshal(s)
	if err != nil {
		rollback()
		writeError(w, http.StatusInternalServerError, "Failed to encode regime", err)
		return
	}
	if err := h.Store.SaveRegime(r.Context(), sqlite.RegimeRecord{ID: string(s.Regime), Name: s.Name, ConfigJSON: config}); err != nil {
		rollback()
		writeError(w, http.StatusInternalServerError, "Failed to save regime", err)
		return
	}

	h.Log.WithField("regime", s.Regime).Info("custom regime registered")
	writeJSON(w, http.StatusCreated, h.toRegimeDTO(s))
}

// GetRegime returns one regime.
// GET /api/tax/regimes/{id}
func (h *Handler) GetRegime(w http.ResponseWriter, r *http.Request) {
	id, err := tax.ParseRegime(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Invalid regime id", err)
		return
	}
	s, err := h.Calculator.Schedule(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Regime not found", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toRegimeDTO(s))
}

// DeleteRegime removes a custom regime.
// DELETE /api/tax/regimes/{id}
func (h *Handler) DeleteRegime(w http.ResponseWriter, r *http.Request) {
	id, err := tax.ParseRegime(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Invalid regime id", err)
		return
	}
	if id.IsBuiltin() {
		writeError(w, http.StatusBadRequest, "Built-in regimes cannot be removed", nil)
		return
	}
	if !h.Calculator.Remove(id) {
		writeError(w, http.StatusNotFound, "Regime not found", nil)
		return
	}
	if err := h.Store.DeleteRegime(r.Context(), string(id)); err != nil && !money.IsNotFound(err) {
		writeError(w, http.StatusInternalServerError, "Failed to delete regime", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toRegimeDTO(s tax.Schedule) RegimeDTO {
	return RegimeDTO{
		ID:      string(s.Regime),
		Name:    s.Name,
		Builtin: s.Regime.IsBuiltin(),
		Config:  h.RegimeFactory.ToJSON(s),
	}
}

// =============================================================================
// CURRENCIES
// =============================================================================

// ListCurrencies returns the display currencies and their current rates.
// GET /api/currencies
func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	rates := h.Rates.Snapshot()
	currencies := h.Rates.Currencies()
	dtos := make([]CurrencyDTO, len(currencies))
	for i, c := range currencies {
		dtos[i] = CurrencyDTO{
			Code:           string(c),
			Symbol:         c.Symbol(),
			Rate:           rates[c],
			FractionDigits: c.FractionDigits(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// currency resolves the display currency: query parameter, then body
// field, then the configured default.
func (h *Handler) currency(r *http.Request, fromBody string) (money.Currency, error) {
	code := r.URL.Query().Get("currency")
	if code == "" {
		code = fromBody
	}
	if code == "" {
		return h.DefaultCurrency, nil
	}
	c, err := money.ParseCurrency(code)
	if err != nil {
		return "", err
	}
	if _, err := h.Rates.Rate(c); err != nil {
		return "", err
	}
	return c, nil
}

// amount projects an INR amount for display. cur has already been
// resolved against the table, so a lookup failure means a concurrent
// removal and falls back to INR.
func (h *Handler) amount(inr decimal.Decimal, cur money.Currency) AmountDTO {
	v, err := h.Rates.Project(inr, cur)
	if err != nil {
		cur, v = money.INR, inr
	}
	return AmountDTO{INR: inr, Value: v, Display: money.FormatIn(v, cur)}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &money.InvalidInputError{Field: "body", Reason: "empty"}
		}
		return fmt.Errorf("%w: %v", money.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error taxonomy.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case money.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case money.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, money.ErrUpstream):
		writeError(w, http.StatusBadGateway, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func strPtr(s string) *string {
	return &s
}
