/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calculators from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Request amounts are decimal.Decimal, which accepts both 1500000 and
  "1500000". Anything else fails to decode and is a 400. Response amounts
  are AmountDTO: the INR value, the value in the display currency and the
  formatted string.

TYPES:
  Tax:
    TaxCalculateRequest, TaxResultDTO, TaxRowDTO, BandDTO, GuidanceDTO,
    ManualRequest, ManualResultDTO, AdvanceScheduleDTO

  Regimes:
    RegimeDTO (wraps factory.RegimeJSON)

  History:
    CalculationDTO

  Budget:
    RecomputeRequest, SuggestRequest, BudgetDTO, BucketDTO,
    PlanRequest, PlanDTO

  Misc:
    CurrencyDTO, ErrorResponse

SEE ALSO:
  - handlers.go: Uses these types
  - factory/regime.go: RegimeJSON type
*/
package api

import (
	"encoding/json"

	"github.com/Maanicadatta/Batua/factory"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SHARED
// =============================================================================

// AmountDTO is an INR amount projected into the display currency.
type AmountDTO struct {
	INR     decimal.Decimal `json:"inr"`
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// CurrencyDTO is one display currency.
type CurrencyDTO struct {
	Code           string          `json:"code"`
	Symbol         string          `json:"symbol"`
	Rate           decimal.Decimal `json:"rate"`
	FractionDigits int32           `json:"fraction_digits"`
}

// =============================================================================
// TAX
// =============================================================================

// TaxCalculateRequest is the questionnaire answers.
type TaxCalculateRequest struct {
	AnnualIncome    decimal.Decimal `json:"annual_income"`
	Regime          string          `json:"regime"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
	EarningType     string          `json:"earning_type"`
	AgeBand         string          `json:"age_band"`
	Residency       string          `json:"residency"`
	Currency        string          `json:"currency,omitempty"`
	Save            bool            `json:"save,omitempty"`
}

// TaxRowDTO is one breakdown line.
type TaxRowDTO struct {
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Amount AmountDTO `json:"amount"`
}

// BandDTO is one band's share of the income. To is nil for the top band.
type BandDTO struct {
	From     decimal.Decimal  `json:"from"`
	To       *decimal.Decimal `json:"to"`
	Rate     decimal.Decimal  `json:"rate"`
	Consumed decimal.Decimal  `json:"consumed"`
	Tax      decimal.Decimal  `json:"tax"`
}

// TaxMetaDTO echoes the questionnaire.
type TaxMetaDTO struct {
	EarningType string `json:"earning_type"`
	AgeBand     string `json:"age_band"`
	Residency   string `json:"residency"`
	Regime      string `json:"regime"`
}

// TaxResultDTO is a computed breakdown.
type TaxResultDTO struct {
	Available            bool             `json:"available"`
	ID                   string           `json:"id,omitempty"`
	Currency             string           `json:"currency"`
	Income               AmountDTO        `json:"income"`
	Rows                 []TaxRowDTO      `json:"rows"`
	Total                AmountDTO        `json:"total"`
	EffectiveRate        *decimal.Decimal `json:"effective_rate"`
	EffectiveRateDisplay string           `json:"effective_rate_display"`
	Bands                []BandDTO        `json:"bands,omitempty"`
	Meta                 TaxMetaDTO       `json:"meta"`
}

// UnavailableDTO is returned when no calculation can be produced.
type UnavailableDTO struct {
	Available bool `json:"available"`
}

// GuidanceDTO is the "when to pay" panel.
type GuidanceDTO struct {
	EarningType string   `json:"earning_type"`
	Title       string   `json:"title"`
	Points      []string `json:"points"`
}

// ManualLineRequest is one user-named tax line. Percent is parsed leniently.
type ManualLineRequest struct {
	Name    string      `json:"name"`
	Percent LenientText `json:"percent"`
}

// LenientText takes the raw text of a JSON string or number. Anything else
// (null, bool, object) decodes to "" and later parses as zero.
type LenientText string

// UnmarshalJSON accepts both 10 and "10".
func (t *LenientText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LenientText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = LenientText(n)
		return nil
	}
	*t = ""
	return nil
}

// ManualRequest is the "I know my taxes" sheet.
type ManualRequest struct {
	Income   decimal.Decimal     `json:"income"`
	Lines    []ManualLineRequest `json:"lines"`
	Currency string              `json:"currency,omitempty"`
}

// ManualRowDTO is one computed manual line.
type ManualRowDTO struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
	Amount  AmountDTO       `json:"amount"`
}

// ManualResultDTO is the computed sheet.
type ManualResultDTO struct {
	Currency string         `json:"currency"`
	HasData  bool           `json:"has_data"`
	Rows     []ManualRowDTO `json:"rows"`
	Total    AmountDTO      `json:"total"`
	Skipped  []string       `json:"skipped,omitempty"`
}

// InstalmentDTO is one advance tax due date.
type InstalmentDTO struct {
	Due               string    `json:"due"`
	CumulativePercent int64     `json:"cumulative_percent"`
	Cumulative        AmountDTO `json:"cumulative"`
	Amount            AmountDTO `json:"amount"`
	Past              bool      `json:"past"`
}

// AdvanceScheduleDTO is the advance tax plan for one financial year.
type AdvanceScheduleDTO struct {
	FiscalYear  string          `json:"fiscal_year"`
	Currency    string          `json:"currency"`
	Total       AmountDTO       `json:"total"`
	Instalments []InstalmentDTO `json:"instalments"`
	Next        *InstalmentDTO  `json:"next,omitempty"`
}

// =============================================================================
// REGIMES & HISTORY
// =============================================================================

// RegimeDTO represents a regime in API responses.
type RegimeDTO struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Builtin bool               `json:"builtin"`
	Config  factory.RegimeJSON `json:"config"`
	Version int                `json:"version,omitempty"`
}

// CalculationDTO is one saved calculation.
type CalculationDTO struct {
	ID            string          `json:"id"`
	Regime        string          `json:"regime"`
	Income        decimal.Decimal `json:"income"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	EffectiveRate *string         `json:"effective_rate"`
	CreatedAt     string          `json:"created_at"`
	Result        json.RawMessage `json:"result"`
}

// =============================================================================
// BUDGET
// =============================================================================

// RecomputeRequest is an (income, allocations) snapshot.
type RecomputeRequest struct {
	Income      decimal.Decimal            `json:"income"`
	Allocations map[string]decimal.Decimal `json:"allocations"`
	Currency    string                     `json:"currency,omitempty"`
}

// SuggestRequest asks for the ratio-based plan.
type SuggestRequest struct {
	Income   decimal.Decimal `json:"income"`
	Currency string          `json:"currency,omitempty"`
}

// BucketDTO is one bucket's share.
type BucketDTO struct {
	Bucket   string    `json:"bucket"`
	Label    string    `json:"label"`
	Amount   AmountDTO `json:"amount"`
	Percent  int64     `json:"percent"`
	BarWidth int64     `json:"bar_width"`
}

// BudgetDTO is the derived budget view.
type BudgetDTO struct {
	Currency       string      `json:"currency"`
	Income         AmountDTO   `json:"income"`
	Buckets        []BucketDTO `json:"buckets"`
	TotalAllocated AmountDTO   `json:"total_allocated"`
	Remaining      AmountDTO   `json:"remaining"`
	OverAllocated  bool        `json:"over_allocated"`
}

// PlanRequest creates or replaces a plan.
type PlanRequest struct {
	Name        string                     `json:"name"`
	Mode        string                     `json:"mode"`
	Income      decimal.Decimal            `json:"income"`
	Allocations map[string]decimal.Decimal `json:"allocations"`
}

// PlanDTO is a saved plan with its derived view.
type PlanDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Budget    BudgetDTO `json:"budget"`
}
