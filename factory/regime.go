/*
Package factory provides JSON/YAML to Go regime conversion.

PURPOSE:
  Converts regime definitions into tax.Schedule values. This enables custom
  slab schedules without code changes - a regime can be posted to the API
  as JSON, stored in the database, or shipped in a YAML file.

JSON SCHEMA:
  {
    "id": "flat10",
    "name": "Flat 10%",
    "bands": [
      {"width": 300000, "rate": 0},
      {"rate": 0.10}
    ]
  }

  Widths are INR, rates are fractions. A band without "width" is the final
  unbounded band.

YAML FILE:
  regimes:
    - id: flat10
      name: Flat 10%
      bands:
        - {width: 300000, rate: 0}
        - {rate: 0.10}

USAGE:
  f := factory.NewRegimeFactory()
  schedule, err := f.ParseRegime(jsonString)
  calc.Register(schedule)

SEE ALSO:
  - tax/schedule.go: Schedule type definition
  - tax/presets.go: Built-in schedules (and their JSON form via ToJSON)
  - store/sqlite/sqlite.go: Persists regime JSON
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// RegimeJSON is the serialized form of a regime.
type RegimeJSON struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Bands []BandJSON `json:"bands" yaml:"bands"`
}

// BandJSON is one band. Width is omitted for the unbounded band.
type BandJSON struct {
	Width *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Rate  float64  `json:"rate" yaml:"rate"`
}

// regimesFile is the top-level YAML document.
type regimesFile struct {
	Regimes []RegimeJSON `yaml:"regimes"`
}

// =============================================================================
// REGIME FACTORY
// =============================================================================

// RegimeFactory converts regime definitions to schedules.
type RegimeFactory struct{}

// NewRegimeFactory creates a new regime factory.
func NewRegimeFactory() *RegimeFactory {
	return &RegimeFactory{}
}

// ParseRegime parses a JSON string into a validated Schedule.
func (f *RegimeFactory) ParseRegime(jsonStr string) (tax.Schedule, error) {
	var rj RegimeJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return tax.Schedule{}, fmt.Errorf("failed to parse regime JSON: %w: %v", money.ErrInvalidInput, err)
	}
	return f.FromJSON(rj)
}

// ParseRegimesYAML parses a YAML document with a top-level "regimes" list.
func (f *RegimeFactory) ParseRegimesYAML(data []byte) ([]tax.Schedule, error) {
	var doc regimesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse regimes YAML: %w: %v", money.ErrInvalidInput, err)
	}

	out := make([]tax.Schedule, 0, len(doc.Regimes))
	for i, rj := range doc.Regimes {
		s, err := f.FromJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("regimes[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadRegimesFile reads and parses a YAML regimes file.
func (f *RegimeFactory) LoadRegimesFile(path string) ([]tax.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regimes file: %w", err)
	}
	return f.ParseRegimesYAML(data)
}

// FromJSON converts RegimeJSON to a validated Schedule.
func (f *RegimeFactory) FromJSON(rj RegimeJSON) (tax.Schedule, error) {
	regime, err := tax.ParseRegime(rj.ID)
	if err != nil {
		return tax.Schedule{}, err
	}
	if rj.ID == "" {
		return tax.Schedule{}, &money.InvalidInputError{Field: "id", Reason: "required"}
	}

	s := tax.Schedule{Regime: regime, Name: rj.Name}
	for _, bj := range rj.Bands {
		rate := decimal.NewFromFloat(bj.Rate)
		if bj.Width == nil {
			s.Bands = append(s.Bands, tax.Unbounded(rate))
			continue
		}
		s.Bands = append(s.Bands, tax.Bounded(decimal.NewFromFloat(*bj.Width), rate))
	}

	if err := s.Validate(); err != nil {
		return tax.Schedule{}, err
	}
	return s, nil
}

// ToJSON converts a Schedule to RegimeJSON.
func (f *RegimeFactory) ToJSON(s tax.Schedule) RegimeJSON {
	rj := RegimeJSON{ID: string(s.Regime), Name: s.Name}
	for _, b := range s.Bands {
		bj := BandJSON{Rate: b.Rate.InexactFloat64()}
		if b.Width != nil {
			w := b.Width.InexactFloat64()
			bj.Width = &w
		}
		rj.Bands = append(rj.Bands, bj)
	}
	return rj
}

// Marshal serializes a Schedule to its JSON string form.
func (f *RegimeFactory) Marshal(s tax.Schedule) (string, error) {
	b, err := json.Marshal(f.ToJSON(s))
	if err != nil {
		return "", fmt.Errorf("marshal regime: %w", err)
	}
	return string(b), nil
}
