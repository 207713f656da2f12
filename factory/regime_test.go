package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Maanicadatta/Batua/factory"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegime_JSON(t *testing.T) {
	f := factory.NewRegimeFactory()

	s, err := f.ParseRegime(`{
		"id": "flat10",
		"name": "Flat 10%",
		"bands": [
			{"width": 300000, "rate": 0},
			{"rate": 0.1}
		]
	}`)
	require.NoError(t, err)

	assert.Equal(t, tax.Regime("flat10"), s.Regime)
	require.Len(t, s.Bands, 2)
	assert.Equal(t, "300000", s.Bands[0].Width.String())
	assert.Nil(t, s.Bands[1].Width)
	assert.Equal(t, "0.1", s.Bands[1].Rate.String())

	// 7,00,000 - 3,00,000 at 10%
	assert.True(t, decimal.NewFromInt(40000).Equal(s.Apply(decimal.NewFromInt(700000))))
}

func TestParseRegime_Invalid(t *testing.T) {
	f := factory.NewRegimeFactory()

	cases := map[string]string{
		"malformed":       `{"id": `,
		"missing id":      `{"bands": [{"rate": 0.1}]}`,
		"no bands":        `{"id": "x"}`,
		"unbounded first": `{"id": "x", "bands": [{"rate": 0.1}, {"width": 10, "rate": 0.2}]}`,
		"rate over one":   `{"id": "x", "bands": [{"rate": 1.5}]}`,
	}
	for name, js := range cases {
		_, err := f.ParseRegime(js)
		assert.ErrorIs(t, err, money.ErrInvalidInput, name)
	}
}

func TestRoundTrip_BuiltinsMatch(t *testing.T) {
	f := factory.NewRegimeFactory()

	for _, s := range tax.Builtins() {
		js, err := f.Marshal(s)
		require.NoError(t, err)

		back, err := f.ParseRegime(js)
		require.NoError(t, err)

		for _, income := range []int64{0, 275000, 650000, 1000001, 2500000} {
			x := decimal.NewFromInt(income)
			assert.True(t, s.Apply(x).Equal(back.Apply(x)), "%s at %d", s.Regime, income)
		}
	}
}

func TestLoadRegimesFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regimes.yaml")
	doc := `
regimes:
  - id: surcharge-demo
    name: Demo
    bands:
      - {width: 500000, rate: 0}
      - {width: 500000, rate: 0.1}
      - {rate: 0.25}
  - id: zero
    name: Zero
    bands:
      - {rate: 0}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	schedules, err := factory.NewRegimeFactory().LoadRegimesFile(path)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	assert.Equal(t, tax.Regime("surcharge-demo"), schedules[0].Regime)
	// 50,000 + 25% of 5,00,000
	assert.True(t, decimal.NewFromInt(175000).Equal(schedules[0].Apply(decimal.NewFromInt(1500000))))
	assert.True(t, schedules[1].Apply(decimal.NewFromInt(1500000)).IsZero())
}

func TestParseRegimesYAML_ReportsIndex(t *testing.T) {
	_, err := factory.NewRegimeFactory().ParseRegimesYAML([]byte("regimes:\n  - id: bad\n    bands: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regimes[0]")
	assert.ErrorIs(t, err, money.ErrInvalidInput)
}
