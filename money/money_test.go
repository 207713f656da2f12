package money_test

import (
	"errors"
	"testing"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// INPUT HANDLING
// =============================================================================

func TestParseLenient(t *testing.T) {
	cases := map[string]string{
		"":          "0",
		"   ":       "0",
		"abc":       "0",
		"-500":      "0",
		"1,20,000":  "120000",
		" 2500.50 ": "2500.5",
	}
	for in, want := range cases {
		assert.True(t, d(want).Equal(money.ParseLenient(in)), "input %q", in)
	}
}

func TestParseStrict_RejectsGarbageAndNegatives(t *testing.T) {
	_, err := money.ParseStrict("income", "12x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, money.ErrInvalidInput))

	var inErr *money.InvalidInputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "income", inErr.Field)

	_, err = money.ParseStrict("income", "-1")
	assert.ErrorIs(t, err, money.ErrInvalidInput)

	v, err := money.ParseStrict("income", "")
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestPercent_ZeroBaseIsDegenerate(t *testing.T) {
	_, err := money.Percent(d("10"), decimal.Zero)
	assert.ErrorIs(t, err, money.ErrDegenerateState)
	assert.True(t, money.IsClientError(err))

	p, err := money.Percent(d("25"), d("200"))
	require.NoError(t, err)
	assert.True(t, d("12.5").Equal(p))
}

// =============================================================================
// CURRENCY PROJECTION
// =============================================================================

func TestRateTable_ProjectRoundsOnlyAtTheEnd(t *testing.T) {
	rates := money.NewRateTable(money.DefaultRates())

	// 112500.30 * 0.012 = 1350.0036 -> 1350.00
	v, err := rates.Project(d("112500.30"), money.USD)
	require.NoError(t, err)
	assert.Equal(t, "1350", v.String())

	inr, err := rates.Project(d("4500.6"), money.INR)
	require.NoError(t, err)
	assert.Equal(t, "4501", inr.String())

	_, err = rates.Project(d("1"), money.Currency("JPY"))
	assert.ErrorIs(t, err, money.ErrUnknownCurrency)
}

func TestRateTable_SetIgnoresBaseAndNonPositive(t *testing.T) {
	rates := money.NewRateTable(nil)
	assert.False(t, rates.Set(money.INR, d("2")))
	assert.False(t, rates.Set(money.USD, decimal.Zero))
	assert.True(t, rates.Set(money.USD, d("0.0119")))

	r, err := rates.Rate(money.USD)
	require.NoError(t, err)
	assert.Equal(t, "0.0119", r.String())
	assert.Equal(t, []money.Currency{money.INR, money.USD}, rates.Currencies())
}

func TestParseCurrency(t *testing.T) {
	c, err := money.ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, money.USD, c)

	c, err = money.ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, money.INR, c)

	_, err = money.ParseCurrency("gbp")
	assert.ErrorIs(t, err, money.ErrUnknownCurrency)
}

// =============================================================================
// FORMATTING
// =============================================================================

func TestFormat(t *testing.T) {
	rates := money.NewRateTable(money.DefaultRates())

	cases := []struct {
		amount string
		cur    money.Currency
		want   string
	}{
		{"1234567", money.INR, "₹12,34,567"},
		{"999", money.INR, "₹999"},
		{"100000", money.INR, "₹1,00,000"},
		{"112500.30", money.INR, "₹1,12,500"},
		{"150000", money.USD, "$1,800.00"},
		{"150000", money.EUR, "€1,650.00"},
		{"0", money.USD, "$0.00"},
	}
	for _, tc := range cases {
		got, err := rates.Format(d(tc.amount), tc.cur)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s", tc.amount, tc.cur)
	}
}

func TestFormatIn_Negative(t *testing.T) {
	assert.Equal(t, "-₹10,000", money.FormatIn(d("-10000"), money.INR))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "-", money.FormatPercent(nil))
	p := d("7.8")
	assert.Equal(t, "7.80%", money.FormatPercent(&p))
}
