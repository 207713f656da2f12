package marketdata_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRates struct {
	mu    sync.Mutex
	rates map[money.Currency]decimal.Decimal
	calls []string
}

func (s *stubRates) ExchangeRate(_ context.Context, from, to money.Currency) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, string(from)+"/"+string(to))
	r, ok := s.rates[to]
	if !ok {
		return decimal.Zero, &money.UpstreamError{Endpoint: "exchange_rate", Message: "no quote"}
	}
	return r, nil
}

func TestRefreshNow_UpdatesAndKeepsOnFailure(t *testing.T) {
	// GIVEN: A provider that only knows USD
	src := &stubRates{rates: map[money.Currency]decimal.Decimal{
		money.USD: decimal.RequireFromString("0.0119"),
	}}
	table := money.NewRateTable(money.DefaultRates())
	r := marketdata.NewRateRefresher(src, table, quietLog())

	// WHEN: Refreshing
	updated := r.RefreshNow(context.Background())

	// THEN: USD moves, EUR keeps its previous rate, INR is never fetched
	assert.Equal(t, 1, updated)
	usd, err := table.Rate(money.USD)
	require.NoError(t, err)
	assert.Equal(t, "0.0119", usd.String())

	eur, err := table.Rate(money.EUR)
	require.NoError(t, err)
	assert.Equal(t, "0.011", eur.String())

	assert.ElementsMatch(t, []string{"INR/EUR", "INR/USD"}, src.calls)
}

func TestSchedule_RejectsBadSpec(t *testing.T) {
	r := marketdata.NewRateRefresher(&stubRates{}, money.NewRateTable(nil), quietLog())
	assert.Error(t, r.Schedule("whenever"))
	require.NoError(t, r.Schedule("@every 1h"))

	r.Start()
	r.Stop()
}
