package marketdata_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned bodies per endpoint and records queries.
func fakeProvider(t *testing.T, bodies map[string]string) (*httptest.Server, map[string]url.Values) {
	t.Helper()
	seen := make(map[string]url.Values)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path[1:]
		seen[endpoint] = r.URL.Query()
		body, ok := bodies[endpoint]
		if !ok {
			http.Error(w, `{"message":"nope"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMissingKey(t *testing.T) {
	c := marketdata.NewClient("http://unused", "", time.Second, quietLog())
	ctx := context.Background()

	_, err := c.Search(ctx, "tesla")
	assert.ErrorIs(t, err, money.ErrMissingAPIKey)
	_, err = c.Details(ctx, "TSLA", "")
	assert.ErrorIs(t, err, money.ErrMissingAPIKey)
	_, err = c.History(ctx, "TSLA", "", "", "")
	assert.ErrorIs(t, err, money.ErrMissingAPIKey)
	assert.False(t, c.HasKey())
}

func TestSearch_Normalizes(t *testing.T) {
	srv, seen := fakeProvider(t, map[string]string{
		"symbol_search": `{"data":[
			{"symbol":"TSLA","instrument_name":"Tesla Inc","exchange":"NASDAQ","mic_code":"XNGS","country":"United States","currency":"USD","instrument_type":"Common Stock"},
			{"symbol":"TL0","exchange":"XETR"}
		],"status":"ok"}`,
	})
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	got, err := c.Search(context.Background(), "  tesla ")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Tesla Inc", got[0].CompanyName)
	assert.Equal(t, "TSLA", got[0].TickerSymbol)
	assert.Equal(t, "XNGS", got[0].MICCode)
	// falls back to the symbol when no name is given
	assert.Equal(t, "TL0", got[1].CompanyName)

	q := seen["symbol_search"]
	assert.Equal(t, "tesla", q.Get("symbol"))
	assert.Equal(t, "25", q.Get("outputsize"))
	assert.Equal(t, "key", q.Get("apikey"))
}

func TestSearch_ShortQuerySkipsProvider(t *testing.T) {
	srv, seen := fakeProvider(t, nil)
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	got, err := c.Search(context.Background(), " t ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Empty(t, seen)
}

func TestDetails_QuoteAndProfile(t *testing.T) {
	srv, seen := fakeProvider(t, map[string]string{
		"quote":   `{"symbol":"INFY","exchange":"NSE","currency":"INR","close":"1520.35","change":"-4.10","percent_change":"-0.27","open":"1530","previous_close":"1524.45","low":"1510","high":"1534.9"}`,
		"profile": `{"description":"Infosys provides IT services."}`,
	})
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	d, err := c.Details(context.Background(), "INFY", "NSE")
	require.NoError(t, err)

	assert.Equal(t, "INFY:NSE", seen["quote"].Get("symbol"))
	assert.Equal(t, "INFY:NSE", seen["profile"].Get("symbol"))
	require.NotNil(t, d.Exchange)
	assert.Equal(t, "NSE", *d.Exchange)
	assert.Equal(t, "1520.35", d.LastPrice)
	assert.Equal(t, "-0.27", d.ChangePct)
	assert.Equal(t, marketdata.Placeholder, d.Volume)
	assert.Equal(t, "Infosys provides IT services.", d.About)
}

func TestDetails_ProfileFailureFallsBack(t *testing.T) {
	srv, _ := fakeProvider(t, map[string]string{
		"quote": `{"price":"12.5"}`,
	})
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	d, err := c.Details(context.Background(), "ABC", "")
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.LastPrice)
	assert.Nil(t, d.Exchange)
	assert.Nil(t, d.Currency)
	assert.Equal(t, marketdata.DefaultAbout, d.About)
}

func TestDetails_MissingSymbol(t *testing.T) {
	c := marketdata.NewClient("http://unused", "key", time.Second, quietLog())
	_, err := c.Details(context.Background(), " ", "NSE")
	assert.ErrorIs(t, err, money.ErrInvalidInput)
}

func TestHistory_OldestFirst(t *testing.T) {
	srv, seen := fakeProvider(t, map[string]string{
		"time_series": `{"values":[
			{"datetime":"2026-04-03","open":"3","high":"3.5","low":"2.5","close":"3.2","volume":"900"},
			{"datetime":"2026-04-02","open":"2","high":"2.5","low":"1.5","close":"2.2"},
			{"datetime":"2026-04-01","open":"1","high":"1.5","low":"0.5","close":"1.2","volume":"100"}
		],"status":"ok"}`,
	})
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	candles, err := c.History(context.Background(), "TSLA", "", "5y", "")
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, "2026-04-01", candles[0].Time)
	assert.Equal(t, "2026-04-03", candles[2].Time)
	assert.Equal(t, 3.2, candles[2].Close)
	assert.Nil(t, candles[1].Volume)
	require.NotNil(t, candles[0].Volume)
	assert.Equal(t, 100.0, *candles[0].Volume)

	q := seen["time_series"]
	assert.Equal(t, "1day", q.Get("interval"))
	assert.Equal(t, "1200", q.Get("outputsize"))
}

func TestOutputSize(t *testing.T) {
	assert.Equal(t, 80, marketdata.OutputSize("1d"))
	assert.Equal(t, 400, marketdata.OutputSize("1y"))
	assert.Equal(t, 5000, marketdata.OutputSize("max"))
	assert.Equal(t, 400, marketdata.OutputSize("10y"))
}

func TestUpstreamErrors(t *testing.T) {
	srv, _ := fakeProvider(t, map[string]string{
		"quote": `{"code":401,"message":"invalid api key","status":"error"}`,
	})
	c := marketdata.NewClient(srv.URL, "bad", time.Second, quietLog())

	_, err := c.Details(context.Background(), "TSLA", "")
	require.ErrorIs(t, err, money.ErrUpstream)
	var up *money.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, 401, up.Status)
	assert.Equal(t, "quote", up.Endpoint)

	// unknown endpoint on the fake returns 404
	_, err = c.History(context.Background(), "TSLA", "", "", "")
	assert.ErrorIs(t, err, money.ErrUpstream)
}

func TestExchangeRate(t *testing.T) {
	srv, seen := fakeProvider(t, map[string]string{
		"exchange_rate": `{"symbol":"INR/USD","rate":0.01195,"timestamp":1760000000}`,
	})
	c := marketdata.NewClient(srv.URL, "key", time.Second, quietLog())

	rate, err := c.ExchangeRate(context.Background(), money.INR, money.USD)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.01195").Equal(rate))
	assert.Equal(t, "INR/USD", seen["exchange_rate"].Get("symbol"))
}
