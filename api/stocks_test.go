package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTwelveData serves canned provider responses keyed by endpoint.
func fakeTwelveData(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":"error","code":404,"message":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStocks_MissingKey(t *testing.T) {
	router := NewRouter(setupTestHandler(t), nil)

	for _, path := range []string{
		"/api/stocks/search?q=tesla",
		"/api/stocks/details?symbol=TSLA",
		"/api/stocks/history?symbol=TSLA",
	} {
		rec := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "Missing TWELVE_DATA_API_KEY on server", decode[ErrorResponse](t, rec).Error, path)
	}
}

func TestStocks_ProxyThroughProvider(t *testing.T) {
	srv := fakeTwelveData(t, map[string]string{
		"/symbol_search": `{"data":[{"symbol":"TSLA","instrument_name":"Tesla Inc","exchange":"NASDAQ","currency":"USD"}]}`,
		"/quote":         `{"symbol":"TSLA","exchange":"NASDAQ","currency":"USD","close":"250.10","change":"1.2"}`,
		"/time_series": `{"values":[
			{"datetime":"2026-04-02","open":"2","high":"3","low":"1","close":"2.5","volume":"100"},
			{"datetime":"2026-04-01","open":"1","high":"2","low":"1","close":"1.5","volume":""}
		]}`,
	})

	h := setupTestHandler(t)
	h.Market = marketdata.NewClient(srv.URL, "test-key", time.Second, h.Log)
	router := NewRouter(h, nil)

	rec := do(t, router, http.MethodGet, "/api/stocks/search?q=tesla", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]marketdata.SearchResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "Tesla Inc", results[0].CompanyName)

	// One character is not enough to search
	rec = do(t, router, http.MethodGet, "/api/stocks/search?q=t", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]marketdata.SearchResult](t, rec))

	// Profile is missing upstream, details still succeed
	rec = do(t, router, http.MethodGet, "/api/stocks/details?symbol=TSLA&exchange=NASDAQ", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	details := decode[marketdata.Details](t, rec)
	assert.Equal(t, "250.10", details.LastPrice)
	assert.Equal(t, marketdata.Placeholder, details.Open)
	assert.Equal(t, marketdata.DefaultAbout, details.About)

	rec = do(t, router, http.MethodGet, "/api/stocks/history?symbol=TSLA", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	candles := decode[[]marketdata.Candle](t, rec)
	require.Len(t, candles, 2)
	assert.Equal(t, "2026-04-01", candles[0].Time)
	assert.Nil(t, candles[0].Volume)

	rec = do(t, router, http.MethodGet, "/api/stocks/details", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing symbol", decode[ErrorResponse](t, rec).Error)
}

func TestStocks_UpstreamFailureIsBadGateway(t *testing.T) {
	srv := fakeTwelveData(t, map[string]string{
		"/symbol_search": `{"status":"error","code":429,"message":"rate limited"}`,
	})

	h := setupTestHandler(t)
	h.Market = marketdata.NewClient(srv.URL, "test-key", time.Second, h.Log)
	router := NewRouter(h, nil)

	rec := do(t, router, http.MethodGet, "/api/stocks/search?q=tesla", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/stocks/history?symbol=TSLA", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
