/*
Package marketdata proxies the Twelve Data API for the stocks screen and
the display-currency rates.

PURPOSE:
  The browser never holds the provider key. The API calls this client,
  which adds the key, talks to Twelve Data and normalizes the responses
  into the shapes the frontend renders.

ENDPOINTS USED:
  symbol_search  -> Search
  quote, profile -> Details
  time_series    -> History
  exchange_rate  -> ExchangeRate (RateRefresher)

ERRORS:
  A missing key is ErrMissingAPIKey. Transport failures, non-2xx replies
  and {"status":"error"} payloads are *money.UpstreamError.

SEE ALSO:
  - refresher.go: cron job feeding ExchangeRate into money.RateTable
  - api/stocks.go: HTTP handlers
*/
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the Twelve Data API root.
const DefaultBaseURL = "https://api.twelvedata.com"

// Placeholder fills quote fields the provider left out.
const Placeholder = "—"

// DefaultAbout is shown when the provider has no company description.
const DefaultAbout = "Company profile will appear here once you connect a fundamentals provider."

const (
	searchOutputSize  = 25
	minQueryLength    = 2
	defaultInterval   = "1day"
	defaultRange      = "1y"
	defaultOutputSize = 400
)

var outputSizeByRange = map[string]int{
	"1d":  80,
	"5d":  250,
	"1mo": 260,
	"3mo": 300,
	"6mo": 400,
	"ytd": 300,
	"1y":  400,
	"5y":  1200,
	"max": 5000,
}

// OutputSize maps a chart range to the number of candles requested.
func OutputSize(rng string) int {
	if n, ok := outputSizeByRange[rng]; ok {
		return n
	}
	return defaultOutputSize
}

// Client talks to Twelve Data.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Logger
}

// NewClient initializes a client. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// =============================================================================
// NORMALIZED SHAPES
// =============================================================================

// SearchResult is one symbol match.
type SearchResult struct {
	CompanyName    string `json:"company_name"`
	TickerSymbol   string `json:"ticker_symbol"`
	Exchange       string `json:"exchange"`
	MICCode        string `json:"mic_code"`
	Country        string `json:"country"`
	Currency       string `json:"currency"`
	InstrumentType string `json:"instrument_type"`
}

// Details is a quote plus company profile. Quote fields hold the provider's
// text or Placeholder.
type Details struct {
	Symbol    string  `json:"symbol"`
	Exchange  *string `json:"exchange"`
	Currency  *string `json:"currency"`
	LastPrice string  `json:"last_price"`
	Change    string  `json:"change"`
	ChangePct string  `json:"change_pct"`
	Volume    string  `json:"volume"`
	Open      string  `json:"open"`
	PrevClose string  `json:"prev_close"`
	DayLow    string  `json:"day_low"`
	DayHigh   string  `json:"day_high"`
	About     string  `json:"about"`
}

// Candle is one OHLC bar. Volume is nil when the provider omits it.
type Candle struct {
	Time   string   `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Search looks up symbols matching q. Queries shorter than two characters
// return an empty list without calling the provider.
func (c *Client) Search(ctx context.Context, q string) ([]SearchResult, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minQueryLength {
		return []SearchResult{}, nil
	}

	var body struct {
		Data []struct {
			Symbol         string `json:"symbol"`
			InstrumentName string `json:"instrument_name"`
			Name           string `json:"name"`
			Exchange       string `json:"exchange"`
			MICCode        string `json:"mic_code"`
			Country        string `json:"country"`
			Currency       string `json:"currency"`
			InstrumentType string `json:"instrument_type"`
		} `json:"data"`
	}
	params := url.Values{"symbol": {q}, "outputsize": {strconv.Itoa(searchOutputSize)}}
	if err := c.get(ctx, "symbol_search", params, &body); err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(body.Data))
	for _, s := range body.Data {
		out = append(out, SearchResult{
			CompanyName:    firstNonEmpty(s.InstrumentName, s.Name, s.Symbol),
			TickerSymbol:   s.Symbol,
			Exchange:       s.Exchange,
			MICCode:        s.MICCode,
			Country:        s.Country,
			Currency:       s.Currency,
			InstrumentType: s.InstrumentType,
		})
	}
	return out, nil
}

// Details fetches a quote and, when available, the company profile.
func (c *Client) Details(ctx context.Context, symbol, exchange string) (*Details, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	symbol, exchange = strings.TrimSpace(symbol), strings.TrimSpace(exchange)
	if symbol == "" {
		return nil, &money.InvalidInputError{Field: "symbol", Reason: "missing symbol"}
	}
	params := url.Values{"symbol": {qualified(symbol, exchange)}}

	var quote map[string]any
	if err := c.get(ctx, "quote", params, &quote); err != nil {
		return nil, err
	}

	// profile needs a fundamentals plan; without it the about text falls back
	var profile map[string]any
	if err := c.get(ctx, "profile", params, &profile); err != nil {
		c.log.WithError(err).WithField("symbol", symbol).Debug("profile unavailable")
		profile = nil
	}

	d := &Details{
		Symbol:    symbol,
		Exchange:  optional(exchange, text(quote, "exchange")),
		Currency:  optional(text(quote, "currency"), text(profile, "currency")),
		LastPrice: orPlaceholder(text(quote, "close"), text(quote, "price")),
		Change:    orPlaceholder(text(quote, "change")),
		ChangePct: orPlaceholder(text(quote, "percent_change")),
		Volume:    orPlaceholder(text(quote, "volume")),
		Open:      orPlaceholder(text(quote, "open")),
		PrevClose: orPlaceholder(text(quote, "previous_close")),
		DayLow:    orPlaceholder(text(quote, "low")),
		DayHigh:   orPlaceholder(text(quote, "high")),
		About:     firstNonEmpty(text(profile, "description"), text(profile, "company_description"), DefaultAbout),
	}
	return d, nil
}

// History returns candles oldest first. Empty interval means "1day" and
// empty range means "1y".
func (c *Client) History(ctx context.Context, symbol, exchange, rng, interval string) ([]Candle, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	symbol, exchange = strings.TrimSpace(symbol), strings.TrimSpace(exchange)
	if symbol == "" {
		return nil, &money.InvalidInputError{Field: "symbol", Reason: "missing symbol"}
	}
	if interval = strings.TrimSpace(interval); interval == "" {
		interval = defaultInterval
	}
	if rng = strings.TrimSpace(rng); rng == "" {
		rng = defaultRange
	}

	var body struct {
		Values []struct {
			Datetime string `json:"datetime"`
			Open     string `json:"open"`
			High     string `json:"high"`
			Low      string `json:"low"`
			Close    string `json:"close"`
			Volume   string `json:"volume"`
		} `json:"values"`
	}
	params := url.Values{
		"symbol":     {qualified(symbol, exchange)},
		"interval":   {interval},
		"outputsize": {strconv.Itoa(OutputSize(rng))},
	}
	if err := c.get(ctx, "time_series", params, &body); err != nil {
		return nil, err
	}

	// provider order is newest first
	out := make([]Candle, len(body.Values))
	for i, v := range body.Values {
		cd := Candle{
			Time:  v.Datetime,
			Open:  parseFloat(v.Open),
			High:  parseFloat(v.High),
			Low:   parseFloat(v.Low),
			Close: parseFloat(v.Close),
		}
		if v.Volume != "" {
			vol := parseFloat(v.Volume)
			cd.Volume = &vol
		}
		out[len(out)-1-i] = cd
	}
	return out, nil
}

// ExchangeRate returns how many units of to one unit of from buys.
func (c *Client) ExchangeRate(ctx context.Context, from, to money.Currency) (decimal.Decimal, error) {
	if err := c.requireKey(); err != nil {
		return decimal.Zero, err
	}

	var body struct {
		Symbol string      `json:"symbol"`
		Rate   json.Number `json:"rate"`
	}
	params := url.Values{"symbol": {string(from) + "/" + string(to)}}
	if err := c.get(ctx, "exchange_rate", params, &body); err != nil {
		return decimal.Zero, err
	}

	rate, err := decimal.NewFromString(body.Rate.String())
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, &money.UpstreamError{Endpoint: "exchange_rate", Message: fmt.Sprintf("bad rate %q", body.Rate)}
	}
	return rate, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) requireKey() error {
	if c.apiKey == "" {
		return money.ErrMissingAPIKey
	}
	return nil
}

// get calls endpoint with params plus the key and decodes JSON into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	u := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &money.UpstreamError{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &money.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Message: err.Error()}
	}

	c.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("twelve data call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &money.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	var status struct {
		Status  string `json:"status"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &status) == nil && status.Status == "error" {
		return &money.UpstreamError{Endpoint: endpoint, Status: status.Code, Message: status.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &money.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Message: "decode: " + err.Error()}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func qualified(symbol, exchange string) string {
	if exchange == "" {
		return symbol
	}
	return symbol + ":" + exchange
}

// text reads a scalar field as a string; numbers keep their JSON spelling.
func text(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func orPlaceholder(vals ...string) string {
	if v := firstNonEmpty(vals...); v != "" {
		return v
	}
	return Placeholder
}

func optional(vals ...string) *string {
	if v := firstNonEmpty(vals...); v != "" {
		return &v
	}
	return nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
