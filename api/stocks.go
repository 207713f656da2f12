package api

import (
	"errors"
	"net/http"

	"github.com/Maanicadatta/Batua/money"
)

// missingKeyMessage is what the frontend shows when the server has no
// provider key configured.
const missingKeyMessage = "Missing TWELVE_DATA_API_KEY on server"

// SearchStocks returns global symbol matches.
// GET /api/stocks/search?q=tesla
func (h *Handler) SearchStocks(w http.ResponseWriter, r *http.Request) {
	results, err := h.Market.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeMarketError(w, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// StockDetails returns a quote plus company profile.
// GET /api/stocks/details?symbol=TSLA&exchange=NASDAQ
func (h *Handler) StockDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	details, err := h.Market.Details(r.Context(), q.Get("symbol"), q.Get("exchange"))
	if err != nil {
		h.writeMarketError(w, "Details failed", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// StockHistory returns candles oldest first.
// GET /api/stocks/history?symbol=TSLA&exchange=NASDAQ&range=1y&interval=1day
func (h *Handler) StockHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	candles, err := h.Market.History(r.Context(), q.Get("symbol"), q.Get("exchange"), q.Get("range"), q.Get("interval"))
	if err != nil {
		h.writeMarketError(w, "History failed", err)
		return
	}
	writeJSON(w, http.StatusOK, candles)
}

func (h *Handler) writeMarketError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, money.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, missingKeyMessage, nil)
	case errors.Is(err, money.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Missing symbol", nil)
	default:
		h.Log.WithError(err).Warn(message)
		writeDomainError(w, message, err)
	}
}
