package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// MarketHandler serves live benchmark data
type MarketHandler struct {
	quotes contracts.LiveQuoteProvider
	symbol string
	logger *logger.Logger
}

// NewMarketHandler creates a new market handler for the benchmark symbol
func NewMarketHandler(quotes contracts.LiveQuoteProvider, symbol string, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		quotes: quotes,
		symbol: symbol,
		logger: log,
	}
}

// LiveQuoteResponse is the live benchmark payload
type LiveQuoteResponse struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	IsOpen        bool    `json:"is_open"`
	Timestamp     string  `json:"timestamp"`
	Timezone      string  `json:"timezone"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SPXLive returns the benchmark's current price and daily return
// GET /api/spx/live
func (h *MarketHandler) SPXLive(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.LiveQuote(r.Context(), h.symbol)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch live quote")
		respondFailure(w, err, "Failed to fetch live S&P 500 data")
		return
	}

	respondOK(w, "", LiveQuoteResponse{
		Symbol:        q.Symbol,
		Price:         round2(q.Price),
		PreviousClose: round2(q.PreviousClose),
		Change:        round2(q.Price - q.PreviousClose),
		ChangePercent: round2(q.DailyReturn()),
		IsOpen:        q.IsMarketOpen,
		Timestamp:     q.FetchedAt.UTC().Format(time.RFC3339),
		Timezone:      "America/New_York",
	})
}
