package contracts

import "time"

// DateLayout is the calendar-date format accepted on every input surface
const DateLayout = "2006-01-02"

// Snapshot is one trading day of the equity benchmark
// ⭐ SSOT: daily_snapshots row
type Snapshot struct {
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	Return     float64   `json:"return"`               // daily return in %
	Percentile *float64  `json:"percentile,omitempty"` // precomputed, optional
}

// StockPrice is one daily bar for a universe ticker
// ⭐ SSOT: stock_prices row, unique on (ticker, date)
type StockPrice struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PricePoint is a (date, close) pair
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// LiveQuote is a real-time quote for a symbol
type LiveQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	IsMarketOpen  bool      `json:"is_market_open"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// DailyReturn returns the % change from the previous close
func (q *LiveQuote) DailyReturn() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// SearchPoint is one day of search interest (0-100)
type SearchPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TickerCoverage reports stored rows for one ticker
type TickerCoverage struct {
	Ticker    string    `json:"ticker"`
	Rows      int       `json:"rows"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
}

// DataStatus summarizes what the store holds for backtesting
type DataStatus struct {
	Snapshots      int              `json:"snapshots"`
	FirstSnapshot  *time.Time       `json:"first_snapshot,omitempty"`
	LastSnapshot   *time.Time       `json:"last_snapshot,omitempty"`
	Tickers        []TickerCoverage `json:"tickers"`
	MissingTickers []string         `json:"missing_tickers"`
	Coverage       float64          `json:"coverage"` // fraction of the universe with rows
	Ready          bool             `json:"ready"`
}
