package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: data providers consumed by the scoring and backtest core

// SnapshotProvider reads stored benchmark snapshots
type SnapshotProvider interface {
	// SnapshotOn returns ErrNotFound when no row exists for date
	SnapshotOn(ctx context.Context, date time.Time) (*Snapshot, error)
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	// ReturnWindow returns up to maxRows snapshots strictly before the
	// given date and within lookbackDays calendar days, newest first
	ReturnWindow(ctx context.Context, before time.Time, lookbackDays, maxRows int) ([]Snapshot, error)
	SnapshotsBetween(ctx context.Context, from, to time.Time) ([]Snapshot, error)
}

// LiveQuoteProvider fetches real-time quotes
type LiveQuoteProvider interface {
	LiveQuote(ctx context.Context, symbol string) (*LiveQuote, error)
}

// StockPriceProvider reads stored closes for universe tickers
type StockPriceProvider interface {
	CloseSeries(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error)
}

// MarketListingProvider lists prediction markets and their daily volume
type MarketListingProvider interface {
	// ListMarkets returns every listed market across open and closed scopes
	ListMarkets(ctx context.Context) ([]MarketCandidate, error)
	DailyVolume(ctx context.Context, conditionID string, date time.Time) (*MarketVolume, error)
}

// FearIndexProvider fetches a volatility index close on a date
type FearIndexProvider interface {
	IndexLevel(ctx context.Context, symbol string, date time.Time) (float64, error)
}

// SearchInterestProvider fetches daily search interest for a keyword
type SearchInterestProvider interface {
	Series(ctx context.Context, keyword string, from, to time.Time) ([]SearchPoint, error)
}

// MarketChooser picks one candidate or none
type MarketChooser interface {
	ChooseBest(ctx context.Context, query string, date time.Time, candidates []ScoredCandidate) (*Selection, error)
}

// HistoryProvider fetches daily bars from the market-data vendor for sync
type HistoryProvider interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]StockPrice, error)
}
