package quality

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// Issue describes one rejected bar
type Issue struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// ValidateBars drops bars that cannot be stored and returns the rest sorted
// by date. A repeated date keeps the last bar seen.
func ValidateBars(bars []contracts.StockPrice) ([]contracts.StockPrice, []Issue) {
	var issues []Issue
	byDate := make(map[string]contracts.StockPrice, len(bars))

	for _, b := range bars {
		key := b.Date.Format(contracts.DateLayout)
		switch {
		case b.Date.IsZero():
			issues = append(issues, Issue{Ticker: b.Ticker, Date: b.Date, Reason: "missing date"})
			continue
		case b.Close <= 0:
			issues = append(issues, Issue{Ticker: b.Ticker, Date: b.Date, Reason: "non-positive close"})
			continue
		case b.High > 0 && b.Low > 0 && b.High < b.Low:
			issues = append(issues, Issue{Ticker: b.Ticker, Date: b.Date, Reason: "high below low"})
			continue
		case b.Volume < 0:
			issues = append(issues, Issue{Ticker: b.Ticker, Date: b.Date, Reason: "negative volume"})
			continue
		}
		if _, dup := byDate[key]; dup {
			issues = append(issues, Issue{Ticker: b.Ticker, Date: b.Date, Reason: "duplicate date"})
		}
		byDate[key] = b
	}

	valid := make([]contracts.StockPrice, 0, len(byDate))
	for _, b := range byDate {
		valid = append(valid, b)
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Date.Before(valid[j].Date) })
	return valid, issues
}

// SnapshotsFromBars converts index bars into snapshots, computing each
// day's return from the previous close. The first bar has no predecessor
// unless prevClose is positive.
func SnapshotsFromBars(bars []contracts.StockPrice, prevClose float64) []contracts.Snapshot {
	out := make([]contracts.Snapshot, 0, len(bars))
	prev := prevClose
	for _, b := range bars {
		if prev <= 0 {
			prev = b.Close
			continue
		}
		out = append(out, contracts.Snapshot{
			Date:   b.Date,
			Close:  b.Close,
			Return: (b.Close - prev) / prev * 100,
		})
		prev = b.Close
	}
	return out
}

// CoverageSource reports stored rows per ticker
type CoverageSource interface {
	Coverage(ctx context.Context) ([]contracts.TickerCoverage, error)
}

// SnapshotRangeSource reports stored benchmark rows
type SnapshotRangeSource interface {
	SnapshotRange(ctx context.Context) (int, *time.Time, *time.Time, error)
}

// Config holds gate thresholds
type Config struct {
	MinUniverseCoverage float64 `yaml:"min_universe_coverage"` // 0.9
	MinTickerRows       int     `yaml:"min_ticker_rows"`       // 2
	MinSnapshots        int     `yaml:"min_snapshots"`         // 100
}

// DefaultConfig returns the thresholds used by the API and CLI
func DefaultConfig() Config {
	return Config{
		MinUniverseCoverage: 0.9,
		MinTickerRows:       2,
		MinSnapshots:        100, // one percentile window
	}
}

// Gate summarizes what the store holds for backtesting
// ⭐ SSOT: data readiness check before a backtest
type Gate struct {
	snapshots SnapshotRangeSource
	prices    CoverageSource
	config    Config
}

// NewGate creates a new Gate
func NewGate(snapshots SnapshotRangeSource, prices CoverageSource, config Config) *Gate {
	return &Gate{snapshots: snapshots, prices: prices, config: config}
}

// Status reports snapshot bounds, per-ticker coverage and missing tickers
func (g *Gate) Status(ctx context.Context, universe contracts.Universe) (*contracts.DataStatus, error) {
	count, first, last, err := g.snapshots.SnapshotRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot range: %w", err)
	}

	coverage, err := g.prices.Coverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticker coverage: %w", err)
	}

	status := &contracts.DataStatus{
		Snapshots:      count,
		FirstSnapshot:  first,
		LastSnapshot:   last,
		Tickers:        make([]contracts.TickerCoverage, 0, len(universe.Tickers)),
		MissingTickers: []string{},
	}

	stored := make(map[string]contracts.TickerCoverage, len(coverage))
	for _, c := range coverage {
		stored[c.Ticker] = c
	}

	covered := 0
	for _, ticker := range universe.Tickers {
		c, ok := stored[ticker]
		if !ok || c.Rows < g.config.MinTickerRows {
			status.MissingTickers = append(status.MissingTickers, ticker)
			if ok {
				status.Tickers = append(status.Tickers, c)
			}
			continue
		}
		covered++
		status.Tickers = append(status.Tickers, c)
	}

	if n := universe.Count(); n > 0 {
		status.Coverage = float64(covered) / float64(n)
	}
	status.Ready = count >= g.config.MinSnapshots && status.Coverage >= g.config.MinUniverseCoverage
	return status, nil
}
