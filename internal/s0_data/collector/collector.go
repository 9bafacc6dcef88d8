package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/s0_data/quality"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// seedDays is how far before `from` the index history is fetched so the
// first synced day has a previous close
const seedDays = 10

// Collector pulls daily history from the market-data vendor into storage
// ⭐ SSOT: market-data sync runs only in this package
type Collector struct {
	history   contracts.HistoryProvider
	snapshots contracts.SnapshotRepository
	prices    contracts.StockPriceRepository
	logger    *logger.Logger
}

// DefaultWorkers is the ticker concurrency used by the CLI and scheduler
const DefaultWorkers = 4

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance
func NewCollector(
	history contracts.HistoryProvider,
	snapshots contracts.SnapshotRepository,
	prices contracts.StockPriceRepository,
	log *logger.Logger,
) *Collector {
	return &Collector{
		history:   history,
		snapshots: snapshots,
		prices:    prices,
		logger:    log.WithField("module", "collector"),
	}
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Ticker   string `json:"ticker"`
	Rows     int    `json:"rows"`
	Rejected int    `json:"rejected"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes one sync run
type Report struct {
	From         time.Time     `json:"from"`
	To           time.Time     `json:"to"`
	SnapshotRows int           `json:"snapshot_rows"`
	Tickers      []FetchResult `json:"tickers"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	IndexError   string        `json:"index_error,omitempty"`
}

// SyncIndex upserts benchmark snapshots for [from, to]. Each day's return
// is computed from the previous stored-or-fetched close.
func (c *Collector) SyncIndex(ctx context.Context, symbol string, from, to time.Time) (int, error) {
	bars, err := c.history.DailyBars(ctx, symbol, from.AddDate(0, 0, -seedDays), to)
	if err != nil {
		return 0, fmt.Errorf("fetch %s history: %w", symbol, err)
	}

	valid, issues := quality.ValidateBars(bars)
	c.logIssues(symbol, issues)

	snaps := quality.SnapshotsFromBars(valid, 0)
	inRange := snaps[:0]
	for _, s := range snaps {
		if !s.Date.Before(from) {
			inRange = append(inRange, s)
		}
	}

	n, err := c.snapshots.UpsertSnapshots(ctx, inRange)
	if err != nil {
		return 0, fmt.Errorf("save %s snapshots: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"rows":   n,
		"from":   from.Format(contracts.DateLayout),
		"to":     to.Format(contracts.DateLayout),
	}).Info("Index snapshots synced")

	return n, nil
}

// SyncPrices fetches and upserts daily bars for every ticker with a
// worker pool. A ticker's failure is recorded on its result.
func (c *Collector) SyncPrices(ctx context.Context, tickers []string, from, to time.Time, cfg Config) []FetchResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"from":    from.Format(contracts.DateLayout),
		"to":      to.Format(contracts.DateLayout),
		"workers": workers,
	}).Info("Starting price collection")

	resultCh := make(chan FetchResult, len(tickers))
	tickerCh := make(chan string, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.priceWorker(ctx, workerID, tickerCh, resultCh, from, to)
		}(i)
	}

	for _, t := range tickers {
		tickerCh <- t
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Results come back in ticker order
	byTicker := make(map[string]FetchResult, len(tickers))
	failCount := 0
	for r := range resultCh {
		byTicker[r.Ticker] = r
		if r.Error != "" {
			failCount++
		}
	}
	results := make([]FetchResult, 0, len(tickers))
	for _, t := range tickers {
		results = append(results, byTicker[t])
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(results) - failCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Price collection completed")

	return results
}

// priceWorker processes price fetching for tickers
func (c *Collector) priceWorker(ctx context.Context, workerID int, tickerCh <-chan string, resultCh chan<- FetchResult, from, to time.Time) {
	for ticker := range tickerCh {
		if err := ctx.Err(); err != nil {
			resultCh <- FetchResult{Ticker: ticker, Error: err.Error()}
			continue
		}

		bars, err := c.history.DailyBars(ctx, ticker, from, to)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Error("Failed to fetch prices")
			resultCh <- FetchResult{Ticker: ticker, Error: err.Error()}
			continue
		}

		for i := range bars {
			bars[i].Ticker = ticker
		}
		valid, issues := quality.ValidateBars(bars)
		c.logIssues(ticker, issues)

		n, err := c.prices.UpsertPrices(ctx, valid)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Error("Failed to save prices")
			resultCh <- FetchResult{Ticker: ticker, Rejected: len(issues), Error: err.Error()}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"ticker": ticker,
			"count":  n,
		}).Debug("Fetched prices")

		resultCh <- FetchResult{Ticker: ticker, Rows: n, Rejected: len(issues)}
	}
}

// SyncAll syncs the index and every ticker concurrently. Only an index
// failure returns an error; ticker failures are counted in the report.
func (c *Collector) SyncAll(ctx context.Context, indexSymbol string, tickers []string, from, to time.Time, cfg Config) (*Report, error) {
	report := &Report{From: from, To: to}

	var wg sync.WaitGroup
	var indexErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.SnapshotRows, indexErr = c.SyncIndex(ctx, indexSymbol, from, to)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.Tickers = c.SyncPrices(ctx, tickers, from, to, cfg)
	}()

	wg.Wait()

	for _, r := range report.Tickers {
		if r.Error != "" {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	if indexErr != nil {
		report.IndexError = indexErr.Error()
		return report, indexErr
	}
	return report, nil
}

func (c *Collector) logIssues(ticker string, issues []quality.Issue) {
	for _, i := range issues {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"date":   i.Date.Format(contracts.DateLayout),
			"reason": i.Reason,
		}).Warn("Bar rejected")
	}
}
