package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// MaxDateAdjustments bounds the forward search for a trading day
const MaxDateAdjustments = 5

// Data source labels
const (
	SourceLive     = "Yahoo Finance (Live)"
	SourceDatabase = "PostgreSQL"
)

// SPXScorer scores equity-index volatility on a date
// ⭐ SSOT: stored-vs-live snapshot selection for the equity signal
type SPXScorer struct {
	snapshots contracts.SnapshotProvider
	quotes    contracts.LiveQuoteProvider
	symbol    string
	now       func() time.Time
	logger    *logger.Logger
}

// NewSPXScorer creates a new equity-volatility scorer
func NewSPXScorer(snapshots contracts.SnapshotProvider, quotes contracts.LiveQuoteProvider, symbol string, log *logger.Logger) *SPXScorer {
	return &SPXScorer{
		snapshots: snapshots,
		quotes:    quotes,
		symbol:    symbol,
		now:       time.Now,
		logger:    log.WithComponent(contracts.SignalSPX),
	}
}

// WithClock overrides the wall clock used to detect "today"
func (s *SPXScorer) WithClock(now func() time.Time) *SPXScorer {
	s.now = now
	return s
}

// TradingDate is the outcome of the weekend/holiday search
type TradingDate struct {
	Date     time.Time
	Adjusted bool
	Reason   string
	Attempts int
}

// nextWeekday moves Saturday and Sunday forward to Monday
func nextWeekday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// FindTradingDate advances date to the first day with a stored snapshot
func (s *SPXScorer) FindTradingDate(ctx context.Context, date time.Time) (*TradingDate, *contracts.Snapshot, error) {
	current := date
	for attempt := 0; attempt < MaxDateAdjustments; attempt++ {
		candidate := nextWeekday(current)

		snap, err := s.snapshots.SnapshotOn(ctx, candidate)
		if err == nil {
			td := &TradingDate{
				Date:     candidate,
				Adjusted: !candidate.Equal(date),
				Attempts: attempt + 1,
			}
			if td.Adjusted {
				td.Reason = adjustmentReason(date)
			}
			return td, snap, nil
		}
		if !errors.Is(err, contracts.ErrNotFound) {
			return nil, nil, err
		}

		current = candidate.AddDate(0, 0, 1)
	}

	return nil, nil, fmt.Errorf("no trading data for %s or the following %d days: %w",
		date.Format(contracts.DateLayout), MaxDateAdjustments, contracts.ErrInsufficientHistory)
}

func adjustmentReason(original time.Time) string {
	if wd := original.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return "Weekend"
	}
	return "Market Holiday"
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Score computes the equity-volatility signal for date
func (s *SPXScorer) Score(ctx context.Context, date time.Time) (*contracts.SPXResult, error) {
	result := &contracts.SPXResult{
		Date: date.Format(contracts.DateLayout),
	}

	var targetReturn float64
	referenceDate := date

	if sameDay(date, s.now().UTC()) {
		result.IsLive = true
		result.TradingDate = result.Date

		quote, err := s.quotes.LiveQuote(ctx, s.symbol)
		if err == nil {
			targetReturn = quote.DailyReturn()
			result.ClosePrice = quote.Price
			result.DataSource = SourceLive
			open := quote.IsMarketOpen
			result.IsMarketOpen = &open
		} else {
			s.logger.WithError(err).Warn("Live quote failed, falling back to latest snapshot")

			latest, dbErr := s.snapshots.LatestSnapshot(ctx)
			if dbErr != nil {
				return nil, fmt.Errorf("no live quote (%v) and no stored snapshot: %w", err, dbErr)
			}
			// rank the stored day against the days strictly before it
			referenceDate = latest.Date
			targetReturn = latest.Return
			result.ClosePrice = latest.Close
			result.DataSource = fmt.Sprintf("Database Fallback (%s)", latest.Date.Format(contracts.DateLayout))
		}
	} else {
		td, snap, err := s.FindTradingDate(ctx, date)
		if err != nil {
			return nil, err
		}
		if td.Adjusted {
			s.logger.WithFields(map[string]interface{}{
				"original": result.Date,
				"adjusted": td.Date.Format(contracts.DateLayout),
				"reason":   td.Reason,
				"attempts": td.Attempts,
			}).Info("Date adjusted to trading day")
		}

		referenceDate = td.Date
		targetReturn = snap.Return
		result.TradingDate = td.Date.Format(contracts.DateLayout)
		result.DateAdjusted = td.Adjusted
		result.AdjustmentReason = td.Reason
		result.Attempts = td.Attempts
		result.ClosePrice = snap.Close
		result.DataSource = SourceDatabase
	}

	window, err := s.snapshots.ReturnWindow(ctx, referenceDate, WindowLookbackDays, WindowMaxRows)
	if err != nil {
		return nil, fmt.Errorf("load return window: %w", err)
	}

	returns := make([]float64, len(window))
	for i, snap := range window {
		returns[i] = snap.Return
	}

	ps, err := ScorePercentile(targetReturn, returns)
	if err != nil {
		return nil, err
	}

	// Window is newest first.
	result.WindowEnd = window[0].Date
	result.WindowStart = window[len(window)-1].Date
	result.WindowSize = ps.WindowSize
	result.DailyReturn = round(targetReturn, 4)
	result.PercentileRank = round(ps.Percentile, 2)
	result.Score = ps.Score
	result.Level = ps.Level

	s.logger.WithFields(map[string]interface{}{
		"date":         result.TradingDate,
		"daily_return": result.DailyReturn,
		"percentile":   result.PercentileRank,
		"score":        result.Score,
		"source":       result.DataSource,
	}).Info("SPX volatility scored")

	return result, nil
}
