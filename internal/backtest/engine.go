package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/metrics"
)

// Engine runs the event-driven momentum backtest
// ⭐ SSOT: momentum backtesting runs only here
type Engine struct {
	prices    contracts.StockPriceProvider
	snapshots contracts.SnapshotProvider
	repo      contracts.BacktestRepository

	events   []contracts.TrackedEvent
	universe contracts.Universe

	metrics *metrics.Registry // optional
	logger  *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(
	prices contracts.StockPriceProvider,
	snapshots contracts.SnapshotProvider,
	repo contracts.BacktestRepository,
	events []contracts.TrackedEvent,
	universe contracts.Universe,
	reg *metrics.Registry,
	log *logger.Logger,
) *Engine {
	return &Engine{
		prices:    prices,
		snapshots: snapshots,
		repo:      repo,
		events:    events,
		universe:  universe,
		metrics:   reg,
		logger:    log.WithComponent("backtest"),
	}
}

// eventTimeline holds the derived dates for one event
type eventTimeline struct {
	momentumStart time.Time
	entry         time.Time
}

func timeline(eventDate time.Time, momentumDays int) eventTimeline {
	return eventTimeline{
		momentumStart: AddTradingDays(eventDate, -1),
		entry:         AddTradingDays(eventDate, momentumDays),
	}
}

// Run clears all stored results, then backtests every tracked event in
// order. Only invalid parameters or a failed clear return an error; an
// event's own failure is recorded on its result.
func (e *Engine) Run(ctx context.Context, momentumDays, portfolioSize int) ([]contracts.EventBacktest, error) {
	params := contracts.BacktestParams{MomentumDays: momentumDays, PortfolioSize: portfolioSize}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	e.logger.WithFields(map[string]interface{}{
		"momentum_days":  momentumDays,
		"portfolio_size": portfolioSize,
		"events":         len(e.events),
		"universe":       e.universe.Count(),
	}).Info("Starting momentum backtest")

	if err := e.repo.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear previous results: %w", err)
	}

	results := make([]contracts.EventBacktest, 0, len(e.events))
	for _, event := range e.events {
		result, err := e.runEvent(ctx, event, params)
		outcome := "ok"
		if err != nil {
			outcome = "failed"
			result.Error = err.Error()
			e.logger.WithFields(map[string]interface{}{
				"event": event.ID,
				"error": err.Error(),
			}).Error("Event backtest failed")
		} else {
			e.logger.WithField("event", event.ID).Info("Event backtest completed")
		}
		if e.metrics != nil {
			e.metrics.BacktestEvents.WithLabelValues(outcome).Inc()
		}
		results = append(results, *result)
	}

	if e.metrics != nil {
		e.metrics.BacktestDuration.Observe(time.Since(startTime).Seconds())
	}

	e.logger.WithFields(map[string]interface{}{
		"events":   len(results),
		"duration": time.Since(startTime),
	}).Info("Momentum backtest completed")

	return results, nil
}

// rank computes the momentum portfolio for an event
func (e *Engine) rank(ctx context.Context, eventDate time.Time, params contracts.BacktestParams) (eventTimeline, *contracts.Portfolio, error) {
	tl := timeline(eventDate, params.MomentumDays)

	returns, err := CollectReturns(ctx, e.prices, e.universe.Tickers, tl.momentumStart, tl.entry, e.logger)
	if err != nil {
		return tl, nil, err
	}

	portfolio, err := BuildPortfolio(returns, params.PortfolioSize)
	if err != nil {
		return tl, nil, err
	}
	return tl, portfolio, nil
}

// runEvent computes every horizon before persisting anything and saves them
// in one transaction, so a failed stage leaves no rows behind for the event.
func (e *Engine) runEvent(ctx context.Context, event contracts.TrackedEvent, params contracts.BacktestParams) (*contracts.EventBacktest, error) {
	result := &contracts.EventBacktest{
		EventID:   event.ID,
		EventName: event.Name,
		EventDate: event.Date,
	}

	tl, portfolio, err := e.rank(ctx, event.Date, params)
	result.EntryDate = tl.entry
	if err != nil {
		return result, err
	}
	result.Long, result.Short = RankedPositions(portfolio)

	e.logger.WithFields(map[string]interface{}{
		"event":          event.ID,
		"momentum_start": tl.momentumStart.Format(contracts.DateLayout),
		"entry":          tl.entry.Format(contracts.DateLayout),
		"top_long":       portfolio.Long[0].Ticker,
		"top_short":      portfolio.Short[0].Ticker,
	}).Info("Portfolio constructed")

	runs := make([]contracts.RunRecord, 0, len(contracts.Horizons))

	for _, h := range contracts.Horizons {
		exit := AddMonths(tl.entry, h.Months)

		points, positions, err := e.simulateHorizon(ctx, result.Long, result.Short, tl.entry, exit)
		if err != nil {
			return result, fmt.Errorf("%s horizon: %w", h.Label, err)
		}

		signed := make([]float64, len(positions))
		for i, p := range positions {
			signed[i] = p.ReturnPct
		}
		perf := Evaluate(points, signed, params.PortfolioSize)

		runs = append(runs, contracts.RunRecord{
			Run: contracts.BacktestRun{
				EventID:         event.ID,
				EventName:       event.Name,
				EventDate:       event.Date,
				EntryDate:       tl.entry,
				ExitDate:        exit,
				Period:          h.Label,
				PortfolioReturn: perf.PortfolioReturn,
				BenchmarkReturn: perf.BenchmarkReturn,
				ExcessReturn:    perf.ExcessReturn,
				SharpeRatio:     perf.SharpeRatio,
				StdDev:          perf.StdDev,
				MaxDrawdown:     perf.MaxDrawdown,
				WinRate:         perf.WinRate,
				TradingDays:     perf.TradingDays,
				MomentumDays:    params.MomentumDays,
				PortfolioSize:   params.PortfolioSize,
			},
			Positions: positions,
		})

		e.logger.WithFields(map[string]interface{}{
			"event":     event.ID,
			"period":    h.Label,
			"portfolio": fmt.Sprintf("%.2f%%", perf.PortfolioReturn),
			"benchmark": fmt.Sprintf("%.2f%%", perf.BenchmarkReturn),
			"sharpe":    fmt.Sprintf("%.2f", perf.SharpeRatio),
			"win_rate":  fmt.Sprintf("%.1f%%", perf.WinRate),
		}).Info("Horizon evaluated")
	}

	ids, err := e.repo.SaveEvent(ctx, runs)
	if err != nil {
		return result, fmt.Errorf("save runs: %w", err)
	}
	for i, rec := range runs {
		rec.Run.ID = ids[i]
		result.Performance = append(result.Performance, rec.Run)
	}

	return result, nil
}

// simulateHorizon loads benchmark and position closes over [entry, exit]
// and returns the indexed series plus one signed position per ticker with data
func (e *Engine) simulateHorizon(ctx context.Context, long, short []contracts.Position, entry, exit time.Time) ([]contracts.IndexPoint, []contracts.Position, error) {
	snaps, err := e.snapshots.SnapshotsBetween(ctx, entry, exit)
	if err != nil {
		return nil, nil, fmt.Errorf("load benchmark: %w", err)
	}
	if len(snaps) < 2 {
		return nil, nil, fmt.Errorf("benchmark has %d rows between %s and %s: %w",
			len(snaps), entry.Format(contracts.DateLayout), exit.Format(contracts.DateLayout), contracts.ErrInsufficientHistory)
	}
	benchmark := make([]contracts.PricePoint, len(snaps))
	for i, s := range snaps {
		benchmark[i] = contracts.PricePoint{Date: s.Date, Close: s.Close}
	}

	longSeries := make(map[string][]contracts.PricePoint, len(long))
	shortSeries := make(map[string][]contracts.PricePoint, len(short))
	var positions []contracts.Position

	load := func(legs []contracts.Position, into map[string][]contracts.PricePoint, sign float64) error {
		for _, leg := range legs {
			series, err := e.prices.CloseSeries(ctx, leg.Ticker, entry, exit)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.WithFields(map[string]interface{}{
					"ticker": leg.Ticker,
					"error":  err.Error(),
				}).Warn("Position prices unavailable")
				continue
			}
			r, ok := WindowReturn(leg.Ticker, series)
			if !ok {
				continue
			}
			into[leg.Ticker] = series

			p := leg
			p.EntryPrice = r.StartClose
			p.ExitPrice = r.EndClose
			p.ReturnPct = sign * r.Return
			positions = append(positions, p)
		}
		return nil
	}

	if err := load(long, longSeries, 1); err != nil {
		return nil, nil, err
	}
	if err := load(short, shortSeries, -1); err != nil {
		return nil, nil, err
	}

	return Simulate(benchmark, longSeries, shortSeries), positions, nil
}

// Results groups the stored runs by event, with the long/short lists
// recomputed from the stored configuration
func (e *Engine) Results(ctx context.Context) ([]contracts.EventBacktest, error) {
	runs, err := e.repo.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	var order []string
	grouped := make(map[string]*contracts.EventBacktest)
	for _, run := range runs {
		g, ok := grouped[run.EventID]
		if !ok {
			g = &contracts.EventBacktest{
				EventID:   run.EventID,
				EventName: run.EventName,
				EventDate: run.EventDate,
				EntryDate: run.EntryDate,
			}

			params := contracts.BacktestParams{MomentumDays: run.MomentumDays, PortfolioSize: run.PortfolioSize}
			if _, portfolio, err := e.rank(ctx, run.EventDate, params); err == nil {
				g.Long, g.Short = RankedPositions(portfolio)
			} else {
				g.Error = err.Error()
			}

			grouped[run.EventID] = g
			order = append(order, run.EventID)
		}
		g.Performance = append(g.Performance, run)
	}

	out := make([]contracts.EventBacktest, 0, len(order))
	for _, id := range order {
		g := grouped[id]
		sort.SliceStable(g.Performance, func(i, j int) bool {
			return periodOrder(g.Performance[i].Period) < periodOrder(g.Performance[j].Period)
		})
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func periodOrder(label string) int {
	for i, h := range contracts.Horizons {
		if h.Label == label {
			return i
		}
	}
	return len(contracts.Horizons)
}

// Positions returns one run's stored positions, best return first
func (e *Engine) Positions(ctx context.Context, runID int64) ([]contracts.Position, error) {
	return e.repo.Positions(ctx, runID)
}

// Clear deletes every stored run and position
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.repo.Clear(ctx); err != nil {
		return err
	}
	e.logger.Info("All backtest results cleared")
	return nil
}

// Chart recomputes the daily indexed series for a stored run
func (e *Engine) Chart(ctx context.Context, runID int64) (*contracts.IndexSeries, error) {
	run, err := e.repo.Run(ctx, runID)
	if err != nil {
		return nil, err
	}

	stored, err := e.repo.Positions(ctx, runID)
	if err != nil {
		return nil, err
	}
	var long, short []contracts.Position
	for _, p := range stored {
		if p.Side == contracts.SideLong {
			long = append(long, p)
		} else {
			short = append(short, p)
		}
	}

	points, _, err := e.simulateHorizon(ctx, long, short, run.EntryDate, run.ExitDate)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			return &contracts.IndexSeries{RunID: runID, Period: run.Period}, nil
		}
		return nil, err
	}

	return &contracts.IndexSeries{RunID: runID, Period: run.Period, Points: points}, nil
}
