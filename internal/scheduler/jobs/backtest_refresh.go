package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// Backtester reruns the momentum backtest
type Backtester interface {
	Run(ctx context.Context, momentumDays, portfolioSize int) ([]contracts.EventBacktest, error)
}

// BacktestRefreshJob recomputes stored backtest results with the default
// parameters once new history has landed
type BacktestRefreshJob struct {
	engine   Backtester
	params   contracts.BacktestParams
	schedule string
	logger   *logger.Logger
}

// NewBacktestRefreshJob creates a new backtest refresh job
func NewBacktestRefreshJob(engine Backtester, params contracts.BacktestParams, schedule string, log *logger.Logger) *BacktestRefreshJob {
	return &BacktestRefreshJob{
		engine:   engine,
		params:   params,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *BacktestRefreshJob) Name() string {
	return "backtest_refresh"
}

// Schedule returns the cron schedule
func (j *BacktestRefreshJob) Schedule() string {
	return j.schedule
}

// Run replaces stored results. Failed events are logged, not retried.
func (j *BacktestRefreshJob) Run(ctx context.Context) error {
	events, err := j.engine.Run(ctx, j.params.MomentumDays, j.params.PortfolioSize)
	if err != nil {
		return fmt.Errorf("refresh backtest: %w", err)
	}

	failed := 0
	for _, e := range events {
		if !e.Succeeded() {
			failed++
			j.logger.WithFields(map[string]interface{}{
				"event": e.EventID,
				"error": e.Error,
			}).Warn("Backtest event failed during refresh")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"events": len(events),
		"failed": failed,
	}).Info("Backtest refresh completed")
	return nil
}
