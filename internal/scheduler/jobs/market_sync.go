package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/s0_data/collector"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// SyncLookbackDays re-pulls recent bars so late vendor corrections land
const SyncLookbackDays = 7

// Syncer pulls vendor history into the store
type Syncer interface {
	SyncAll(ctx context.Context, indexSymbol string, tickers []string, from, to time.Time, cfg collector.Config) (*collector.Report, error)
}

// MarketSyncJob pulls the latest benchmark and universe bars after the close
// ⭐ SSOT: the market-data sync schedule lives only in this job
type MarketSyncJob struct {
	syncer      Syncer
	indexSymbol string
	universe    contracts.Universe
	schedule    string
	workers     int
	now         func() time.Time
	logger      *logger.Logger
}

// NewMarketSyncJob creates a new market sync job
func NewMarketSyncJob(syncer Syncer, indexSymbol string, universe contracts.Universe, schedule string, workers int, log *logger.Logger) *MarketSyncJob {
	return &MarketSyncJob{
		syncer:      syncer,
		indexSymbol: indexSymbol,
		universe:    universe,
		schedule:    schedule,
		workers:     workers,
		now:         time.Now,
		logger:      log,
	}
}

// Name returns the job name
func (j *MarketSyncJob) Name() string {
	return "market_sync"
}

// Schedule returns the cron schedule (weekdays after the US close by default)
func (j *MarketSyncJob) Schedule() string {
	return j.schedule
}

// Run syncs the last SyncLookbackDays of bars. Ticker failures are logged;
// only a benchmark failure fails the job.
func (j *MarketSyncJob) Run(ctx context.Context) error {
	to := j.now()
	from := to.AddDate(0, 0, -SyncLookbackDays)

	j.logger.WithFields(map[string]interface{}{
		"from":    from.Format(contracts.DateLayout),
		"to":      to.Format(contracts.DateLayout),
		"tickers": len(j.universe.Tickers),
	}).Info("Starting scheduled market sync")

	report, err := j.syncer.SyncAll(ctx, j.indexSymbol, j.universe.Tickers, from, to, collector.Config{Workers: j.workers})
	if err != nil {
		return fmt.Errorf("sync %s: %w", j.indexSymbol, err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"snapshots": report.SnapshotRows,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
	if report.Failed > 0 {
		log.Warn("Scheduled market sync completed with ticker failures")
	} else {
		log.Info("Scheduled market sync completed successfully")
	}
	return nil
}
