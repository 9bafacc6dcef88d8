package contracts

import "context"

// ⭐ SSOT: repository interface definitions live only here

// SnapshotRepository persists benchmark snapshots
type SnapshotRepository interface {
	SnapshotProvider
	UpsertSnapshots(ctx context.Context, snapshots []Snapshot) (int, error)
}

// StockPriceRepository persists universe daily bars
type StockPriceRepository interface {
	StockPriceProvider
	UpsertPrices(ctx context.Context, prices []StockPrice) (int, error)
	Coverage(ctx context.Context) ([]TickerCoverage, error)
}

// BacktestRepository persists backtest runs and positions.
// Clear is destructive; runs are never updated in place.
type BacktestRepository interface {
	Clear(ctx context.Context) error
	SaveEvent(ctx context.Context, runs []RunRecord) ([]int64, error)
	ListRuns(ctx context.Context) ([]BacktestRun, error)
	Run(ctx context.Context, id int64) (*BacktestRun, error)
	Positions(ctx context.Context, runID int64) ([]Position, error)
}
