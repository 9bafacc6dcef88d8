package contracts

import (
	"fmt"
	"time"
)

// Momentum backtest parameter bounds
const (
	MinMomentumDays    = 3
	MaxMomentumDays    = 20
	MinPortfolioSize   = 5
	MaxPortfolioSize   = 50
	PortfolioSizeStep  = 5
	BenchmarkStartIdx  = 100.0
	TradingDaysPerYear = 252
)

// Horizon is a holding period measured in calendar months from entry
type Horizon struct {
	Label  string `json:"label"`
	Months int    `json:"months"`
}

// Horizons are evaluated for every event
var Horizons = []Horizon{
	{Label: "3m", Months: 3},
	{Label: "6m", Months: 6},
	{Label: "12m", Months: 12},
}

// BacktestParams configures one run
type BacktestParams struct {
	MomentumDays  int `json:"momentum_days"`
	PortfolioSize int `json:"portfolio_size"`
}

// Validate checks both parameters against their allowed sets
func (p BacktestParams) Validate() error {
	if p.MomentumDays < MinMomentumDays || p.MomentumDays > MaxMomentumDays {
		return NewValidationError("momentumDays", fmt.Sprintf("must be between %d and %d", MinMomentumDays, MaxMomentumDays))
	}
	if p.PortfolioSize < MinPortfolioSize || p.PortfolioSize > MaxPortfolioSize || p.PortfolioSize%PortfolioSizeStep != 0 {
		return NewValidationError("portfolioSize", fmt.Sprintf("must be one of %d, %d, ..., %d", MinPortfolioSize, MinPortfolioSize+PortfolioSizeStep, MaxPortfolioSize))
	}
	return nil
}

// BacktestRun is one (event, horizon) performance record
// ⭐ SSOT: momentum_backtest_results row
type BacktestRun struct {
	ID              int64     `json:"id"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	EventDate       time.Time `json:"event_date"`
	EntryDate       time.Time `json:"entry_date"`
	ExitDate        time.Time `json:"exit_date"`
	Period          string    `json:"period"`
	PortfolioReturn float64   `json:"portfolio_return"`
	BenchmarkReturn float64   `json:"benchmark_return"`
	ExcessReturn    float64   `json:"excess_return"`
	SharpeRatio     float64   `json:"sharpe_ratio"`
	StdDev          float64   `json:"std_dev"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	WinRate         float64   `json:"win_rate"`
	TradingDays     int       `json:"trading_days"`
	MomentumDays    int       `json:"momentum_days"`
	PortfolioSize   int       `json:"portfolio_size"`
	CreatedAt       time.Time `json:"created_at"`
}

// RunRecord pairs a run with the positions it holds, for atomic saves
type RunRecord struct {
	Run       BacktestRun
	Positions []Position
}

// EventBacktest groups one event's portfolio and per-horizon performance.
// Error is set when any stage aborted the event.
type EventBacktest struct {
	EventID     string        `json:"event_id"`
	EventName   string        `json:"event_name"`
	EventDate   time.Time     `json:"event_date"`
	EntryDate   time.Time     `json:"entry_date"`
	Long        []Position    `json:"long"`
	Short       []Position    `json:"short"`
	Performance []BacktestRun `json:"performance"`
	Error       string        `json:"error,omitempty"`
}

// Succeeded reports whether every stage completed
func (e *EventBacktest) Succeeded() bool {
	return e.Error == ""
}

// IndexPoint is one day of the indexed performance series
type IndexPoint struct {
	Date      time.Time `json:"date"`
	Portfolio float64   `json:"portfolio"`
	Benchmark float64   `json:"benchmark"`
}

// IndexSeries is a portfolio-vs-benchmark series anchored at 100
type IndexSeries struct {
	RunID  int64        `json:"run_id"`
	Period string       `json:"period"`
	Points []IndexPoint `json:"points"`
}
