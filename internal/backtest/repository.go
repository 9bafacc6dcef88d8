package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/database"
)

// Repository implements contracts.BacktestRepository on PostgreSQL
// ⭐ SSOT: momentum_backtest_results and momentum_positions are written only here
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new backtest repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Clear truncates results and positions together
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE TABLE momentum_positions, momentum_backtest_results RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate backtest tables: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return nil
}

// SaveEvent inserts every horizon run of one event in a single transaction.
// Either all runs land or none do.
func (r *Repository) SaveEvent(ctx context.Context, runs []contracts.RunRecord) ([]int64, error) {
	ids := make([]int64, 0, len(runs))
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range runs {
			id, err := insertRun(ctx, tx, &runs[i].Run, runs[i].Positions)
			if err != nil {
				return fmt.Errorf("%s run: %w", runs[i].Run.Period, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save backtest event: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return ids, nil
}

func insertRun(ctx context.Context, tx pgx.Tx, run *contracts.BacktestRun, positions []contracts.Position) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO momentum_backtest_results
			(event_id, event_name, event_date, entry_date, exit_date, period,
			 portfolio_return, sp500_return, excess_return, sharpe_ratio, win_rate,
			 std_dev, max_drawdown, trading_days, momentum_days, portfolio_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`,
		run.EventID, run.EventName, run.EventDate, run.EntryDate, run.ExitDate, run.Period,
		run.PortfolioReturn, run.BenchmarkReturn, run.ExcessReturn, run.SharpeRatio, run.WinRate,
		run.StdDev, run.MaxDrawdown, run.TradingDays, run.MomentumDays, run.PortfolioSize,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for _, p := range positions {
		batch.Queue(`
			INSERT INTO momentum_positions
				(backtest_id, ticker, side, momentum_rank, entry_price, exit_price, return_pct, position_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, p.Ticker, string(p.Side), p.MomentumRank, p.EntryPrice, p.ExitPrice, p.ReturnPct, p.PositionSize)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, err
	}
	return id, nil
}

const runColumns = `
	id, event_id, event_name, event_date, entry_date, exit_date, period,
	portfolio_return, sp500_return, excess_return, sharpe_ratio, win_rate,
	std_dev, max_drawdown, trading_days, momentum_days, portfolio_size, created_at
`

func scanRun(row pgx.Row) (*contracts.BacktestRun, error) {
	var run contracts.BacktestRun
	err := row.Scan(
		&run.ID, &run.EventID, &run.EventName, &run.EventDate, &run.EntryDate, &run.ExitDate, &run.Period,
		&run.PortfolioReturn, &run.BenchmarkReturn, &run.ExcessReturn, &run.SharpeRatio, &run.WinRate,
		&run.StdDev, &run.MaxDrawdown, &run.TradingDays, &run.MomentumDays, &run.PortfolioSize, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every stored run ordered by event date then horizon
func (r *Repository) ListRuns(ctx context.Context) ([]contracts.BacktestRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM momentum_backtest_results
		ORDER BY event_date,
			CASE period WHEN '3m' THEN 1 WHEN '6m' THEN 2 WHEN '12m' THEN 3 END
	`)
	if err != nil {
		return nil, fmt.Errorf("list backtest runs: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	defer rows.Close()

	var runs []contracts.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Run returns one stored run or ErrNotFound
func (r *Repository) Run(ctx context.Context, id int64) (*contracts.BacktestRun, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM momentum_backtest_results WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("backtest run %d: %w", id, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load backtest run %d: %w: %v", id, contracts.ErrPersistenceConflict, err)
	}
	return run, nil
}

// Positions returns a run's positions, best signed return first
func (r *Repository) Positions(ctx context.Context, runID int64) ([]contracts.Position, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, backtest_id, ticker, side, momentum_rank,
			COALESCE(entry_price, 0), COALESCE(exit_price, 0), COALESCE(return_pct, 0), position_size
		FROM momentum_positions
		WHERE backtest_id = $1
		ORDER BY return_pct DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	defer rows.Close()

	var positions []contracts.Position
	for rows.Next() {
		var p contracts.Position
		var side string
		if err := rows.Scan(&p.ID, &p.BacktestID, &p.Ticker, &side, &p.MomentumRank,
			&p.EntryPrice, &p.ExitPrice, &p.ReturnPct, &p.PositionSize); err != nil {
			return nil, err
		}
		p.Side = contracts.Side(side)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
