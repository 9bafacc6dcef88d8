package database

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS daily_snapshots (
		id               SERIAL PRIMARY KEY,
		snapshot_date    DATE NOT NULL UNIQUE,
		sp500_close      NUMERIC(12, 4) NOT NULL,
		sp500_return     NUMERIC(10, 6) NOT NULL,
		sp500_percentile NUMERIC(6, 2),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_prices (
		id         SERIAL PRIMARY KEY,
		ticker     VARCHAR(16) NOT NULL,
		date       DATE NOT NULL,
		open       NUMERIC(14, 4),
		high       NUMERIC(14, 4),
		low        NUMERIC(14, 4),
		close      NUMERIC(14, 4) NOT NULL,
		volume     BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (ticker, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_prices_ticker_date ON stock_prices (ticker, date)`,
	`CREATE TABLE IF NOT EXISTS momentum_backtest_results (
		id               SERIAL PRIMARY KEY,
		event_id         VARCHAR(32) NOT NULL,
		event_name       VARCHAR(128) NOT NULL,
		event_date       DATE NOT NULL,
		entry_date       DATE NOT NULL,
		exit_date        DATE NOT NULL,
		period           VARCHAR(4) NOT NULL,
		portfolio_return NUMERIC(12, 4) NOT NULL,
		sp500_return     NUMERIC(12, 4) NOT NULL,
		excess_return    NUMERIC(12, 4) NOT NULL,
		sharpe_ratio     NUMERIC(12, 4) NOT NULL,
		win_rate         NUMERIC(6, 2) NOT NULL,
		std_dev          NUMERIC(12, 4) NOT NULL,
		max_drawdown     NUMERIC(12, 4) NOT NULL,
		trading_days     INTEGER NOT NULL,
		momentum_days    INTEGER NOT NULL,
		portfolio_size   INTEGER NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS momentum_positions (
		id            SERIAL PRIMARY KEY,
		backtest_id   INTEGER NOT NULL REFERENCES momentum_backtest_results (id) ON DELETE CASCADE,
		ticker        VARCHAR(16) NOT NULL,
		side          VARCHAR(5) NOT NULL CHECK (side IN ('LONG', 'SHORT')),
		momentum_rank INTEGER NOT NULL,
		entry_price   NUMERIC(14, 4),
		exit_price    NUMERIC(14, 4),
		return_pct    NUMERIC(12, 4),
		position_size NUMERIC(8, 6) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_momentum_positions_backtest ON momentum_positions (backtest_id)`,
}

// Migrate creates the tables this service reads and writes
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
