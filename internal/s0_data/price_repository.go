package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// PriceRepository implements contracts.StockPriceRepository
// ⭐ SSOT: stock_prices is read and written only here
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// CloseSeries returns a ticker's closes in [from, to], oldest first
func (r *PriceRepository) CloseSeries(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, close
		FROM stock_prices
		WHERE ticker = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query closes for %s: %w: %v", ticker, contracts.ErrPersistenceConflict, err)
	}
	defer rows.Close()

	var series []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// UpsertPrices writes daily bars keyed on (ticker, date). The last write wins.
func (r *PriceRepository) UpsertPrices(ctx context.Context, prices []contracts.StockPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			INSERT INTO stock_prices (ticker, date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker, date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume = EXCLUDED.volume
		`, p.Ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert prices: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return len(prices), nil
}

// Coverage returns row counts and date bounds per stored ticker
func (r *PriceRepository) Coverage(ctx context.Context) ([]contracts.TickerCoverage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, COUNT(*), MIN(date), MAX(date)
		FROM stock_prices
		GROUP BY ticker
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	defer rows.Close()

	var out []contracts.TickerCoverage
	for rows.Next() {
		var c contracts.TickerCoverage
		if err := rows.Scan(&c.Ticker, &c.Rows, &c.FirstDate, &c.LastDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
