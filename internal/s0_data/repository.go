package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository
// ⭐ SSOT: daily_snapshots is read and written only here
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `snapshot_date, sp500_close, sp500_return, sp500_percentile`

func scanSnapshot(row pgx.Row) (*contracts.Snapshot, error) {
	var s contracts.Snapshot
	if err := row.Scan(&s.Date, &s.Close, &s.Return, &s.Percentile); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSnapshots(rows pgx.Rows) ([]contracts.Snapshot, error) {
	defer rows.Close()

	var out []contracts.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SnapshotOn returns the snapshot stored for date
func (r *SnapshotRepository) SnapshotOn(ctx context.Context, date time.Time) (*contracts.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		WHERE snapshot_date = $1
	`, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", date.Format(contracts.DateLayout), contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return s, nil
}

// LatestSnapshot returns the most recent stored snapshot
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context) (*contracts.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return s, nil
}

// ReturnWindow returns up to maxRows snapshots before the given date and
// within lookbackDays calendar days, newest first
func (r *SnapshotRepository) ReturnWindow(ctx context.Context, before time.Time, lookbackDays, maxRows int) ([]contracts.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		WHERE snapshot_date < $1
		  AND snapshot_date >= $2
		ORDER BY snapshot_date DESC
		LIMIT $3
	`, before, before.AddDate(0, 0, -lookbackDays), maxRows)
	if err != nil {
		return nil, fmt.Errorf("query return window: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return collectSnapshots(rows)
}

// SnapshotsBetween returns snapshots in [from, to], oldest first
func (r *SnapshotRepository) SnapshotsBetween(ctx context.Context, from, to time.Time) ([]contracts.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		WHERE snapshot_date BETWEEN $1 AND $2
		ORDER BY snapshot_date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return collectSnapshots(rows)
}

// UpsertSnapshots writes snapshots keyed on date. The last write wins.
func (r *SnapshotRepository) UpsertSnapshots(ctx context.Context, snapshots []contracts.Snapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(`
			INSERT INTO daily_snapshots (snapshot_date, sp500_close, sp500_return, sp500_percentile)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (snapshot_date) DO UPDATE SET
				sp500_close = EXCLUDED.sp500_close,
				sp500_return = EXCLUDED.sp500_return,
				sp500_percentile = COALESCE(EXCLUDED.sp500_percentile, daily_snapshots.sp500_percentile)
		`, s.Date, s.Close, s.Return, s.Percentile)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert snapshots: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return len(snapshots), nil
}

// SnapshotRange returns the stored row count and date bounds
func (r *SnapshotRepository) SnapshotRange(ctx context.Context) (int, *time.Time, *time.Time, error) {
	var (
		count       int
		first, last *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), MIN(snapshot_date), MAX(snapshot_date)
		FROM daily_snapshots
	`).Scan(&count, &first, &last)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("snapshot range: %w: %v", contracts.ErrPersistenceConflict, err)
	}
	return count, first, last, nil
}
