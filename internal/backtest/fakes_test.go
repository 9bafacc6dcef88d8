package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

func day(s string) time.Time {
	t, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var epoch = day("2019-01-01")

// synthPrices generates weekday closes growing at a fixed annual rate per ticker
type synthPrices struct {
	growth map[string]float64
	from   time.Time // no data before this date
}

func (s *synthPrices) CloseSeries(_ context.Context, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	g, ok := s.growth[ticker]
	if !ok {
		return nil, nil
	}
	var out []contracts.PricePoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) || d.Before(s.from) {
			continue
		}
		years := d.Sub(epoch).Hours() / 24 / 365
		out = append(out, contracts.PricePoint{Date: d, Close: 100 * math.Exp(g*years)})
	}
	return out, nil
}

// synthBenchmark is a SnapshotProvider whose closes grow at rate
type synthBenchmark struct {
	rate float64
}

func (b *synthBenchmark) SnapshotOn(context.Context, time.Time) (*contracts.Snapshot, error) {
	return nil, contracts.ErrNotFound
}

func (b *synthBenchmark) LatestSnapshot(context.Context) (*contracts.Snapshot, error) {
	return nil, contracts.ErrNotFound
}

func (b *synthBenchmark) ReturnWindow(context.Context, time.Time, int, int) ([]contracts.Snapshot, error) {
	return nil, nil
}

func (b *synthBenchmark) SnapshotsBetween(_ context.Context, from, to time.Time) ([]contracts.Snapshot, error) {
	var out []contracts.Snapshot
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) {
			continue
		}
		years := d.Sub(epoch).Hours() / 24 / 365
		out = append(out, contracts.Snapshot{Date: d, Close: 3000 * math.Exp(b.rate*years)})
	}
	return out, nil
}

// memRepo is an in-memory BacktestRepository
type memRepo struct {
	nextID    int64
	runs      map[int64]contracts.BacktestRun
	positions map[int64][]contracts.Position
	clears    int
	failSave  error // returned by SaveEvent when set
}

func newMemRepo() *memRepo {
	return &memRepo{runs: map[int64]contracts.BacktestRun{}, positions: map[int64][]contracts.Position{}}
}

func (m *memRepo) Clear(context.Context) error {
	m.clears++
	m.runs = map[int64]contracts.BacktestRun{}
	m.positions = map[int64][]contracts.Position{}
	return nil
}

func (m *memRepo) saveRun(run *contracts.BacktestRun, positions []contracts.Position) int64 {
	m.nextID++
	r := *run
	r.ID = m.nextID
	m.runs[r.ID] = r
	for _, p := range positions {
		p.BacktestID = r.ID
		m.positions[r.ID] = append(m.positions[r.ID], p)
	}
	return r.ID
}

func (m *memRepo) SaveEvent(_ context.Context, runs []contracts.RunRecord) ([]int64, error) {
	if m.failSave != nil {
		return nil, m.failSave
	}
	ids := make([]int64, 0, len(runs))
	for i := range runs {
		ids = append(ids, m.saveRun(&runs[i].Run, runs[i].Positions))
	}
	return ids, nil
}

func (m *memRepo) ListRuns(context.Context) ([]contracts.BacktestRun, error) {
	out := make([]contracts.BacktestRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) Run(_ context.Context, id int64) (*contracts.BacktestRun, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", id, contracts.ErrNotFound)
	}
	return &r, nil
}

func (m *memRepo) Positions(_ context.Context, id int64) ([]contracts.Position, error) {
	out := append([]contracts.Position(nil), m.positions[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ReturnPct > out[j].ReturnPct })
	return out, nil
}

// universe returns n tickers T00..Tnn with growth spread from -0.5 to +0.5
func universe(n int) (contracts.Universe, map[string]float64) {
	u := contracts.Universe{}
	growth := map[string]float64{}
	for i := 0; i < n; i++ {
		t := fmt.Sprintf("T%02d", i)
		u.Tickers = append(u.Tickers, t)
		growth[t] = -0.5 + float64(i)/float64(n-1)
	}
	return u, growth
}
