package s2_signals

import (
	"context"
	"errors"
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

type fakeSnapshots struct {
	rows map[string]contracts.Snapshot
	err  error
}

func newFakeSnapshots(rows ...contracts.Snapshot) *fakeSnapshots {
	f := &fakeSnapshots{rows: make(map[string]contracts.Snapshot)}
	for _, r := range rows {
		f.rows[r.Date.Format(contracts.DateLayout)] = r
	}
	return f
}

func (f *fakeSnapshots) sorted() []contracts.Snapshot {
	out := make([]contracts.Snapshot, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeSnapshots) SnapshotOn(_ context.Context, date time.Time) (*contracts.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[date.Format(contracts.DateLayout)]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &r, nil
}

func (f *fakeSnapshots) LatestSnapshot(context.Context) (*contracts.Snapshot, error) {
	all := f.sorted()
	if len(all) == 0 {
		return nil, contracts.ErrNotFound
	}
	return &all[len(all)-1], nil
}

func (f *fakeSnapshots) ReturnWindow(_ context.Context, before time.Time, lookbackDays, maxRows int) ([]contracts.Snapshot, error) {
	floor := before.AddDate(0, 0, -lookbackDays)
	all := f.sorted()
	var out []contracts.Snapshot
	for i := len(all) - 1; i >= 0 && len(out) < maxRows; i-- {
		d := all[i].Date
		if d.Before(before) && !d.Before(floor) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (f *fakeSnapshots) SnapshotsBetween(_ context.Context, from, to time.Time) ([]contracts.Snapshot, error) {
	var out []contracts.Snapshot
	for _, r := range f.sorted() {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeQuotes struct {
	quote *contracts.LiveQuote
	err   error
}

func (f *fakeQuotes) LiveQuote(context.Context, string) (*contracts.LiveQuote, error) {
	return f.quote, f.err
}

type fakeIndex struct {
	levels map[string]float64 // symbol -> level
}

func (f *fakeIndex) IndexLevel(_ context.Context, symbol string, _ time.Time) (float64, error) {
	v, ok := f.levels[symbol]
	if !ok {
		return 0, contracts.Unavailable(symbol, errors.New("no data"))
	}
	return v, nil
}

type fakeSearch struct {
	points []contracts.SearchPoint
	err    error
}

func (f *fakeSearch) Series(context.Context, string, time.Time, time.Time) ([]contracts.SearchPoint, error) {
	return f.points, f.err
}

type fakeListings struct {
	markets []contracts.MarketCandidate
	volumes map[string]float64 // date -> total
	err     error
}

func (f *fakeListings) ListMarkets(context.Context) ([]contracts.MarketCandidate, error) {
	return f.markets, f.err
}

func (f *fakeListings) DailyVolume(_ context.Context, id string, date time.Time) (*contracts.MarketVolume, error) {
	v, ok := f.volumes[date.Format(contracts.DateLayout)]
	if !ok {
		return nil, contracts.Unavailable("subgraph", errors.New("missing"))
	}
	return &contracts.MarketVolume{ConditionID: id, Date: date, TotalVolume: v}, nil
}

type stubChooser struct {
	sel   contracts.Selection
	err   error
	calls int
	seen  []contracts.ScoredCandidate
}

func (s *stubChooser) ChooseBest(_ context.Context, _ string, _ time.Time, c []contracts.ScoredCandidate) (*contracts.Selection, error) {
	s.calls++
	s.seen = c
	if s.err != nil {
		return nil, s.err
	}
	sel := s.sel
	return &sel, nil
}

func market(q string, start, end string, vol float64, closed bool) contracts.MarketCandidate {
	m := contracts.MarketCandidate{Question: q, ConditionID: "0x" + q[:3], Volume24h: vol, Closed: closed}
	if start != "" {
		s := day(start)
		m.StartDate = &s
	}
	if end != "" {
		e := day(end)
		m.EndDate = &e
	}
	return m
}
