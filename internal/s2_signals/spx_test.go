package s2_signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// history returns a weekday snapshot for every day in [from, to] with
// ordinary returns cycling through -1.9 .. 2.0
func history(from, to string) []contracts.Snapshot {
	var out []contracts.Snapshot
	i := 0
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, contracts.Snapshot{Date: d, Close: 3000, Return: float64(i%40-19) / 10})
		i++
	}
	return out
}

func fixedClock(s string) func() time.Time {
	return func() time.Time { return day(s).Add(15 * time.Hour) }
}

func TestSPXScorer_StoredDate(t *testing.T) {
	rows := history("2019-03-01", "2020-03-13")
	rows = append(rows, contracts.Snapshot{Date: day("2020-03-16"), Close: 2386.13, Return: -11.98})
	snaps := newFakeSnapshots(rows...)

	scorer := NewSPXScorer(snaps, &fakeQuotes{}, "^GSPC", logger.Nop()).WithClock(fixedClock("2026-01-05"))

	result, err := scorer.Score(context.Background(), day("2020-03-16"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, contracts.LevelExtremeVolatility, result.Level)
	assert.Equal(t, 100.0, result.PercentileRank)
	assert.Equal(t, -11.98, result.DailyReturn)
	assert.Equal(t, SourceDatabase, result.DataSource)
	assert.False(t, result.DateAdjusted)
	assert.False(t, result.IsLive)
	assert.Equal(t, WindowMaxRows, result.WindowSize)
	assert.Equal(t, day("2020-03-13"), result.WindowEnd)
}

func TestSPXScorer_WeekendAdjustsToMonday(t *testing.T) {
	rows := history("2019-03-01", "2020-03-13")
	rows = append(rows, contracts.Snapshot{Date: day("2020-03-16"), Close: 2386.13, Return: -11.98})
	scorer := NewSPXScorer(newFakeSnapshots(rows...), &fakeQuotes{}, "^GSPC", logger.Nop()).WithClock(fixedClock("2026-01-05"))

	result, err := scorer.Score(context.Background(), day("2020-03-14"))
	require.NoError(t, err)
	assert.Equal(t, "2020-03-14", result.Date)
	assert.Equal(t, "2020-03-16", result.TradingDate)
	assert.True(t, result.DateAdjusted)
	assert.Equal(t, "Weekend", result.AdjustmentReason)
	assert.Equal(t, 1, result.Attempts)
}

func TestFindTradingDate(t *testing.T) {
	// Friday 2020-04-10 is missing (holiday).
	snaps := newFakeSnapshots(
		contracts.Snapshot{Date: day("2020-04-09")},
		contracts.Snapshot{Date: day("2020-04-13")},
	)
	scorer := NewSPXScorer(snaps, &fakeQuotes{}, "^GSPC", logger.Nop())

	td, snap, err := scorer.FindTradingDate(context.Background(), day("2020-04-10"))
	require.NoError(t, err)
	assert.Equal(t, day("2020-04-13"), td.Date)
	assert.Equal(t, day("2020-04-13"), snap.Date)
	assert.True(t, td.Adjusted)
	assert.Equal(t, "Market Holiday", td.Reason)
	assert.Equal(t, 2, td.Attempts)

	td, _, err = scorer.FindTradingDate(context.Background(), day("2020-04-09"))
	require.NoError(t, err)
	assert.False(t, td.Adjusted)
	assert.Empty(t, td.Reason)

	_, _, err = scorer.FindTradingDate(context.Background(), day("2020-05-01"))
	assert.True(t, errors.Is(err, contracts.ErrInsufficientHistory))
}

func TestFindTradingDate_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	snaps := newFakeSnapshots()
	snaps.err = boom

	_, _, err := NewSPXScorer(snaps, &fakeQuotes{}, "^GSPC", logger.Nop()).FindTradingDate(context.Background(), day("2020-04-10"))
	assert.ErrorIs(t, err, boom)
}

func TestSPXScorer_Live(t *testing.T) {
	rows := history("2019-03-01", "2020-03-16")

	t.Run("uses live quote for today", func(t *testing.T) {
		quotes := &fakeQuotes{quote: &contracts.LiveQuote{Symbol: "^GSPC", Price: 2400, PreviousClose: 2500, IsMarketOpen: true}}
		scorer := NewSPXScorer(newFakeSnapshots(rows...), quotes, "^GSPC", logger.Nop()).WithClock(fixedClock("2020-03-17"))

		result, err := scorer.Score(context.Background(), day("2020-03-17"))
		require.NoError(t, err)
		assert.True(t, result.IsLive)
		assert.Equal(t, SourceLive, result.DataSource)
		assert.Equal(t, -4.0, result.DailyReturn)
		require.NotNil(t, result.IsMarketOpen)
		assert.True(t, *result.IsMarketOpen)
		assert.Equal(t, 2, result.Score)
	})

	t.Run("falls back to latest snapshot", func(t *testing.T) {
		quotes := &fakeQuotes{err: contracts.Unavailable("yahoo", errors.New("429"))}
		scorer := NewSPXScorer(newFakeSnapshots(rows...), quotes, "^GSPC", logger.Nop()).WithClock(fixedClock("2020-03-17"))

		result, err := scorer.Score(context.Background(), day("2020-03-17"))
		require.NoError(t, err)
		assert.True(t, result.IsLive)
		assert.Equal(t, "Database Fallback (2020-03-16)", result.DataSource)
		assert.Nil(t, result.IsMarketOpen)
	})

	t.Run("fallback window excludes the fallback day", func(t *testing.T) {
		crash := append(history("2019-03-01", "2020-03-13"),
			contracts.Snapshot{Date: day("2020-03-16"), Close: 2386.13, Return: -11.98})
		quotes := &fakeQuotes{err: contracts.Unavailable("yahoo", errors.New("429"))}
		scorer := NewSPXScorer(newFakeSnapshots(crash...), quotes, "^GSPC", logger.Nop()).WithClock(fixedClock("2020-03-17"))

		result, err := scorer.Score(context.Background(), day("2020-03-17"))
		require.NoError(t, err)
		assert.Equal(t, -11.98, result.DailyReturn)
		assert.Equal(t, day("2020-03-13"), result.WindowEnd)
		assert.Equal(t, 100.0, result.PercentileRank)
	})
}

func TestSPXScorer_InsufficientWindow(t *testing.T) {
	rows := history("2020-01-01", "2020-03-16")
	scorer := NewSPXScorer(newFakeSnapshots(rows...), &fakeQuotes{}, "^GSPC", logger.Nop()).WithClock(fixedClock("2026-01-05"))

	_, err := scorer.Score(context.Background(), day("2020-03-16"))
	assert.True(t, errors.Is(err, contracts.ErrInsufficientHistory))
}

func TestFearIndexScorer(t *testing.T) {
	t.Run("vix and skew", func(t *testing.T) {
		provider := &fakeIndex{levels: map[string]float64{"^VIX": 26, "^SKEW": 150}}
		result, err := NewFearIndexScorer(provider, "^VIX", "^SKEW", logger.Nop()).Score(context.Background(), day("2020-03-16"))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Score)
		assert.True(t, result.VIXSpike)
		assert.True(t, result.SKEWSpike)
		assert.Equal(t, "2020-03-16", result.Date)
	})

	t.Run("missing skew tolerated", func(t *testing.T) {
		provider := &fakeIndex{levels: map[string]float64{"^VIX": 82.69}}
		result, err := NewFearIndexScorer(provider, "^VIX", "^SKEW", logger.Nop()).Score(context.Background(), day("2020-03-16"))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Score)
		assert.Equal(t, contracts.LevelExtremePanic, result.Level)
		assert.Nil(t, result.SKEW)
	})

	t.Run("missing vix fails", func(t *testing.T) {
		provider := &fakeIndex{levels: map[string]float64{}}
		_, err := NewFearIndexScorer(provider, "^VIX", "^SKEW", logger.Nop()).Score(context.Background(), day("2020-03-16"))
		assert.True(t, errors.Is(err, contracts.ErrProviderUnavailable))
	})
}
