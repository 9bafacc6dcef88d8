package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

type stubPrimary struct {
	result *contracts.MarketResult
	err    error
}

func (s stubPrimary) Score(context.Context, string, time.Time) (*contracts.MarketResult, error) {
	return s.result, s.err
}

type stubFallback struct {
	result *contracts.FearIndexResult
	err    error
	calls  *int
}

func (s stubFallback) Score(context.Context, time.Time) (*contracts.FearIndexResult, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.result, s.err
}

func TestSentimentResolver(t *testing.T) {
	date := day("2020-03-16")
	noMarket := fmt.Errorf("no candidates: %w", contracts.ErrNoRelevantMarket)

	t.Run("primary succeeds without touching fallback", func(t *testing.T) {
		calls := 0
		r := NewSentimentResolver(
			stubPrimary{result: &contracts.MarketResult{Score: 2}},
			stubFallback{calls: &calls},
			logger.Nop(),
		)
		s := r.Resolve(context.Background(), "covid", date)
		assert.IsType(t, contracts.PrimarySentiment{}, s)
		assert.Equal(t, contracts.SourcePolymarket, s.Source())
		assert.Equal(t, 2, s.Score())
		assert.Zero(t, calls)
	})

	t.Run("fallback keeps primary error", func(t *testing.T) {
		r := NewSentimentResolver(
			stubPrimary{err: noMarket},
			stubFallback{result: &contracts.FearIndexResult{Score: 2, VIX: 82.69}},
			logger.Nop(),
		)
		s := r.Resolve(context.Background(), "covid", date)
		fb, ok := s.(contracts.FallbackSentiment)
		require.True(t, ok)
		assert.Equal(t, contracts.SourceVIXSkew, s.Source())
		assert.Equal(t, 2, s.Score())
		assert.Contains(t, fb.PrimaryError, "no relevant market")
	})

	t.Run("both fail", func(t *testing.T) {
		r := NewSentimentResolver(
			stubPrimary{err: noMarket},
			stubFallback{err: contracts.Unavailable("yahoo", errors.New("down"))},
			logger.Nop(),
		)
		s := r.Resolve(context.Background(), "covid", date)
		u, ok := s.(contracts.UnavailableSentiment)
		require.True(t, ok)
		assert.False(t, s.Succeeded())
		assert.Zero(t, s.Score())
		assert.Equal(t, contracts.SourceNone, s.Source())
		assert.NotEmpty(t, u.PrimaryError)
		assert.NotEmpty(t, u.FallbackError)
	})
}

func TestTrendsScorer(t *testing.T) {
	series := func(values ...float64) []contracts.SearchPoint {
		start := day("2020-03-08")
		out := make([]contracts.SearchPoint, len(values))
		for i, v := range values {
			out[i] = contracts.SearchPoint{Date: start.AddDate(0, 0, i), Value: v}
		}
		return out
	}

	tests := []struct {
		name   string
		points []contracts.SearchPoint
		score  int
		reason string
	}{
		{"sustained peak", series(0, 0, 10, 20, 50, 100, 100, 95, 100), 2, "High sustained interest"},
		{"significant", series(10, 20, 20, 25, 30, 35, 40, 45, 50), 1, "Significant spike"},
		{"too short", series(10, 20, 50, 60, 70, 80, 90, 95, 99)[5:], 0, "Insufficient data (need 7 days of history)"},
		{"target missing", series(1, 2, 3, 4, 5, 6, 7, 8), 0, "Target date not found in data"},
		{"zero target", series(10, 20, 20, 25, 30, 35, 40, 45, 0), 0, "No data available for this date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewTrendsScorer(&fakeSearch{points: tt.points}, logger.Nop())
			result, err := scorer.Score(context.Background(), "covid", day("2020-03-16"))
			require.NoError(t, err)
			assert.Equal(t, tt.score, result.Score)
			assert.Contains(t, result.Reason, tt.reason)
		})
	}

	t.Run("provider failure", func(t *testing.T) {
		scorer := NewTrendsScorer(&fakeSearch{err: contracts.Unavailable("trends", errors.New("429"))}, logger.Nop())
		_, err := scorer.Score(context.Background(), "covid", day("2020-03-16"))
		assert.True(t, errors.Is(err, contracts.ErrProviderUnavailable))
	})
}

type slowPrimary struct{}

func (slowPrimary) Score(ctx context.Context, _ string, _ time.Time) (*contracts.MarketResult, error) {
	<-ctx.Done()
	return nil, contracts.Unavailable("gamma", ctx.Err())
}

func TestSentimentResolver_StageTimeout(t *testing.T) {
	r := NewSentimentResolver(
		slowPrimary{},
		stubFallback{result: &contracts.FearIndexResult{Score: 1}},
		logger.Nop(),
	).WithStageTimeout(20 * time.Millisecond)

	s := r.Resolve(context.Background(), "covid", day("2020-03-16"))
	fb, ok := s.(contracts.FallbackSentiment)
	require.True(t, ok, "a timed-out primary must still leave the fallback its own budget")
	assert.Equal(t, 1, fb.Score())
	assert.Contains(t, fb.PrimaryError, "deadline exceeded")
}
