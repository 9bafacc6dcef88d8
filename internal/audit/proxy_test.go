package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

type fearByDate map[string]int

func (f fearByDate) Score(_ context.Context, date time.Time) (*contracts.FearIndexResult, error) {
	s, ok := f[date.Format(contracts.DateLayout)]
	if !ok {
		return nil, contracts.ErrProviderUnavailable
	}
	return &contracts.FearIndexResult{Score: s, VIX: 20 + float64(s)*10}, nil
}

type marketByKeyword map[string]int

func (m marketByKeyword) Score(_ context.Context, keyword string, _ time.Time) (*contracts.MarketResult, error) {
	s, ok := m[keyword]
	if !ok {
		return nil, contracts.ErrNoRelevantMarket
	}
	return &contracts.MarketResult{
		Score:    s,
		Question: "Will the event happen?",
		Volume:   &contracts.MarketVolume{TotalVolume: 125000},
	}, nil
}

func intp(v int) *int { return &v }

func TestProxyValidator(t *testing.T) {
	fear := fearByDate{"2023-03-13": 2, "2023-05-01": 0, "2023-10-07": 1, "2024-03-05": 0}
	market := marketByKeyword{"svb": 2, "frb": 2, "gaza": 1, "tuesday": 0, "trump": 1}
	v := NewProxyValidator(fear, market, logger.Nop())

	report, err := v.Validate(context.Background(), []contracts.ProxyCase{
		{Keyword: "svb", Date: "2023-03-13"},
		{Keyword: "frb", Date: "2023-05-01"},
		{Keyword: "gaza", Date: "2023-10-07"},
		{Keyword: "tuesday", Date: "2024-03-05"},
		{Keyword: "trump", Date: "2024-07-13"}, // fear index missing
		{Keyword: "bad", Date: "07/13/2024"},
	})
	require.NoError(t, err)
	require.Len(t, report.Cases, 6)

	first := report.Cases[0]
	assert.True(t, first.Agreement)
	assert.Equal(t, intp(0), first.ScoreDifference)
	require.NotNil(t, first.MarketVolume)
	assert.Equal(t, 125000.0, *first.MarketVolume)
	require.NotNil(t, first.VIX)
	assert.Equal(t, 40.0, *first.VIX)

	assert.Equal(t, intp(2), report.Cases[1].ScoreDifference)
	assert.False(t, report.Cases[1].Agreement)

	missing := report.Cases[4]
	assert.Nil(t, missing.FearIndexScore)
	assert.Equal(t, intp(1), missing.MarketScore)
	assert.Nil(t, missing.ScoreDifference)
	assert.False(t, missing.Agreement, "a missing score never agrees")
	assert.Contains(t, missing.Error, "fear index")

	assert.Contains(t, report.Cases[5].Error, "date")

	stats := report.Statistics
	assert.Equal(t, 4, stats.TotalTests)
	assert.Equal(t, 3, stats.PerfectMatches)
	assert.Equal(t, 0, stats.OffByOne)
	assert.Equal(t, 1, stats.OffByTwo)
	assert.Equal(t, 75.0, stats.Accuracy)
	assert.Equal(t, 0.5, stats.AverageDifference)
	assert.Contains(t, report.Conclusion, "EXCELLENT")
	assert.True(t, report.IsReliable())
}

func TestSummarize_Rounding(t *testing.T) {
	stats := Summarize([]contracts.ProxyComparison{
		{ScoreDifference: intp(0)},
		{ScoreDifference: intp(1)},
		{ScoreDifference: intp(1)},
		{},
	})
	assert.Equal(t, 3, stats.TotalTests)
	assert.Equal(t, 33.3, stats.Accuracy)
	assert.Equal(t, 0.67, stats.AverageDifference)
	assert.Equal(t, 2, stats.OffByOne)
}

func TestConclude(t *testing.T) {
	tests := []struct {
		accuracy float64
		total    int
		want     string
	}{
		{100, 4, "EXCELLENT"},
		{75, 4, "EXCELLENT"},
		{74.9, 4, "GOOD"},
		{60, 5, "GOOD"},
		{59.9, 5, "LIMITED"},
		{0, 0, "LIMITED"},
	}
	for _, tt := range tests {
		conclusion, recommendation := Conclude(contracts.ProxyStatistics{Accuracy: tt.accuracy, TotalTests: tt.total})
		assert.Contains(t, conclusion, tt.want, "accuracy %.1f", tt.accuracy)
		assert.NotEmpty(t, recommendation)
	}
}
