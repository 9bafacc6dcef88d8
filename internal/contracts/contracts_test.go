package contracts

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktestParams_Validate(t *testing.T) {
	tests := []struct {
		name      string
		params    BacktestParams
		wantField string
	}{
		{"defaults", BacktestParams{MomentumDays: 5, PortfolioSize: 20}, ""},
		{"lower bounds", BacktestParams{MomentumDays: 3, PortfolioSize: 5}, ""},
		{"upper bounds", BacktestParams{MomentumDays: 20, PortfolioSize: 50}, ""},
		{"momentum too short", BacktestParams{MomentumDays: 2, PortfolioSize: 20}, "momentumDays"},
		{"momentum too long", BacktestParams{MomentumDays: 21, PortfolioSize: 20}, "momentumDays"},
		{"size not multiple of 5", BacktestParams{MomentumDays: 5, PortfolioSize: 12}, "portfolioSize"},
		{"size too large", BacktestParams{MomentumDays: 5, PortfolioSize: 55}, "portfolioSize"},
		{"size zero", BacktestParams{MomentumDays: 5, PortfolioSize: 0}, "portfolioSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestMarketCandidate_ActiveOn(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)
	m := MarketCandidate{StartDate: &start, EndDate: &end}

	assert.True(t, m.ActiveOn(start))
	assert.True(t, m.ActiveOn(end))
	assert.True(t, m.ActiveOn(time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.ActiveOn(time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)))

	open := MarketCandidate{StartDate: &start}
	assert.False(t, open.ActiveOn(start))
}

func TestLiveQuote_DailyReturn(t *testing.T) {
	q := LiveQuote{Price: 4950, PreviousClose: 5000}
	assert.InDelta(t, -1.0, q.DailyReturn(), 1e-9)

	zero := LiveQuote{Price: 10}
	assert.Equal(t, 0.0, zero.DailyReturn())
}

func TestSentimentVariants(t *testing.T) {
	tests := []struct {
		name      string
		s         Sentiment
		source    SentimentSource
		score     int
		succeeded bool
		jsonKey   string
	}{
		{"primary", PrimarySentiment{Market: MarketResult{Score: 2}}, SourcePolymarket, 2, true, "market"},
		{"fallback", FallbackSentiment{FearIndex: FearIndexResult{Score: 1}, PrimaryError: "no relevant market"}, SourceVIXSkew, 1, true, "fear_index"},
		{"unavailable", UnavailableSentiment{PrimaryError: "a", FallbackError: "b"}, SourceNone, 0, false, "fallback_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.source, tt.s.Source())
			assert.Equal(t, tt.score, tt.s.Score())
			assert.Equal(t, tt.succeeded, tt.s.Succeeded())

			data, err := json.Marshal(tt.s)
			require.NoError(t, err)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, string(tt.source), decoded["source"])
			assert.Equal(t, float64(tt.score), decoded["score"])
			assert.Contains(t, decoded, tt.jsonKey)
		})
	}
}

func TestCompositeScoreResult_JSONEmbedsSentimentVariant(t *testing.T) {
	result := CompositeScoreResult{
		Date:    "2020-03-16",
		Keyword: "covid",
		Details: AnalysisDetails{
			Market: FallbackSentiment{FearIndex: FearIndexResult{Score: 2, Level: LevelExtremePanic, VIX: 82.69}},
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded struct {
		Details struct {
			Market struct {
				Source    string `json:"source"`
				FearIndex struct {
					Level string  `json:"level"`
					VIX   float64 `json:"vix"`
				} `json:"fear_index"`
			} `json:"market"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "vix_skew", decoded.Details.Market.Source)
	assert.Equal(t, LevelExtremePanic, decoded.Details.Market.FearIndex.Level)
	assert.Equal(t, 82.69, decoded.Details.Market.FearIndex.VIX)
}

func TestPortfolio_Tickers(t *testing.T) {
	p := Portfolio{
		Long:  []MomentumReturn{{Ticker: "NVDA"}, {Ticker: "AMD"}},
		Short: []MomentumReturn{{Ticker: "BA"}},
	}
	assert.Equal(t, []string{"NVDA", "AMD", "BA"}, p.Tickers())
}

func TestUniverse_Contains(t *testing.T) {
	u := Universe{Tickers: []string{"AAPL", "MSFT"}}
	assert.True(t, u.Contains("AAPL"))
	assert.False(t, u.Contains("TSLA"))
	assert.Equal(t, 2, u.Count())
}

func TestProxyReport_IsReliable(t *testing.T) {
	assert.False(t, (&ProxyReport{}).IsReliable())
	assert.True(t, (&ProxyReport{Statistics: ProxyStatistics{TotalTests: 6, Accuracy: 66.7}}).IsReliable())
	assert.False(t, (&ProxyReport{Statistics: ProxyStatistics{TotalTests: 6, Accuracy: 50}}).IsReliable())
}
