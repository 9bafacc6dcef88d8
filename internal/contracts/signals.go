package contracts

import (
	"encoding/json"
	"time"
)

// Signal names, used as log and metric labels
const (
	SignalSPX       = "spx"
	SignalMarket    = "market"
	SignalFearIndex = "fear_index"
	SignalTrends    = "trends"
)

// Volatility levels from the percentile scorer
const (
	LevelNormal             = "NORMAL"
	LevelElevatedVolatility = "ELEVATED_VOLATILITY"
	LevelExtremeVolatility  = "EXTREME_VOLATILITY"
)

// Fear-index levels
const (
	LevelExtremePanic = "EXTREME_PANIC"
	LevelHighFear     = "HIGH_FEAR"
	LevelElevatedFear = "ELEVATED_FEAR"
	LevelModerate     = "MODERATE"
)

// PercentileScore is the pure output of the percentile scorer
type PercentileScore struct {
	Percentile float64 `json:"percentile"`
	Score      int     `json:"score"`
	Level      string  `json:"level"`
	WindowSize int     `json:"window_size"`
}

// SPXResult is the equity-volatility signal detail
type SPXResult struct {
	Date             string    `json:"date"`
	TradingDate      string    `json:"trading_date"`
	DateAdjusted     bool      `json:"date_adjusted"`
	AdjustmentReason string    `json:"adjustment_reason,omitempty"`
	Attempts         int       `json:"attempts,omitempty"`
	DailyReturn      float64   `json:"daily_return"`
	PercentileRank   float64   `json:"percentile_rank"`
	Score            int       `json:"score"`
	Level            string    `json:"level"`
	ClosePrice       float64   `json:"close_price"`
	WindowSize       int       `json:"window_size"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	DataSource       string    `json:"data_source"`
	IsLive           bool      `json:"is_live"`
	IsMarketOpen     *bool     `json:"is_market_open,omitempty"`
}

// FearIndexResult is the fallback sentiment detail
type FearIndexResult struct {
	Date      string   `json:"date"`
	Score     int      `json:"score"`
	Level     string   `json:"level"`
	VIX       float64  `json:"vix"`
	SKEW      *float64 `json:"skew,omitempty"`
	VIXSpike  bool     `json:"vix_spike"`
	SKEWSpike bool     `json:"skew_spike"`
}

// VolumeSpike is the pure output of the volume-spike scorer
type VolumeSpike struct {
	Score int      `json:"score"`
	Ratio *float64 `json:"ratio,omitempty"` // nil when yesterday had no volume
	Note  string   `json:"note,omitempty"`
}

// MarketResult is the primary sentiment detail
type MarketResult struct {
	Date            string        `json:"date"`
	Keyword         string        `json:"keyword"`
	Question        string        `json:"question"`
	ConditionID     string        `json:"condition_id"`
	Confidence      string        `json:"confidence"`
	Reasoning       string        `json:"reasoning"`
	RelevanceScore  float64       `json:"relevance_score"`
	WasActive       bool          `json:"was_active"`
	Volume          *MarketVolume `json:"volume"`
	YesterdayVolume float64       `json:"yesterday_volume"`
	Spike           VolumeSpike   `json:"spike"`
	Score           int           `json:"score"`
	TotalMarkets    int           `json:"total_markets"`
}

// SearchSpike is the pure output of the search-spike scorer
type SearchSpike struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// TrendsResult is the search-interest signal detail
type TrendsResult struct {
	Keyword        string  `json:"keyword"`
	TargetDate     string  `json:"target_date"`
	TargetValue    float64 `json:"target_value"`
	Day7Before     float64 `json:"day7_before"`
	Day7BeforeDate string  `json:"day7_before_date"`
	SpikeRatio     float64 `json:"spike_ratio"`
	MaxLast7       float64 `json:"max_last7"`
	Score          int     `json:"score"`
	Reason         string  `json:"reason"`
}

// SignalOutcome wraps one independently guarded signal computation
type SignalOutcome[T any] struct {
	Success bool   `json:"success"`
	Score   int    `json:"score"`
	Error   string `json:"error,omitempty"`
	Detail  *T     `json:"detail,omitempty"`
}

// SentimentSource tags where the sentiment sub-score came from
type SentimentSource string

const (
	SourcePolymarket SentimentSource = "polymarket"
	SourceVIXSkew    SentimentSource = "vix_skew"
	SourceNone       SentimentSource = "none"
)

// Sentiment is the resolved market-sentiment signal. Exactly one of
// PrimarySentiment, FallbackSentiment or UnavailableSentiment.
type Sentiment interface {
	Source() SentimentSource
	Score() int
	Succeeded() bool
	sentiment()
}

// PrimarySentiment carries a prediction-market result
type PrimarySentiment struct {
	Market MarketResult
}

// FallbackSentiment carries the fear-index result and why the primary failed
type FallbackSentiment struct {
	FearIndex    FearIndexResult
	PrimaryError string
}

// UnavailableSentiment keeps both failures for the audit payload
type UnavailableSentiment struct {
	PrimaryError  string
	FallbackError string
}

func (PrimarySentiment) sentiment()     {}
func (FallbackSentiment) sentiment()    {}
func (UnavailableSentiment) sentiment() {}

func (PrimarySentiment) Source() SentimentSource     { return SourcePolymarket }
func (FallbackSentiment) Source() SentimentSource    { return SourceVIXSkew }
func (UnavailableSentiment) Source() SentimentSource { return SourceNone }

func (p PrimarySentiment) Score() int   { return p.Market.Score }
func (f FallbackSentiment) Score() int  { return f.FearIndex.Score }
func (UnavailableSentiment) Score() int { return 0 }

func (PrimarySentiment) Succeeded() bool     { return true }
func (FallbackSentiment) Succeeded() bool    { return true }
func (UnavailableSentiment) Succeeded() bool { return false }

func (p PrimarySentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool            `json:"success"`
		Source  SentimentSource `json:"source"`
		Score   int             `json:"score"`
		Market  MarketResult    `json:"market"`
	}{true, p.Source(), p.Score(), p.Market})
}

func (f FallbackSentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success      bool            `json:"success"`
		Source       SentimentSource `json:"source"`
		Score        int             `json:"score"`
		FearIndex    FearIndexResult `json:"fear_index"`
		PrimaryError string          `json:"primary_error"`
	}{true, f.Source(), f.Score(), f.FearIndex, f.PrimaryError})
}

func (u UnavailableSentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success       bool            `json:"success"`
		Source        SentimentSource `json:"source"`
		Score         int             `json:"score"`
		PrimaryError  string          `json:"primary_error"`
		FallbackError string          `json:"fallback_error"`
	}{false, u.Source(), 0, u.PrimaryError, u.FallbackError})
}
