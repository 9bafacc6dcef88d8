package contracts

import "time"

// Classification buckets the composite total
type Classification string

const (
	ClassNormal    Classification = "NORMAL"
	ClassElevated  Classification = "ELEVATED"
	ClassBlackSwan Classification = "BLACK_SWAN"
)

// MaxCompositeScore is the ceiling of spx + market + trends
const MaxCompositeScore = 6

// Scores holds the sub-scores and their unweighted sum
type Scores struct {
	SPX          int             `json:"spx"`
	Market       int             `json:"market"`
	Trends       int             `json:"trends"`
	Total        int             `json:"total"`
	MaxPossible  int             `json:"max_possible"`
	MarketSource SentimentSource `json:"market_source"`
}

// AnalysisDetails holds the per-signal payloads for audit
type AnalysisDetails struct {
	SPX    SignalOutcome[SPXResult]    `json:"spx"`
	Market Sentiment                   `json:"market"`
	Trends SignalOutcome[TrendsResult] `json:"trends"`
}

// AnalysisMetadata describes the run itself
type AnalysisMetadata struct {
	RequestID         string    `json:"request_id"`
	Timestamp         time.Time `json:"timestamp"`
	ExecutionTime     string    `json:"execution_time"`
	SuccessfulMetrics int       `json:"successful_metrics"`
}

// CompositeScoreResult is the black-swan analysis for one (keyword, date).
// ⭐ SSOT: transient, computed per request and never persisted
type CompositeScoreResult struct {
	Date           string           `json:"date"`
	Keyword        string           `json:"keyword"`
	Scores         Scores           `json:"scores"`
	Classification Classification   `json:"classification"`
	Details        AnalysisDetails  `json:"details"`
	Metadata       AnalysisMetadata `json:"metadata"`
}

// BatchItem is one (keyword, date) pair for batch market analysis
type BatchItem struct {
	Keyword string `json:"keyword"`
	Date    string `json:"date"`
}

// BatchItemResult is one batch entry's outcome
type BatchItemResult struct {
	Keyword string        `json:"keyword"`
	Date    string        `json:"date"`
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Result  *MarketResult `json:"result,omitempty"`
}

// BatchResult summarizes a sequential batch run
type BatchResult struct {
	TotalEvents int               `json:"total_events"`
	Successful  int               `json:"successful"`
	Failed      int               `json:"failed"`
	Results     []BatchItemResult `json:"results"`
}
