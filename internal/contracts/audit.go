package contracts

// ProxyCase is one (keyword, date) to compare fear index against market signal
type ProxyCase struct {
	Keyword string `json:"keyword"`
	Date    string `json:"date"`
}

// ProxyComparison is one case's outcome. Scores are nil when that signal failed.
type ProxyComparison struct {
	Keyword         string   `json:"keyword"`
	Date            string   `json:"date"`
	FearIndexScore  *int     `json:"fear_index_score"`
	MarketScore     *int     `json:"market_score"`
	Agreement       bool     `json:"agreement"`
	ScoreDifference *int     `json:"score_difference"`
	VIX             *float64 `json:"vix,omitempty"`
	MarketVolume    *float64 `json:"market_volume,omitempty"`
	MarketQuestion  string   `json:"market_question,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// ProxyStatistics aggregates comparisons where both scores exist
type ProxyStatistics struct {
	TotalTests        int     `json:"total_tests"`
	PerfectMatches    int     `json:"perfect_matches"`
	OffByOne          int     `json:"off_by_one"`
	OffByTwo          int     `json:"off_by_two"`
	Accuracy          float64 `json:"accuracy"`
	AverageDifference float64 `json:"average_difference"`
}

// ProxyReport is the full validation report
// ⭐ SSOT: fear index vs prediction market agreement
type ProxyReport struct {
	Cases          []ProxyComparison `json:"cases"`
	Statistics     ProxyStatistics   `json:"statistics"`
	Conclusion     string            `json:"conclusion"`
	Recommendation string            `json:"recommendation"`
}

// IsReliable reports whether the fear index is an acceptable stand-in
func (r *ProxyReport) IsReliable() bool {
	return r.Statistics.TotalTests > 0 && r.Statistics.Accuracy >= 60
}
