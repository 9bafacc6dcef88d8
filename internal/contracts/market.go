package contracts

import "time"

// MarketCandidate is a prediction market as listed by the provider.
// Transient; never persisted.
type MarketCandidate struct {
	Question    string     `json:"question"`
	ConditionID string     `json:"condition_id"`
	Slug        string     `json:"slug,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Volume24h   float64    `json:"volume_24h"`
	Closed      bool       `json:"closed"`
}

// ActiveOn reports whether date falls inside [start, end]. Markets without
// both bounds are never active.
func (m *MarketCandidate) ActiveOn(date time.Time) bool {
	if m.StartDate == nil || m.EndDate == nil {
		return false
	}
	return !date.Before(*m.StartDate) && !date.After(*m.EndDate)
}

// ScoredCandidate is a candidate ranked for disambiguation
type ScoredCandidate struct {
	Market    MarketCandidate `json:"market"`
	Relevance float64         `json:"relevance"`
	WasActive bool            `json:"was_active"`
	Tier      string          `json:"tier"`
}

// Selection is the relevance-judgment outcome. Index is 0-based into the
// ranked candidates and is meaningful only when None is false.
type Selection struct {
	Index      int    `json:"index"`
	None       bool   `json:"none"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// MarketVolume is a market's traded volume on one UTC day
type MarketVolume struct {
	ConditionID      string    `json:"condition_id"`
	Date             time.Time `json:"date"`
	SplitVolume      float64   `json:"split_volume"`
	MergeVolume      float64   `json:"merge_volume"`
	TotalVolume      float64   `json:"total_volume"`
	TransactionCount int       `json:"transaction_count"`
}
