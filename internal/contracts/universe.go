package contracts

import "time"

// Universe is the fixed ticker set ranked by the momentum backtest
// ⭐ SSOT: backtest universe passed from strategyconfig to the engine
type Universe struct {
	Tickers []string `json:"tickers" yaml:"tickers"`
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}

// TrackedEvent is a dated shock the backtest anchors on
type TrackedEvent struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Keyword string    `json:"keyword"`
	Date    time.Time `json:"date"`
}
