package strategyconfig

import (
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// Config is the backtest strategy configuration: which shocks to test and
// which tickers to rank
type Config struct {
	Meta     Meta          `yaml:"meta" json:"meta"`
	Events   []EventConfig `yaml:"events" json:"events"`
	Universe Universe      `yaml:"universe" json:"universe"`
	Backtest Backtest      `yaml:"backtest" json:"backtest"`
}

// Meta identifies the configuration
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// EventConfig is one tracked shock
type EventConfig struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Keyword string `yaml:"keyword" json:"keyword"`
	Date    string `yaml:"date" json:"date"` // YYYY-MM-DD
}

// Universe is the ranked ticker set
type Universe struct {
	Name    string   `yaml:"name" json:"name"`
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Backtest holds default run parameters
type Backtest struct {
	MomentumDays  int `yaml:"momentum_days" json:"momentum_days"`
	PortfolioSize int `yaml:"portfolio_size" json:"portfolio_size"`
}

// Params returns the default run parameters
func (b Backtest) Params() contracts.BacktestParams {
	return contracts.BacktestParams{MomentumDays: b.MomentumDays, PortfolioSize: b.PortfolioSize}
}

// TrackedEvents converts the configured events in file order
func (c *Config) TrackedEvents() ([]contracts.TrackedEvent, error) {
	out := make([]contracts.TrackedEvent, 0, len(c.Events))
	for i, e := range c.Events {
		d, err := time.Parse(contracts.DateLayout, e.Date)
		if err != nil {
			return nil, contracts.NewValidationError(fmt.Sprintf("events[%d].date", i), "must be YYYY-MM-DD")
		}
		keyword := e.Keyword
		if keyword == "" {
			keyword = e.ID
		}
		out = append(out, contracts.TrackedEvent{ID: e.ID, Name: e.Name, Keyword: keyword, Date: d})
	}
	return out, nil
}

// TickerUniverse returns the configured universe
func (c *Config) TickerUniverse() contracts.Universe {
	tickers := make([]string, len(c.Universe.Tickers))
	copy(tickers, c.Universe.Tickers)
	return contracts.Universe{Tickers: tickers}
}
