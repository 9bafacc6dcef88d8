package strategyconfig

import (
	"fmt"
	"regexp"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

var (
	eventIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	tickerPattern  = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]*$`)
)

// Warning is a non-fatal recommendation
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return contracts.NewValidationError("meta.strategy_id", "required")
	}

	// === Events ===
	if len(cfg.Events) == 0 {
		return contracts.NewValidationError("events", "at least one event is required")
	}
	seen := make(map[string]bool, len(cfg.Events))
	for i, e := range cfg.Events {
		field := fmt.Sprintf("events[%d]", i)
		if !eventIDPattern.MatchString(e.ID) {
			return contracts.NewValidationError(field+".id", "must match [a-z0-9_]+")
		}
		if seen[e.ID] {
			return contracts.NewValidationError(field+".id", fmt.Sprintf("duplicate id %q", e.ID))
		}
		seen[e.ID] = true
		if e.Name == "" {
			return contracts.NewValidationError(field+".name", "required")
		}
		if _, err := time.Parse(contracts.DateLayout, e.Date); err != nil {
			return contracts.NewValidationError(field+".date", "must be YYYY-MM-DD")
		}
	}

	// === Universe ===
	// Must hold at least one smallest portfolio on each side
	if n := len(cfg.Universe.Tickers); n < 2*contracts.MinPortfolioSize {
		return contracts.NewValidationError("universe.tickers", fmt.Sprintf("need at least %d tickers, got %d", 2*contracts.MinPortfolioSize, n))
	}
	tickers := make(map[string]bool, len(cfg.Universe.Tickers))
	for i, t := range cfg.Universe.Tickers {
		if !tickerPattern.MatchString(t) {
			return contracts.NewValidationError(fmt.Sprintf("universe.tickers[%d]", i), fmt.Sprintf("invalid ticker %q", t))
		}
		if tickers[t] {
			return contracts.NewValidationError(fmt.Sprintf("universe.tickers[%d]", i), fmt.Sprintf("duplicate ticker %q", t))
		}
		tickers[t] = true
	}

	// === Backtest ===
	if err := cfg.Backtest.Params().Validate(); err != nil {
		return err
	}
	if 2*cfg.Backtest.PortfolioSize > len(cfg.Universe.Tickers) {
		return contracts.NewValidationError("backtest.portfolio_size", "universe too small for both sides")
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, e := range cfg.Events {
		d, err := time.Parse(contracts.DateLayout, e.Date)
		if err != nil {
			continue
		}
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			warnings = append(warnings, Warning{
				Code:    "WEEKEND_EVENT",
				Message: fmt.Sprintf("event %s falls on a %s; momentum starts the Friday before", e.ID, d.Weekday()),
			})
		}
		if d.AddDate(1, 0, 0).After(time.Now()) {
			warnings = append(warnings, Warning{
				Code:    "SHORT_HORIZON",
				Message: fmt.Sprintf("event %s is under a year old; the 12m horizon will be truncated", e.ID),
			})
		}
	}

	if len(cfg.Universe.Tickers) < 2*contracts.MaxPortfolioSize {
		warnings = append(warnings, Warning{
			Code:    "SMALL_UNIVERSE",
			Message: fmt.Sprintf("universe of %d cannot serve portfolio_size %d", len(cfg.Universe.Tickers), contracts.MaxPortfolioSize),
		})
	}

	return warnings
}
