package s2_signals

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// MarketScorer is the primary sentiment signal: select a market, then
// score its volume spike against the prior day
type MarketScorer struct {
	selector *MarketSelector
	volumes  contracts.MarketListingProvider
	logger   *logger.Logger
}

// NewMarketScorer creates a new prediction-market scorer
func NewMarketScorer(selector *MarketSelector, volumes contracts.MarketListingProvider, log *logger.Logger) *MarketScorer {
	return &MarketScorer{
		selector: selector,
		volumes:  volumes,
		logger:   log.WithComponent(contracts.SignalMarket),
	}
}

// Score selects the market for keyword and scores its volume spike on date
func (s *MarketScorer) Score(ctx context.Context, keyword string, date time.Time) (*contracts.MarketResult, error) {
	selected, err := s.selector.Select(ctx, keyword, date)
	if err != nil {
		return nil, err
	}
	market := selected.Candidate.Market

	today, err := s.volumes.DailyVolume(ctx, market.ConditionID, date)
	if err != nil {
		return nil, fmt.Errorf("fetch volume: %w", err)
	}

	// A failed prior-day fetch counts as zero volume.
	yesterday := 0.0
	if prev, err := s.volumes.DailyVolume(ctx, market.ConditionID, date.AddDate(0, 0, -1)); err == nil {
		yesterday = prev.TotalVolume
	} else {
		s.logger.WithError(err).Warn("Could not fetch prior-day volume")
	}

	spike := ScoreVolumeSpike(today.TotalVolume, yesterday)
	if spike.Ratio != nil {
		r := round(*spike.Ratio, 2)
		spike.Ratio = &r
	}

	result := &contracts.MarketResult{
		Date:            date.Format(contracts.DateLayout),
		Keyword:         keyword,
		Question:        market.Question,
		ConditionID:     market.ConditionID,
		Confidence:      selected.Selection.Confidence,
		Reasoning:       selected.Selection.Reasoning,
		RelevanceScore:  selected.Candidate.Relevance,
		WasActive:       selected.Candidate.WasActive,
		Volume:          today,
		YesterdayVolume: yesterday,
		Spike:           spike,
		Score:           spike.Score,
		TotalMarkets:    selected.TotalMarkets,
	}

	s.logger.WithFields(map[string]interface{}{
		"keyword":  keyword,
		"date":     result.Date,
		"question": market.Question,
		"volume":   today.TotalVolume,
		"score":    result.Score,
	}).Info("Market volume scored")

	return result, nil
}
