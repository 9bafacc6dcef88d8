package s2_signals

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// SKEWThreshold adds one point of tail risk on top of the VIX band
const SKEWThreshold = 145.0

// FearLevel maps a volatility-index level to its score and label
func FearLevel(vix float64) (int, string) {
	switch {
	case vix >= 40:
		return 2, contracts.LevelExtremePanic
	case vix >= 30:
		return 2, contracts.LevelHighFear
	case vix >= 25:
		return 1, contracts.LevelElevatedFear
	case vix >= 20:
		return 1, contracts.LevelModerate
	default:
		return 0, contracts.LevelNormal
	}
}

// ScoreFearIndex scores a VIX close with an optional SKEW close, capped at 2
func ScoreFearIndex(vix float64, skew *float64) contracts.FearIndexResult {
	score, level := FearLevel(vix)
	result := contracts.FearIndexResult{
		Score:    score,
		Level:    level,
		VIX:      vix,
		VIXSpike: vix >= 25,
		SKEW:     skew,
	}

	if skew != nil && *skew >= SKEWThreshold {
		result.SKEWSpike = true
		result.Score = min(result.Score+1, 2)
	}

	return result
}

// FearIndexScorer fetches VIX and SKEW closes and scores them
type FearIndexScorer struct {
	provider   contracts.FearIndexProvider
	fearSymbol string
	skewSymbol string
	logger     *logger.Logger
}

// NewFearIndexScorer creates a new fear-index scorer
func NewFearIndexScorer(provider contracts.FearIndexProvider, fearSymbol, skewSymbol string, log *logger.Logger) *FearIndexScorer {
	return &FearIndexScorer{
		provider:   provider,
		fearSymbol: fearSymbol,
		skewSymbol: skewSymbol,
		logger:     log.WithComponent(contracts.SignalFearIndex),
	}
}

// Score scores the fear index on date. A missing SKEW close is tolerated.
func (s *FearIndexScorer) Score(ctx context.Context, date time.Time) (*contracts.FearIndexResult, error) {
	vix, err := s.provider.IndexLevel(ctx, s.fearSymbol, date)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.fearSymbol, err)
	}

	var skew *float64
	if s.skewSymbol != "" {
		if v, err := s.provider.IndexLevel(ctx, s.skewSymbol, date); err == nil {
			skew = &v
		} else {
			s.logger.WithError(err).Debug("SKEW unavailable, scoring on VIX alone")
		}
	}

	result := ScoreFearIndex(vix, skew)
	result.Date = date.Format(contracts.DateLayout)

	s.logger.WithFields(map[string]interface{}{
		"date":  result.Date,
		"vix":   vix,
		"score": result.Score,
		"level": result.Level,
	}).Info("Fear index scored")

	return &result, nil
}
