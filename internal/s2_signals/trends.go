package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// TrendsWindowDays is how far before the target the series is fetched
const TrendsWindowDays = 8

// TrendsScorer scores a search-interest spike for a keyword
type TrendsScorer struct {
	provider contracts.SearchInterestProvider
	logger   *logger.Logger
}

// NewTrendsScorer creates a new search-spike scorer
func NewTrendsScorer(provider contracts.SearchInterestProvider, log *logger.Logger) *TrendsScorer {
	return &TrendsScorer{
		provider: provider,
		logger:   log.WithComponent(contracts.SignalTrends),
	}
}

// Score fetches the series and applies the spike rules. Missing history
// degrades to a zero score with a reason instead of an error.
func (s *TrendsScorer) Score(ctx context.Context, keyword string, date time.Time) (*contracts.TrendsResult, error) {
	target := date.Format(contracts.DateLayout)

	series, err := s.provider.Series(ctx, keyword, date.AddDate(0, 0, -TrendsWindowDays), date)
	if err != nil {
		return nil, fmt.Errorf("fetch search interest: %w", err)
	}

	result := &contracts.TrendsResult{
		Keyword:    keyword,
		TargetDate: target,
	}

	ev, err := EvidenceFromSeries(series, target)
	if err != nil {
		if !errors.Is(err, contracts.ErrInsufficientHistory) {
			return nil, err
		}
		result.Reason = "Insufficient data (need 7 days of history)"
		if errors.Is(err, errTargetMissing) {
			result.Reason = "Target date not found in data"
		}
		s.logger.WithFields(map[string]interface{}{
			"keyword": keyword,
			"date":    target,
			"points":  len(series),
		}).Warn("Search interest history too short")
		return result, nil
	}

	if ev.Target == 0 {
		result.Reason = "No data available for this date"
		return result, nil
	}

	spike := ScoreSearchSpike(ev)
	result.TargetValue = ev.Target
	result.Day7Before = ev.Day7Before
	result.Day7BeforeDate = ev.Day7BeforeDate
	result.SpikeRatio = round(ev.SpikeRatio(), 2)
	result.MaxLast7 = ev.MaxLast7
	result.Score = spike.Score
	result.Reason = spike.Reason

	s.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"date":    target,
		"score":   result.Score,
		"ratio":   result.SpikeRatio,
	}).Info("Search spike scored")

	return result, nil
}
