package brain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/internal/s2_signals"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/metrics"
)

// SPXSignal scores equity-index volatility
type SPXSignal interface {
	Score(ctx context.Context, date time.Time) (*contracts.SPXResult, error)
}

// SentimentSignal resolves the market-sentiment sub-score. It never fails.
type SentimentSignal interface {
	Resolve(ctx context.Context, keyword string, date time.Time) contracts.Sentiment
}

// TrendsSignal scores search-interest spikes
type TrendsSignal interface {
	Score(ctx context.Context, keyword string, date time.Time) (*contracts.TrendsResult, error)
}

// Orchestrator runs the three signals for one (keyword, date) and folds
// them into a composite score
// ⭐ SSOT: composite scoring is coordinated only here
type Orchestrator struct {
	spx       SPXSignal
	sentiment SentimentSignal
	trends    TrendsSignal

	signalTimeout time.Duration
	metrics       *metrics.Registry // optional
	now           func() time.Time

	logger *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	spx SPXSignal,
	sentiment SentimentSignal,
	trends TrendsSignal,
	signalTimeout time.Duration,
	reg *metrics.Registry,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		spx:           spx,
		sentiment:     sentiment,
		trends:        trends,
		signalTimeout: signalTimeout,
		metrics:       reg,
		now:           time.Now,
		logger:        log.WithComponent("orchestrator"),
	}
}

// ParseRequest validates a keyword and ISO calendar date
func ParseRequest(keyword, date string) (string, time.Time, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", time.Time{}, contracts.NewValidationError("keyword", "is required")
	}
	if date == "" {
		return "", time.Time{}, contracts.NewValidationError("date", "is required")
	}
	d, err := time.Parse(contracts.DateLayout, date)
	if err != nil {
		return "", time.Time{}, contracts.NewValidationError("date", "must be YYYY-MM-DD")
	}
	return keyword, d, nil
}

// Analyze computes the composite score. Only malformed input returns an
// error; every signal failure degrades to a zero sub-score.
func (o *Orchestrator) Analyze(ctx context.Context, keyword, date string) (*contracts.CompositeScoreResult, error) {
	startTime := o.now()

	keyword, day, err := ParseRequest(keyword, date)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"keyword":    keyword,
		"date":       date,
	})
	log.Info("Starting composite analysis")

	var (
		spx       contracts.SignalOutcome[contracts.SPXResult]
		trends    contracts.SignalOutcome[contracts.TrendsResult]
		sentiment contracts.Sentiment
	)

	// Each branch folds its own failure, so the group never short-circuits.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		spx = runSignal(gctx, o, contracts.SignalSPX, keyword, date, func(ctx context.Context) (*contracts.SPXResult, int, error) {
			r, err := o.spx.Score(ctx, day)
			if err != nil {
				return nil, 0, err
			}
			return r, r.Score, nil
		})
		return nil
	})

	g.Go(func() error {
		sentiment = o.resolveSentiment(gctx, keyword, day)
		return nil
	})

	g.Go(func() error {
		trends = runSignal(gctx, o, contracts.SignalTrends, keyword, date, func(ctx context.Context) (*contracts.TrendsResult, int, error) {
			r, err := o.trends.Score(ctx, keyword, day)
			if err != nil {
				return nil, 0, err
			}
			return r, r.Score, nil
		})
		return nil
	})

	_ = g.Wait()

	scores := contracts.Scores{
		SPX:          s2_signals.ClampScore(spx.Score),
		Market:       s2_signals.ClampScore(sentiment.Score()),
		Trends:       s2_signals.ClampScore(trends.Score),
		MaxPossible:  contracts.MaxCompositeScore,
		MarketSource: sentiment.Source(),
	}
	scores.Total = scores.SPX + scores.Market + scores.Trends

	successful := 0
	for _, ok := range []bool{spx.Success, sentiment.Succeeded(), trends.Success} {
		if ok {
			successful++
		}
	}

	elapsed := o.now().Sub(startTime)
	result := &contracts.CompositeScoreResult{
		Date:           date,
		Keyword:        keyword,
		Scores:         scores,
		Classification: s2_signals.Classify(scores.Total),
		Details: contracts.AnalysisDetails{
			SPX:    spx,
			Market: sentiment,
			Trends: trends,
		},
		Metadata: contracts.AnalysisMetadata{
			RequestID:         requestID,
			Timestamp:         o.now().UTC(),
			ExecutionTime:     fmt.Sprintf("%dms", elapsed.Milliseconds()),
			SuccessfulMetrics: successful,
		},
	}

	if o.metrics != nil {
		o.metrics.Analyses.WithLabelValues(string(result.Classification)).Inc()
	}

	log.WithFields(map[string]interface{}{
		"total":          scores.Total,
		"classification": result.Classification,
		"market_source":  scores.MarketSource,
		"successful":     successful,
		"duration":       elapsed,
	}).Info("Composite analysis completed")

	return result, nil
}

// runSignal runs one guarded signal under the per-signal timeout. Errors
// and panics become an unsuccessful zero outcome.
func runSignal[T any](
	ctx context.Context,
	o *Orchestrator,
	signal, keyword, date string,
	fn func(ctx context.Context) (*T, int, error),
) (out contracts.SignalOutcome[T]) {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.signalTimeout)
	defer cancel()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signal panicked: %v", r)
			out = contracts.SignalOutcome[T]{Error: err.Error()}
		}
		if err != nil {
			o.logger.WithFields(map[string]interface{}{
				"keyword": keyword,
				"date":    date,
				"signal":  signal,
				"error":   err.Error(),
			}).Warn("Signal failed, scoring as zero")
		}
		o.observe(signal, started, err, out.Score)
	}()

	detail, score, err := fn(ctx)
	if err != nil {
		return contracts.SignalOutcome[T]{Error: err.Error()}
	}
	return contracts.SignalOutcome[T]{Success: true, Score: score, Detail: detail}
}

func (o *Orchestrator) resolveSentiment(ctx context.Context, keyword string, day time.Time) (s contracts.Sentiment) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("sentiment panicked: %v", r)
			o.logger.WithFields(map[string]interface{}{
				"keyword": keyword,
				"date":    day.Format(contracts.DateLayout),
				"signal":  contracts.SignalMarket,
			}).Error(msg)
			s = contracts.UnavailableSentiment{PrimaryError: msg}
		}

		var err error
		if !s.Succeeded() {
			err = contracts.ErrProviderUnavailable
		}
		o.observe(contracts.SignalMarket, started, err, s.Score())
		if o.metrics != nil {
			o.metrics.SentimentSource.WithLabelValues(string(s.Source())).Inc()
		}
	}()

	return o.sentiment.Resolve(ctx, keyword, day)
}

func (o *Orchestrator) observe(signal string, started time.Time, err error, score int) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveSignal(signal, started, err)
	if err == nil {
		o.metrics.SignalResults.WithLabelValues(signal, strconv.Itoa(score)).Inc()
	}
}
