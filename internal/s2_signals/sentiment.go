package s2_signals

import (
	"context"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// PrimarySignal produces the prediction-market sentiment
type PrimarySignal interface {
	Score(ctx context.Context, keyword string, date time.Time) (*contracts.MarketResult, error)
}

// FallbackSignal produces the fear-index sentiment
type FallbackSignal interface {
	Score(ctx context.Context, date time.Time) (*contracts.FearIndexResult, error)
}

// SentimentResolver tries the primary signal, and only on failure the
// fallback, keeping both error contexts
// ⭐ SSOT: primary/fallback sentiment policy
type SentimentResolver struct {
	primary  PrimarySignal
	fallback FallbackSignal
	timeout  time.Duration
	logger   *logger.Logger
}

// NewSentimentResolver creates a new two-stage resolver
func NewSentimentResolver(primary PrimarySignal, fallback FallbackSignal, log *logger.Logger) *SentimentResolver {
	return &SentimentResolver{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithComponent("sentiment"),
	}
}

// WithStageTimeout bounds each of the two stages separately
func (r *SentimentResolver) WithStageTimeout(d time.Duration) *SentimentResolver {
	r.timeout = d
	return r
}

func (r *SentimentResolver) stage(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Resolve never fails; an UnavailableSentiment carries both errors
func (r *SentimentResolver) Resolve(ctx context.Context, keyword string, date time.Time) contracts.Sentiment {
	pctx, cancel := r.stage(ctx)
	market, err := r.primary.Score(pctx, keyword, date)
	cancel()
	if err == nil {
		return contracts.PrimarySentiment{Market: *market}
	}
	primaryErr := err.Error()

	r.logger.WithFields(map[string]interface{}{
		"keyword": keyword,
		"date":    date.Format(contracts.DateLayout),
		"error":   primaryErr,
	}).Warn("Primary sentiment failed, using fear index")

	fctx, cancel := r.stage(ctx)
	defer cancel()

	fear, err := r.fallback.Score(fctx, date)
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"keyword": keyword,
			"date":    date.Format(contracts.DateLayout),
			"error":   err.Error(),
		}).Error("Fallback sentiment failed")
		return contracts.UnavailableSentiment{PrimaryError: primaryErr, FallbackError: err.Error()}
	}

	return contracts.FallbackSentiment{FearIndex: *fear, PrimaryError: primaryErr}
}
