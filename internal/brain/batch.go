package brain

import (
	"context"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
	"github.com/wonny/blackswan/backend/pkg/throttle"
)

// MarketSignal is the prediction-market scorer run by the batch
type MarketSignal interface {
	Score(ctx context.Context, keyword string, date time.Time) (*contracts.MarketResult, error)
}

// BatchRunner scores many (keyword, date) pairs against the prediction
// market, one at a time with at least delay of idle time between the end
// of one provider call and the start of the next
type BatchRunner struct {
	market   MarketSignal
	throttle *throttle.Throttle
	logger   *logger.Logger
}

// NewBatchRunner creates a batch runner spacing calls by delay
func NewBatchRunner(market MarketSignal, delay time.Duration, clock throttle.Clock, log *logger.Logger) *BatchRunner {
	return &BatchRunner{
		market:   market,
		throttle: throttle.New(delay, clock),
		logger:   log.WithComponent("batch"),
	}
}

// Run processes items sequentially. A failed item is recorded and the
// batch moves on.
func (b *BatchRunner) Run(ctx context.Context, items []contracts.BatchItem) *contracts.BatchResult {
	result := &contracts.BatchResult{
		TotalEvents: len(items),
		Results:     make([]contracts.BatchItemResult, 0, len(items)),
	}

	b.logger.WithField("items", len(items)).Info("Starting batch market analysis")

	for i, item := range items {
		entry := contracts.BatchItemResult{Keyword: item.Keyword, Date: item.Date}

		market, err := b.runOne(ctx, item)
		if err != nil {
			entry.Error = err.Error()
			result.Failed++
			b.logger.WithFields(map[string]interface{}{
				"index":   i,
				"keyword": item.Keyword,
				"date":    item.Date,
				"error":   err.Error(),
			}).Warn("Batch item failed")
		} else {
			entry.Success = true
			entry.Result = market
			result.Successful++
		}
		result.Results = append(result.Results, entry)
	}

	b.logger.WithFields(map[string]interface{}{
		"total":      result.TotalEvents,
		"successful": result.Successful,
		"failed":     result.Failed,
	}).Info("Batch market analysis completed")

	return result
}

func (b *BatchRunner) runOne(ctx context.Context, item contracts.BatchItem) (*contracts.MarketResult, error) {
	keyword, day, err := ParseRequest(item.Keyword, item.Date)
	if err != nil {
		return nil, err
	}
	if err := b.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	defer b.throttle.Done()
	return b.market.Score(ctx, keyword, day)
}
