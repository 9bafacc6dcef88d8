package polymarket

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/redis"
)

const (
	graphPageSize = 1000
	graphMaxSkip  = 10000
	// amounts are USDC base units
	usdcScale = 1e6
)

type graphRequest struct {
	Query string `json:"query"`
}

type graphTx struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Amount    string `json:"amount"`
}

type graphResponse struct {
	Data   map[string][]graphTx `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DailyVolume sums a market's split and merge amounts over one UTC day.
// Past days are cached for a day.
func (c *Client) DailyVolume(ctx context.Context, conditionID string, date time.Time) (*contracts.MarketVolume, error) {
	if conditionID == "" {
		return nil, contracts.NewValidationError("condition_id", "is required")
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	today := c.now().UTC().Truncate(24 * time.Hour)

	if day.Before(today) {
		var vol contracts.MarketVolume
		err := c.cache.GetOrSet(ctx, redis.MarketVolumeKey(conditionID, day.Format(contracts.DateLayout)), &vol, redis.TTLDaily, func() (interface{}, error) {
			return c.fetchVolume(ctx, conditionID, day)
		})
		if err != nil {
			return nil, contracts.Unavailable(provider, err)
		}
		return &vol, nil
	}

	vol, err := c.fetchVolume(ctx, conditionID, day)
	if err != nil {
		return nil, contracts.Unavailable(provider, err)
	}
	return vol, nil
}

func (c *Client) fetchVolume(ctx context.Context, conditionID string, day time.Time) (*contracts.MarketVolume, error) {
	start := day.Unix()
	end := start + 86399

	var splits, merges []graphTx
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		splits, err = c.transactions(gctx, "splits", conditionID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		merges, err = c.transactions(gctx, "merges", conditionID, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	splitVolume := sumAmounts(splits)
	mergeVolume := sumAmounts(merges)

	vol := &contracts.MarketVolume{
		ConditionID:      conditionID,
		Date:             day,
		SplitVolume:      round2(splitVolume),
		MergeVolume:      round2(mergeVolume),
		TotalVolume:      round2(splitVolume + mergeVolume),
		TransactionCount: len(splits) + len(merges),
	}

	c.logger.WithFields(map[string]interface{}{
		"condition_id": conditionID,
		"date":         day.Format(contracts.DateLayout),
		"total":        vol.TotalVolume,
		"transactions": vol.TransactionCount,
	}).Debug("Fetched market volume")

	return vol, nil
}

func sumAmounts(txs []graphTx) float64 {
	total := 0.0
	for _, tx := range txs {
		if v, err := strconv.ParseFloat(tx.Amount, 64); err == nil {
			total += v
		}
	}
	return total / usdcScale
}

// transactions pages one entity (splits or merges) for a condition inside
// [start, end]
func (c *Client) transactions(ctx context.Context, entity, conditionID string, start, end int64) ([]graphTx, error) {
	var all []graphTx

	for skip := 0; skip < graphMaxSkip; skip += graphPageSize {
		query := fmt.Sprintf(`{
  %s(
    first: %d,
    skip: %d,
    where: { condition: %q, timestamp_gte: "%d", timestamp_lte: "%d" },
    orderBy: timestamp,
    orderDirection: desc
  ) { id timestamp amount }
}`, entity, graphPageSize, skip, strings.ToLower(conditionID), start, end)

		var resp graphResponse
		if err := c.httpClient.PostJSONInto(ctx, c.cfg.SubgraphEndpoint(), graphRequest{Query: query}, &resp); err != nil {
			return nil, fmt.Errorf("query %s: %w", entity, err)
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("query %s: %s", entity, resp.Errors[0].Message)
		}

		page := resp.Data[entity]
		all = append(all, page...)
		if len(page) < graphPageSize {
			break
		}
	}
	return all, nil
}
