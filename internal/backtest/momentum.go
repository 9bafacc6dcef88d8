package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// WindowReturn computes the % return from the first to the last close of a
// series. ok is false with fewer than two usable closes.
func WindowReturn(ticker string, series []contracts.PricePoint) (contracts.MomentumReturn, bool) {
	if len(series) < 2 {
		return contracts.MomentumReturn{}, false
	}
	start := series[0].Close
	end := series[len(series)-1].Close
	if start <= 0 {
		return contracts.MomentumReturn{}, false
	}
	return contracts.MomentumReturn{
		Ticker:     ticker,
		Return:     (end - start) / start * 100,
		StartClose: start,
		EndClose:   end,
	}, true
}

// CollectReturns loads each ticker's closes in [from, to] and returns the
// window return for every ticker with at least two observations.
// A ticker whose load fails is skipped and logged.
func CollectReturns(ctx context.Context, prices contracts.StockPriceProvider, tickers []string, from, to time.Time, log *logger.Logger) ([]contracts.MomentumReturn, error) {
	out := make([]contracts.MomentumReturn, 0, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := prices.CloseSeries(ctx, ticker, from, to)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Skipping ticker, price load failed")
			continue
		}
		if r, ok := WindowReturn(ticker, series); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// BuildPortfolio ranks returns descending and takes the top n as LONG and
// the bottom n, worst first, as SHORT. Needs at least 2n tickers.
func BuildPortfolio(returns []contracts.MomentumReturn, n int) (*contracts.Portfolio, error) {
	if len(returns) < 2*n {
		return nil, fmt.Errorf("only %d tickers with data, need %d: %w", len(returns), 2*n, contracts.ErrInsufficientUniverse)
	}

	sorted := make([]contracts.MomentumReturn, len(returns))
	copy(sorted, returns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Return != sorted[j].Return {
			return sorted[i].Return > sorted[j].Return
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	p := &contracts.Portfolio{
		Long:  make([]contracts.MomentumReturn, n),
		Short: make([]contracts.MomentumReturn, n),
	}
	copy(p.Long, sorted[:n])
	for i := 0; i < n; i++ {
		p.Short[i] = sorted[len(sorted)-1-i]
	}
	return p, nil
}

// RankedPositions converts a portfolio into rank-ordered position stubs
func RankedPositions(p *contracts.Portfolio) (long, short []contracts.Position) {
	size := 1 / float64(len(p.Long)+len(p.Short))
	for i, m := range p.Long {
		long = append(long, contracts.Position{
			Ticker: m.Ticker, Side: contracts.SideLong, MomentumRank: i + 1, Momentum: m.Return, PositionSize: size,
		})
	}
	for i, m := range p.Short {
		short = append(short, contracts.Position{
			Ticker: m.Ticker, Side: contracts.SideShort, MomentumRank: i + 1, Momentum: m.Return, PositionSize: size,
		})
	}
	return long, short
}
