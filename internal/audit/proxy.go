package audit

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/blackswan/backend/internal/contracts"
	"github.com/wonny/blackswan/backend/pkg/logger"
)

// Conclusion bands on accuracy (%)
const (
	ExcellentAccuracy = 75.0
	GoodAccuracy      = 60.0
)

// DefaultProxyCases are dated shocks inside the prediction-market era
var DefaultProxyCases = []contracts.ProxyCase{
	{Date: "2023-03-13", Keyword: "SVB Silicon Valley Bank collapse"},
	{Date: "2023-05-01", Keyword: "First Republic Bank failure"},
	{Date: "2023-10-07", Keyword: "Israel Hamas war Gaza"},
	{Date: "2024-03-05", Keyword: "Super Tuesday primary election"},
	{Date: "2024-07-13", Keyword: "Trump assassination attempt"},
	{Date: "2024-11-06", Keyword: "Trump presidential election 2024"},
}

// FearSignal scores the volatility-index fallback
type FearSignal interface {
	Score(ctx context.Context, date time.Time) (*contracts.FearIndexResult, error)
}

// MarketSignal scores the prediction-market primary
type MarketSignal interface {
	Score(ctx context.Context, keyword string, date time.Time) (*contracts.MarketResult, error)
}

// ProxyValidator measures how often the fear index agrees with the
// prediction-market signal, to judge it as a stand-in before market data exists
// ⭐ SSOT: proxy agreement statistics are computed only here
type ProxyValidator struct {
	fear   FearSignal
	market MarketSignal
	logger *logger.Logger
}

// NewProxyValidator creates a new validator
func NewProxyValidator(fear FearSignal, market MarketSignal, log *logger.Logger) *ProxyValidator {
	return &ProxyValidator{
		fear:   fear,
		market: market,
		logger: log.WithComponent("proxy_validator"),
	}
}

// Validate runs every case sequentially and aggregates the comparisons
// where both signals produced a score
func (v *ProxyValidator) Validate(ctx context.Context, cases []contracts.ProxyCase) (*contracts.ProxyReport, error) {
	v.logger.WithField("cases", len(cases)).Info("Starting proxy validation")

	report := &contracts.ProxyReport{Cases: make([]contracts.ProxyComparison, 0, len(cases))}
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cmp := v.compare(ctx, c)

		v.logger.WithFields(map[string]interface{}{
			"case":      i + 1,
			"keyword":   c.Keyword,
			"date":      c.Date,
			"agreement": cmp.Agreement,
			"error":     cmp.Error,
		}).Info("Proxy case compared")

		report.Cases = append(report.Cases, cmp)
	}

	report.Statistics = Summarize(report.Cases)
	report.Conclusion, report.Recommendation = Conclude(report.Statistics)

	v.logger.WithFields(map[string]interface{}{
		"total":    report.Statistics.TotalTests,
		"accuracy": report.Statistics.Accuracy,
	}).Info("Proxy validation completed")

	return report, nil
}

func (v *ProxyValidator) compare(ctx context.Context, c contracts.ProxyCase) contracts.ProxyComparison {
	cmp := contracts.ProxyComparison{Keyword: c.Keyword, Date: c.Date}

	date, err := time.Parse(contracts.DateLayout, c.Date)
	if err != nil {
		cmp.Error = contracts.NewValidationError("date", "must be YYYY-MM-DD").Error()
		return cmp
	}

	var (
		fear    *contracts.FearIndexResult
		market  *contracts.MarketResult
		fearErr error
		mktErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fear, fearErr = v.fear.Score(gctx, date)
		return nil
	})
	g.Go(func() error {
		market, mktErr = v.market.Score(gctx, c.Keyword, date)
		return nil
	})
	_ = g.Wait()

	if fearErr == nil && fear != nil {
		s := fear.Score
		vix := fear.VIX
		cmp.FearIndexScore = &s
		cmp.VIX = &vix
	}
	if mktErr == nil && market != nil {
		s := market.Score
		cmp.MarketScore = &s
		cmp.MarketQuestion = truncate(market.Question, 100)
		if market.Volume != nil {
			vol := market.Volume.TotalVolume
			cmp.MarketVolume = &vol
		}
	}

	if cmp.FearIndexScore != nil && cmp.MarketScore != nil {
		diff := *cmp.FearIndexScore - *cmp.MarketScore
		if diff < 0 {
			diff = -diff
		}
		cmp.ScoreDifference = &diff
		cmp.Agreement = diff == 0
	}

	switch {
	case fearErr != nil && mktErr != nil:
		cmp.Error = "fear index: " + fearErr.Error() + "; market: " + mktErr.Error()
	case fearErr != nil:
		cmp.Error = "fear index: " + fearErr.Error()
	case mktErr != nil:
		cmp.Error = "market: " + mktErr.Error()
	}
	return cmp
}

// Summarize aggregates comparisons that have a score difference
func Summarize(cases []contracts.ProxyComparison) contracts.ProxyStatistics {
	var stats contracts.ProxyStatistics
	sumDiff := 0
	for _, c := range cases {
		if c.ScoreDifference == nil {
			continue
		}
		stats.TotalTests++
		sumDiff += *c.ScoreDifference
		switch *c.ScoreDifference {
		case 0:
			stats.PerfectMatches++
		case 1:
			stats.OffByOne++
		case 2:
			stats.OffByTwo++
		}
	}
	if stats.TotalTests > 0 {
		stats.Accuracy = roundTo(float64(stats.PerfectMatches)/float64(stats.TotalTests)*100, 1)
		stats.AverageDifference = roundTo(float64(sumDiff)/float64(stats.TotalTests), 2)
	}
	return stats
}

// Conclude maps accuracy onto a conclusion band and recommendation
func Conclude(stats contracts.ProxyStatistics) (string, string) {
	switch {
	case stats.TotalTests > 0 && stats.Accuracy >= ExcellentAccuracy:
		return "EXCELLENT: the fear index is a highly valid proxy for prediction-market sentiment",
			"Safe to use the fear index for backtesting before prediction-market data exists"
	case stats.TotalTests > 0 && stats.Accuracy >= GoodAccuracy:
		return "GOOD: the fear index is a reasonable proxy with some divergence",
			"Use the fear index for early periods and document the divergence"
	default:
		return "LIMITED: the fear index correlates weakly with prediction-market sentiment",
			"Consider another proxy or limit backtesting to the prediction-market era"
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
