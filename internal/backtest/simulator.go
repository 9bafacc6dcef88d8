package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// closesByDate indexes a close series by calendar date
func closesByDate(series []contracts.PricePoint) map[string]float64 {
	m := make(map[string]float64, len(series))
	for _, p := range series {
		m[p.Date.Format(contracts.DateLayout)] = p.Close
	}
	return m
}

// dailyChange returns the % change between two dates of a series, if both
// closes are present
func dailyChange(closes map[string]float64, prev, cur string) (float64, bool) {
	p, okPrev := closes[prev]
	c, okCur := closes[cur]
	if !okPrev || !okCur || p <= 0 {
		return 0, false
	}
	return (c - p) / p * 100, true
}

// Simulate builds the daily indexed series for a long/short portfolio
// against the benchmark, both anchored at 100 on the first benchmark date.
// Positions are aligned to benchmark days by date; a ticker missing either
// close on a day is left out of that day's average.
// ⭐ SSOT: indexed performance simulation
func Simulate(benchmark []contracts.PricePoint, long, short map[string][]contracts.PricePoint) []contracts.IndexPoint {
	if len(benchmark) == 0 {
		return nil
	}

	longCloses := make(map[string]map[string]float64, len(long))
	for t, s := range long {
		longCloses[t] = closesByDate(s)
	}
	shortCloses := make(map[string]map[string]float64, len(short))
	for t, s := range short {
		shortCloses[t] = closesByDate(s)
	}

	portfolioIdx := contracts.BenchmarkStartIdx
	benchmarkIdx := contracts.BenchmarkStartIdx
	points := make([]contracts.IndexPoint, 0, len(benchmark))
	points = append(points, contracts.IndexPoint{
		Date:      benchmark[0].Date,
		Portfolio: portfolioIdx,
		Benchmark: benchmarkIdx,
	})

	for i := 1; i < len(benchmark); i++ {
		prev := benchmark[i-1].Date.Format(contracts.DateLayout)
		cur := benchmark[i].Date.Format(contracts.DateLayout)

		if benchmark[i-1].Close > 0 {
			benchmarkIdx *= benchmark[i].Close / benchmark[i-1].Close
		}

		sum := 0.0
		valid := 0
		for _, closes := range longCloses {
			if chg, ok := dailyChange(closes, prev, cur); ok {
				sum += chg
				valid++
			}
		}
		for _, closes := range shortCloses {
			if chg, ok := dailyChange(closes, prev, cur); ok {
				sum -= chg
				valid++
			}
		}
		if valid > 0 {
			portfolioIdx *= 1 + sum/float64(valid)/100
		}

		points = append(points, contracts.IndexPoint{
			Date:      benchmark[i].Date,
			Portfolio: portfolioIdx,
			Benchmark: benchmarkIdx,
		})
	}
	return points
}

// Performance holds the horizon-end metrics of one simulation
type Performance struct {
	PortfolioReturn float64
	BenchmarkReturn float64
	ExcessReturn    float64
	StdDev          float64
	SharpeRatio     float64
	MaxDrawdown     float64
	WinRate         float64
	TradingDays     int
}

// ExcessSeries is the daily % change of the portfolio index minus that of
// the benchmark index, for every day after the first
func ExcessSeries(points []contracts.IndexPoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		p := (points[i].Portfolio - points[i-1].Portfolio) / points[i-1].Portfolio * 100
		b := (points[i].Benchmark - points[i-1].Benchmark) / points[i-1].Benchmark * 100
		out = append(out, p-b)
	}
	return out
}

// MaxDrawdown is the largest peak-to-trough % decline of the portfolio index
func MaxDrawdown(points []contracts.IndexPoint) float64 {
	peak := contracts.BenchmarkStartIdx
	maxDD := 0.0
	for _, p := range points {
		if p.Portfolio > peak {
			peak = p.Portfolio
		}
		if dd := (peak - p.Portfolio) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// WinRate is the % of signed position returns strictly above zero, over
// all 2n positions. Positions without data count as non-winners.
func WinRate(signedReturns []float64, portfolioSize int) float64 {
	if portfolioSize <= 0 {
		return 0
	}
	winners := 0
	for _, r := range signedReturns {
		if r > 0 {
			winners++
		}
	}
	return float64(winners) / float64(2*portfolioSize) * 100
}

// Evaluate computes the horizon-end metrics. Sharpe is annualized by the
// number of days actually simulated.
func Evaluate(points []contracts.IndexPoint, signedReturns []float64, portfolioSize int) Performance {
	if len(points) == 0 {
		return Performance{}
	}

	last := points[len(points)-1]
	perf := Performance{
		PortfolioReturn: last.Portfolio - contracts.BenchmarkStartIdx,
		BenchmarkReturn: last.Benchmark - contracts.BenchmarkStartIdx,
		MaxDrawdown:     MaxDrawdown(points),
		WinRate:         WinRate(signedReturns, portfolioSize),
	}
	perf.ExcessReturn = perf.PortfolioReturn - perf.BenchmarkReturn

	excess := ExcessSeries(points)
	perf.TradingDays = len(excess)
	if len(excess) > 0 {
		_, perf.StdDev = stat.PopMeanStdDev(excess, nil)
	}
	if perf.StdDev > 0 && !math.IsNaN(perf.StdDev) {
		perf.SharpeRatio = perf.ExcessReturn / perf.StdDev * math.Sqrt(float64(contracts.TradingDaysPerYear)/float64(perf.TradingDays))
	} else {
		perf.StdDev = 0
	}
	return perf
}
