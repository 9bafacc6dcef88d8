package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// Rolling window bounds for the percentile scorer
const (
	MinWindowSize      = 100
	WindowLookbackDays = 365
	WindowMaxRows      = 252
)

// PercentileRank returns the share of window values whose magnitude is
// strictly below |target|, in [0, 100]. An empty window ranks 0.
func PercentileRank(target float64, window []float64) float64 {
	if len(window) == 0 {
		return 0
	}

	absTarget := math.Abs(target)
	below := 0
	for _, r := range window {
		if math.Abs(r) < absTarget {
			below++
		}
	}
	return float64(below) / float64(len(window)) * 100
}

// PercentileLevel maps a percentile to its score and level
func PercentileLevel(percentile float64) (int, string) {
	switch {
	case percentile >= 95:
		return 2, contracts.LevelExtremeVolatility
	case percentile >= 90:
		return 1, contracts.LevelElevatedVolatility
	default:
		return 0, contracts.LevelNormal
	}
}

// ScorePercentile ranks target against a window of strictly prior returns
// ⭐ SSOT: equity volatility percentile scoring
func ScorePercentile(target float64, window []float64) (contracts.PercentileScore, error) {
	if len(window) < MinWindowSize {
		return contracts.PercentileScore{WindowSize: len(window)}, fmt.Errorf(
			"need at least %d trading days, have %d: %w", MinWindowSize, len(window), contracts.ErrInsufficientHistory)
	}

	p := PercentileRank(target, window)
	score, level := PercentileLevel(p)

	return contracts.PercentileScore{
		Percentile: p,
		Score:      score,
		Level:      level,
		WindowSize: len(window),
	}, nil
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
