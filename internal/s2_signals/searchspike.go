package s2_signals

import (
	"fmt"
	"strconv"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// SpikeEvidence is the numeric input to the search-spike rules
type SpikeEvidence struct {
	Target         float64
	Day7Before     float64
	Day7BeforeDate string
	MaxLast7       float64 // over the trailing 7 days, target inclusive
	MaxDate        string
}

// SpikeRatio is Target/Day7Before, or 0 when the comparison day is 0
func (e SpikeEvidence) SpikeRatio() float64 {
	if e.Day7Before > 0 {
		return e.Target / e.Day7Before
	}
	return 0
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScoreSearchSpike applies the priority-ordered spike rules; first match wins
func ScoreSearchSpike(e SpikeEvidence) contracts.SearchSpike {
	ratio := e.SpikeRatio()

	switch {
	case e.Target >= 90 && e.MaxLast7 == 100:
		return contracts.SearchSpike{
			Score:  2,
			Reason: fmt.Sprintf("High sustained interest: %s (peak of 100 on %s, major event detected)", num(e.Target), e.MaxDate),
		}
	case ratio > 4:
		return contracts.SearchSpike{
			Score:  2,
			Reason: fmt.Sprintf("Extreme spike: %s (%.1fx increase from %s on %s)", num(e.Target), ratio, num(e.Day7Before), e.Day7BeforeDate),
		}
	case ratio >= 2.5:
		return contracts.SearchSpike{
			Score:  1,
			Reason: fmt.Sprintf("Significant spike: %s (%.1fx increase from %s on %s)", num(e.Target), ratio, num(e.Day7Before), e.Day7BeforeDate),
		}
	default:
		return contracts.SearchSpike{
			Score:  0,
			Reason: fmt.Sprintf("No spike detected: %s (only %.1fx increase from %s on %s)", num(e.Target), ratio, num(e.Day7Before), e.Day7BeforeDate),
		}
	}
}

var errTargetMissing = fmt.Errorf("target date not in series: %w", contracts.ErrInsufficientHistory)

// EvidenceFromSeries locates target in series and derives the spike evidence.
// Fails with ErrInsufficientHistory when fewer than 7 prior days exist.
func EvidenceFromSeries(series []contracts.SearchPoint, target string) (SpikeEvidence, error) {
	idx := -1
	for i, p := range series {
		if p.Date.Format(contracts.DateLayout) == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		return SpikeEvidence{}, errTargetMissing
	}
	if idx-7 < 0 {
		return SpikeEvidence{}, fmt.Errorf("need 7 days of history: %w", contracts.ErrInsufficientHistory)
	}

	day7 := series[idx-7]
	ev := SpikeEvidence{
		Target:         series[idx].Value,
		Day7Before:     day7.Value,
		Day7BeforeDate: day7.Date.Format(contracts.DateLayout),
		MaxLast7:       -1,
	}
	for _, p := range series[idx-7 : idx+1] {
		if p.Value > ev.MaxLast7 {
			ev.MaxLast7 = p.Value
			ev.MaxDate = p.Date.Format(contracts.DateLayout)
		}
	}
	return ev, nil
}
