package s2_signals

import "github.com/wonny/blackswan/backend/internal/contracts"

// Classification cut-offs on the integer total (5/6 and 4/6 of the maximum)
const (
	BlackSwanTotal = 5
	ElevatedTotal  = 4
)

// ClampScore bounds a sub-score to [0, 2]
func ClampScore(s int) int {
	return max(0, min(s, 2))
}

// Classify buckets a composite total. Compared as integers: 4/6 is
// 0.666..., which a 0.67 float cut-off would wrongly call NORMAL.
func Classify(total int) contracts.Classification {
	switch {
	case total >= BlackSwanTotal:
		return contracts.ClassBlackSwan
	case total >= ElevatedTotal:
		return contracts.ClassElevated
	default:
		return contracts.ClassNormal
	}
}
