package s2_signals

import "github.com/wonny/blackswan/backend/internal/contracts"

// ScoreVolumeSpike compares a day's volume to the prior day's
func ScoreVolumeSpike(today, yesterday float64) contracts.VolumeSpike {
	if yesterday <= 0 {
		return contracts.VolumeSpike{Note: "Yesterday had zero volume, skipping volume comparison"}
	}

	ratio := today / yesterday
	spike := contracts.VolumeSpike{Ratio: &ratio}
	switch {
	case ratio >= 5:
		spike.Score = 2
	case ratio >= 3:
		spike.Score = 1
	}
	return spike
}
