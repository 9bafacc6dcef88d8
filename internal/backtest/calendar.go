package backtest

import "time"

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// AddTradingDays moves n weekdays forward (n > 0) or backward (n < 0).
// Exchange holidays are not modelled; price queries are range-based so a
// holiday simply has no row.
func AddTradingDays(date time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	result := date
	for count := 0; count < n; {
		result = result.AddDate(0, 0, step)
		if !isWeekend(result) {
			count++
		}
	}
	return result
}

// AddMonths adds calendar months. Day overflow rolls into the next month,
// so Jan 31 + 1 month is Mar 2 or 3.
func AddMonths(date time.Time, months int) time.Time {
	return date.AddDate(0, months, 0)
}
