package scheduler

import (
	"context"
	"time"
)

// HistoryLimit caps the runs kept per job
const HistoryLimit = 100

// Job is a recurring unit of maintenance work, such as market_sync pulling
// the benchmark and universe closes after the US close, or backtest_refresh
// rerunning the momentum backtest over the refreshed prices.
// ⭐ SSOT: the scheduled job interface is defined only here
type Job interface {
	// Name is the registry key, e.g. "market_sync"
	Name() string

	// Run does one pass. A returned error is retried by the scheduler.
	Run(ctx context.Context) error

	// Schedule is a cron spec with a leading seconds field, e.g.
	// "0 30 22 * * 1-5" for weekday evenings, or a descriptor like "@weekly"
	Schedule() string
}

// JobResult records one run of a job, after retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent HistoryLimit results of one job, oldest first.
// Callers hold the scheduler lock.
type JobHistory struct {
	Results []JobResult
}

// AddResult appends result and drops the oldest entries past HistoryLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - HistoryLimit; over > 0 {
		h.Results = h.Results[over:]
	}
}

// GetLatestResults returns up to n of the newest results, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns every failed result still in the window
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns successes over runs in the window, 0 when empty
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.GetFailedResults())) / float64(len(h.Results))
}

// LastStart returns the start time of the newest run whose outcome is
// success, or nil when no such run is in the window
func (h *JobHistory) LastStart(success bool) *time.Time {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success == success {
			t := h.Results[i].StartTime
			return &t
		}
	}
	return nil
}
