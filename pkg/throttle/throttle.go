package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so throttled callers can be tested without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

// Throttle enforces a minimum interval between calls, process-wide for
// whoever shares the instance.
// ⭐ SSOT: per-provider call spacing lives only here
type Throttle struct {
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration

	mu       sync.Mutex
	lastDone time.Time // zero until Done is called
}

// New creates a throttle that admits one call per interval
func New(interval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = RealClock()
	}
	return &Throttle{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		clock:    clock,
		interval: interval,
	}
}

// Done marks the end of a call. Once set, Wait also keeps a full interval
// of idle time after the last completed call.
func (t *Throttle) Done() {
	t.mu.Lock()
	t.lastDone = t.clock.Now()
	t.mu.Unlock()
}

// Wait blocks until the next call is permitted
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return context.DeadlineExceeded
	}

	delay := r.DelayFrom(now)
	t.mu.Lock()
	if !t.lastDone.IsZero() {
		if idle := t.lastDone.Add(t.interval).Sub(now); idle > delay {
			delay = idle
		}
	}
	t.mu.Unlock()
	if delay <= 0 {
		return nil
	}

	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}
