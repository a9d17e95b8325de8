// Package throttle enforces a minimum spacing between consecutive
// analysis submissions. Calls are delayed, never dropped.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/d-bias/dbias-go/internal/core"
)

// Gate serializes submission spacing around a single "time of last
// submission" marker. The marker lives for the life of the process;
// there is no teardown.
type Gate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock replaces the clock read, for deterministic tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// WithSleeper replaces the cancellable wait, for deterministic tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) GateOption {
	return func(g *Gate) {
		g.sleep = sleep
	}
}

// NewGate creates a gate with the given minimum interval between
// submissions. A non-positive interval disables waiting.
func NewGate(interval time.Duration, opts ...GateOption) *Gate {
	g := &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait blocks until the minimum interval since the previous submission
// has elapsed, then claims the marker and returns. The marker is updated
// before the caller's submission runs, so rapid overlapping calls space
// themselves out rather than stampeding. Cancellation during the wait
// leaves the marker unclaimed and returns a cancellation error.
//
// Two callers racing between the marker read and the marker update may
// under- or over-throttle by at most one interval. That tolerance is
// accepted; the gate is a pacing courtesy to the upstream service, not
// a mutual-exclusion lock.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		wait := g.interval - now.Sub(g.last)
		if wait <= 0 || g.last.IsZero() {
			g.last = now
			g.mu.Unlock()
			return nil
		}
		g.mu.Unlock()

		if err := g.sleep(ctx, wait); err != nil {
			return core.ErrCanceled("submission wait canceled").WithCause(err)
		}
	}
}

// Interval reports the configured minimum spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
