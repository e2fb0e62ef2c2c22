// Package clock provides the one-second tick source that drives a session.
//
// The clock counts elapsed monotonic time instead of trusting the ticker to
// fire exactly once per interval. Late or coalesced wakeups are reported as a
// single callback carrying the number of whole intervals that passed.
package clock

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultInterval   = time.Second
	defaultResolution = DefaultInterval / 4
)

// TickFunc receives the token returned by the Start call that produced the
// tick and the number of whole intervals elapsed since the previous callback.
type TickFunc func(token uint64, steps int)

// Clock is a restartable interval clock. Stop never blocks, so it is safe to
// call while holding a lock that TickFunc also takes; callers compare the
// token to discard ticks from a stopped run.
type Clock struct {
	interval   time.Duration
	resolution time.Duration
	now        func() time.Time

	mu     sync.Mutex
	token  uint64
	last   time.Time
	cancel context.CancelFunc
}

// Option configures a Clock.
type Option func(*Clock)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
			c.resolution = d / 4
		}
	}
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// New returns a stopped clock.
func New(opts ...Option) *Clock {
	c := &Clock{
		interval:   DefaultInterval,
		resolution: defaultResolution,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.resolution <= 0 {
		c.resolution = c.interval
	}

	return c
}

// Start begins a new run and returns its token. A running clock is restarted;
// no elapsed time carries over from a previous run.
func (c *Clock) Start(fn TickFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	c.token++
	c.last = c.now()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.run(ctx, c.token, fn)

	return c.token
}

// Stop ends the current run. Ticks already in flight carry a stale token.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}

	c.cancel()
	c.cancel = nil
	c.token++
}

// Running reports whether a run is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancel != nil
}

// Token returns the token of the current run.
func (c *Clock) Token() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token
}

// Pump accounts for the time elapsed up to now and returns the number of
// whole intervals that passed. The remainder is kept for the next call.
func (c *Clock) Pump(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pumpLocked(now)
}

func (c *Clock) pumpLocked(now time.Time) int {
	elapsed := now.Sub(c.last)
	if elapsed < c.interval {
		return 0
	}

	steps := int(elapsed / c.interval)
	c.last = c.last.Add(time.Duration(steps) * c.interval)

	return steps
}

func (c *Clock) run(ctx context.Context, token uint64, fn TickFunc) {
	ticker := time.NewTicker(c.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			steps, ok := c.pump(token)
			if !ok {
				return
			}

			if steps > 0 {
				fn(token, steps)
			}
		}
	}
}

func (c *Clock) pump(token uint64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token || c.cancel == nil {
		return 0, false
	}

	return c.pumpLocked(c.now()), true
}
