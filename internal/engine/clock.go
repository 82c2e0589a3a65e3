package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Clock is the single repeating timer driving the simulation. One goroutine,
// one consumer: each tick callback runs to completion before the next fires,
// and Stop deterministically cancels the pending timer so no orphaned ticks
// can mutate a stopped session.
type Clock struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{} // nil when not running
}

// NewClock creates a stopped clock with the given tick interval.
func NewClock(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Clock{interval: interval}
}

// Start begins invoking fn on the tick cadence. No-op if already running.
func (c *Clock) Start(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	stop := make(chan struct{})
	c.stop = stop

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	slog.Debug("simulation clock started", "interval", c.interval)
}

// Stop cancels the timer. Idempotent; safe to call from within a tick
// callback.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
	slog.Debug("simulation clock stopped")
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}
