package game

import "time"

// Clock drives a running simulation. Every value received from C triggers
// one tick.
type Clock interface {
	C() <-chan time.Time
	Stop()
}

// TickerClock ticks at a fixed interval.
type TickerClock struct {
	ticker *time.Ticker
}

// NewTickerClock creates a clock firing every interval.
func NewTickerClock(interval time.Duration) *TickerClock {
	return &TickerClock{ticker: time.NewTicker(interval)}
}

// C returns the tick channel.
func (c *TickerClock) C() <-chan time.Time { return c.ticker.C }

// Stop stops the underlying ticker.
func (c *TickerClock) Stop() { c.ticker.Stop() }

// ManualClock ticks only when Advance is called.
type ManualClock struct {
	ch chan time.Time
}

// NewManualClock creates a manual clock.
func NewManualClock() *ManualClock {
	return &ManualClock{ch: make(chan time.Time)}
}

// C returns the tick channel.
func (c *ManualClock) C() <-chan time.Time { return c.ch }

// Stop is a no-op.
func (c *ManualClock) Stop() {}

// Advance delivers n ticks, blocking until the simulation has received each.
func (c *ManualClock) Advance(n int) {
	for i := 0; i < n; i++ {
		c.ch <- time.Now()
	}
}
