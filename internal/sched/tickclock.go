// internal/sched/tickclock.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock is the scheduler's monotonic time source.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock reads the process monotonic clock relative to its anchor.
type MonotonicClock struct {
	anchor time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{anchor: time.Now()}
}

func (c *MonotonicClock) Now() time.Duration { return time.Since(c.anchor) }

// TickClock is a manually driven clock. Time only moves through Advance,
// Set, or the ticker started with Start, which makes it suitable for
// deterministic tests and simulated workloads.
type TickClock struct {
	now   atomic.Int64
	ticks atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTickClock creates a clock at time zero.
func NewTickClock() *TickClock {
	return &TickClock{stop: make(chan struct{})}
}

func (c *TickClock) Now() time.Duration { return time.Duration(c.now.Load()) }

// Advance moves the clock forward by d. Negative values are ignored so the
// clock stays monotonic.
func (c *TickClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.now.Add(int64(d))
}

// Set moves the clock to t if t is later than the current time.
func (c *TickClock) Set(t time.Duration) {
	for {
		cur := c.now.Load()
		if int64(t) <= cur {
			return
		}
		if c.now.CompareAndSwap(cur, int64(t)) {
			return
		}
	}
}

// Start advances the clock by step on every real interval.
func (c *TickClock) Start(interval, step time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.ticks.Add(1)
				c.Advance(step)
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the ticker started by Start.
func (c *TickClock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Count returns the number of ticks emitted by Start.
func (c *TickClock) Count() int64 {
	return c.ticks.Load()
}
