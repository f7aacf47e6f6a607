package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc adapts the clock for ServiceDeps.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// SetWallClock keeps the date and moves the clock to hour:minute in the
// reference time zone.
func (c *Clock) SetWallClock(hour, minute int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.current.In(Location())
	y, m, d := local.Date()
	c.current = time.Date(y, m, d, hour, minute, 0, 0, Location())
	return c.current
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
