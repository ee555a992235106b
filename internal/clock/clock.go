package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// RealClock reports wall time in UTC so saved timestamps match the ISO form
// browsers write.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

// NewTickingClock returns a FakeClock that advances by step after every Now call.
func NewTickingClock(start time.Time, step time.Duration) *FakeClock {
	return &FakeClock{t: start, step: step}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
