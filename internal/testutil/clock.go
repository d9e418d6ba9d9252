package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a deterministic time source for orchestrator tests. Every
// reading advances by a fixed step, so wall-clock behavior such as beam time
// limits can be exercised without sleeping.
//
// All methods are safe for concurrent use. The tick hook runs outside the
// lock, so it may call back into the code under test.
type SteppingClock struct {
	mu    sync.Mutex
	base  time.Time
	step  time.Duration
	calls int
	hook  func(calls int)
}

// NewSteppingClock returns a clock whose first reading is base+step.
func NewSteppingClock(base time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{base: base, step: step}
}

// OnTick registers fn to observe the 1-based call count before each reading
// is returned. Tests use it to raise a stop at an exact beam iteration.
func (c *SteppingClock) OnTick(fn func(calls int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = fn
}

// Now returns the next reading. It satisfies the clock signature the
// orchestrator's WithClock option expects.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	c.calls++
	calls := c.calls
	hook := c.hook
	c.mu.Unlock()

	if hook != nil {
		hook(calls)
	}
	return c.base.Add(time.Duration(calls) * c.step)
}

// Calls reports how many readings have been taken.
func (c *SteppingClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
