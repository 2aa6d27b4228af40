package animation

import (
	"math"
	"time"
)

// PercentageCounter animates an integer display from 0 to a target
// percentage. Only one run is active at a time; starting again cancels the
// previous run's pending frames.
type PercentageCounter struct {
	sched Scheduler
	token Token
	gen   uint64
	run   Run
	state State
	value int
}

// NewPercentageCounter binds a counter to a scheduler.
func NewPercentageCounter(sched Scheduler) *PercentageCounter {
	return &PercentageCounter{sched: sched}
}

// Start begins a run towards target over duration. onFrame receives every
// displayed value, the last one being exactly the clamped target; onComplete
// fires once after it. The first frame is delivered synchronously.
func (c *PercentageCounter) Start(target int, duration time.Duration, onFrame func(int), onComplete func()) {
	c.Cancel()
	c.gen++
	c.run = Run{
		From:      0,
		To:        float64(ClampPercent(target)),
		Duration:  duration,
		StartedAt: c.sched.Now(),
	}
	c.state = Running
	c.step(c.gen, c.run.StartedAt, onFrame, onComplete)
}

func (c *PercentageCounter) step(gen uint64, now time.Time, onFrame func(int), onComplete func()) {
	raw, done := c.run.Advance(now)
	c.value = int(math.Round(raw))
	if onFrame != nil {
		onFrame(c.value)
	}
	if gen != c.gen {
		// onFrame restarted or cancelled the counter.
		return
	}
	if done {
		c.token = 0
		c.state = Complete
		if onComplete != nil {
			onComplete()
		}
		return
	}
	c.token = c.sched.RequestFrame(func(now time.Time) {
		c.step(gen, now, onFrame, onComplete)
	})
}

// Cancel stops the active run without completing it.
func (c *PercentageCounter) Cancel() {
	if c.state != Running {
		return
	}
	if c.token != 0 {
		c.sched.Cancel(c.token)
		c.token = 0
	}
	c.gen++
	c.state = Idle
}

// State reports the lifecycle of the latest run.
func (c *PercentageCounter) State() State { return c.state }

// Value reports the last displayed value.
func (c *PercentageCounter) Value() int { return c.value }
