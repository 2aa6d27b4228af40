package animation

import "time"

// RadialProgressAnimator animates the visible arc of a circular chart from
// empty to a target percentage of the circumference.
type RadialProgressAnimator struct {
	sched     Scheduler
	animating bool
	token     Token
	gen       uint64
	run       Run
	state     State
	offset    float64
}

// NewRadialProgressAnimator binds an animator to a scheduler.
func NewRadialProgressAnimator(sched Scheduler) *RadialProgressAnimator {
	return &RadialProgressAnimator{sched: sched, offset: Circumference}
}

// Start animates the arc towards target after delay. It returns false and
// does nothing while a previous run is still animating. The arc is reset to
// the full circumference immediately; the start timestamp is captured once
// the delay has elapsed.
func (a *RadialProgressAnimator) Start(target int, duration, delay time.Duration, onFrame func(float64), onComplete func()) bool {
	if a.animating {
		return false
	}
	a.animating = true
	a.gen++
	gen := a.gen
	a.state = Running
	a.offset = Circumference
	if onFrame != nil {
		onFrame(a.offset)
	}
	if gen != a.gen {
		return true
	}
	final := FinalOffset(target)
	begin := func() {
		if gen != a.gen {
			return
		}
		a.run = Run{
			From:      Circumference,
			To:        final,
			Duration:  duration,
			StartedAt: a.sched.Now(),
		}
		a.step(gen, a.run.StartedAt, onFrame, onComplete)
	}
	if delay <= 0 {
		begin()
		return true
	}
	a.token = a.sched.AfterFunc(delay, begin)
	return true
}

func (a *RadialProgressAnimator) step(gen uint64, now time.Time, onFrame func(float64), onComplete func()) {
	raw, done := a.run.Advance(now)
	a.offset = clampOffset(raw)
	if onFrame != nil {
		onFrame(a.offset)
	}
	if gen != a.gen {
		return
	}
	if done {
		a.token = 0
		a.animating = false
		a.state = Complete
		if onComplete != nil {
			onComplete()
		}
		return
	}
	a.token = a.sched.RequestFrame(func(now time.Time) {
		a.step(gen, now, onFrame, onComplete)
	})
}

// Cancel drops a pending delay or frame and clears the animating flag so a
// new run can start.
func (a *RadialProgressAnimator) Cancel() {
	if !a.animating {
		return
	}
	if a.token != 0 {
		a.sched.Cancel(a.token)
		a.token = 0
	}
	a.gen++
	a.animating = false
	a.state = Idle
}

// Animating reports whether the guard flag is set.
func (a *RadialProgressAnimator) Animating() bool { return a.animating }

// Offset reports the last delivered arc offset.
func (a *RadialProgressAnimator) Offset() float64 { return a.offset }

// State reports the lifecycle of the latest run.
func (a *RadialProgressAnimator) State() State { return a.state }
