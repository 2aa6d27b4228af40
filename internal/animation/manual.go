package animation

import "time"

// ManualScheduler is a deterministic Scheduler whose clock only moves when
// Advance is called. Timers fire at their exact due instant; frames fire on a
// fixed cadence starting one interval after the start time.
type ManualScheduler struct {
	now       time.Time
	interval  time.Duration
	nextFrame time.Time
	queue     *taskQueue
	frames    int
}

// NewManualScheduler starts a fake clock at start with the given frame interval.
func NewManualScheduler(start time.Time, interval time.Duration) *ManualScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &ManualScheduler{
		now:       start,
		interval:  interval,
		nextFrame: start.Add(interval),
		queue:     newTaskQueue(),
	}
}

// Now returns the fake clock.
func (m *ManualScheduler) Now() time.Time { return m.now }

// RequestFrame schedules fn for the next frame.
func (m *ManualScheduler) RequestFrame(fn FrameFunc) Token { return m.queue.addFrame(fn) }

// AfterFunc schedules fn at Now()+d.
func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) Token {
	return m.queue.addTimer(m.now.Add(d), fn)
}

// Cancel prevents a pending callback from running.
func (m *ManualScheduler) Cancel(tok Token) { m.queue.cancel(tok) }

// Pending reports callbacks still waiting to fire.
func (m *ManualScheduler) Pending() int { return m.queue.pending() }

// Frames reports how many frame ticks have been processed.
func (m *ManualScheduler) Frames() int { return m.frames }

// Advance moves the clock forward by d, firing every timer and frame that
// falls due on the way.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		if due, ok := m.queue.nextDue(); ok && due.Before(m.nextFrame) && !due.After(target) {
			if due.After(m.now) {
				m.now = due
			}
			m.queue.fireTimers(m.now)
			continue
		}
		if m.nextFrame.After(target) {
			break
		}
		m.now = m.nextFrame
		m.nextFrame = m.nextFrame.Add(m.interval)
		m.frames++
		m.queue.tick(m.now)
	}
	m.now = target
}

// RunUntilIdle advances frame by frame until nothing is pending or limit
// elapses. It returns the simulated time spent.
func (m *ManualScheduler) RunUntilIdle(limit time.Duration) time.Duration {
	start := m.now
	for m.queue.pending() > 0 && m.now.Sub(start) < limit {
		m.Advance(m.interval)
	}
	return m.now.Sub(start)
}
