package animation

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameLoop is a Scheduler backed by a ticker. All callbacks run on the
// goroutine executing Run; scheduling and cancellation are safe from any
// goroutine.
type FrameLoop struct {
	interval time.Duration
	clock    func() time.Time
	queue    *taskQueue
	onTick   func()
}

// NewFrameLoop constructs a loop ticking every interval.
func NewFrameLoop(interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameLoop{interval: interval, clock: time.Now, queue: newTaskQueue()}
}

// OnTick registers fn to run on the loop goroutine after every processed tick.
// It must be called before Run.
func (l *FrameLoop) OnTick(fn func()) {
	l.onTick = fn
}

// Now returns the loop clock.
func (l *FrameLoop) Now() time.Time {
	return l.clock()
}

// RequestFrame schedules fn for the next tick.
func (l *FrameLoop) RequestFrame(fn FrameFunc) Token {
	return l.queue.addFrame(fn)
}

// AfterFunc schedules fn to run on the first tick at or after d elapses.
func (l *FrameLoop) AfterFunc(d time.Duration, fn func()) Token {
	return l.queue.addTimer(l.clock().Add(d), fn)
}

// Post hands fn to the loop goroutine for the next tick.
func (l *FrameLoop) Post(fn func()) Token {
	return l.AfterFunc(0, fn)
}

// Cancel prevents a not-yet-fired callback from running.
func (l *FrameLoop) Cancel(tok Token) {
	l.queue.cancel(tok)
}

// Pending reports callbacks still waiting to fire.
func (l *FrameLoop) Pending() int {
	return l.queue.pending()
}

// Run processes ticks until ctx is cancelled.
func (l *FrameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.queue.tick(l.clock())
			if l.onTick != nil {
				l.onTick()
			}
		}
	}
}
