package animation

import "time"

// State tracks the lifecycle of an animation.
type State int

const (
	// Idle means no run has started, or a finished run was reset.
	Idle State = iota
	// Running means frames are being delivered.
	Running
	// Complete means the last frame was delivered.
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Run describes one eased interpolation. StartedAt is fixed when the run
// begins; elapsed time is always derived from it.
type Run struct {
	From      float64
	To        float64
	Duration  time.Duration
	StartedAt time.Time
}

// Progress returns the linear completion ratio in [0,1] at now.
func (r Run) Progress(now time.Time) float64 {
	if r.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(r.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(r.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// Advance returns the eased value at now and whether the run has finished.
// The finishing call always yields To exactly.
func (r Run) Advance(now time.Time) (float64, bool) {
	p := r.Progress(now)
	if p >= 1 {
		return r.To, true
	}
	return r.From + (r.To-r.From)*EaseOutCubic(p), false
}
