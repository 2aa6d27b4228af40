package dashboard

import "time"

// Timing controls the pacing of widget animations.
type Timing struct {
	CounterDuration time.Duration
	ArcDuration     time.Duration
	// Stagger separates the launch of consecutive widgets.
	Stagger time.Duration
	// ArcLag delays each arc relative to its counter.
	ArcLag time.Duration
	// StartupDelay postpones the first widget.
	StartupDelay time.Duration
}

// DefaultTiming returns the standard dashboard pacing with no startup delay.
func DefaultTiming() Timing {
	return Timing{
		CounterDuration: 1200 * time.Millisecond,
		ArcDuration:     1500 * time.Millisecond,
		Stagger:         300 * time.Millisecond,
		ArcLag:          100 * time.Millisecond,
	}
}

// LaunchDelay returns when widget index starts, relative to initialisation.
func (t Timing) LaunchDelay(index int) time.Duration {
	if index < 0 {
		index = 0
	}
	return t.StartupDelay + time.Duration(index)*t.Stagger
}

func (t Timing) normalise() Timing {
	def := DefaultTiming()
	if t.CounterDuration <= 0 {
		t.CounterDuration = def.CounterDuration
	}
	if t.ArcDuration <= 0 {
		t.ArcDuration = def.ArcDuration
	}
	if t.Stagger < 0 {
		t.Stagger = 0
	}
	if t.ArcLag < 0 {
		t.ArcLag = 0
	}
	if t.StartupDelay < 0 {
		t.StartupDelay = 0
	}
	return t
}
