package dashboard

import (
	"log/slog"

	"github.com/finboard/finboard/internal/animation"
)

// Phase is the lifecycle of an Initializer.
type Phase int

const (
	Uninitialized Phase = iota
	Initializing
	Ready
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Initializer discovers the widgets of one page and launches their counter and
// arc animations in sequence. It is not safe for concurrent use: every method
// must run on the goroutine driving its Scheduler.
type Initializer struct {
	sched    animation.Scheduler
	discover Discoverer
	timing   Timing
	logger   *slog.Logger
	observer Observer

	phase      Phase
	order      []string
	widgets    map[string]*widget
	onComplete []CompleteFunc
}

// NewInitializer builds an Initializer for the widgets returned by discover.
func NewInitializer(sched animation.Scheduler, discover Discoverer, timing Timing, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{
		sched:    sched,
		discover: discover,
		timing:   timing.normalise(),
		logger:   logger,
		observer: nopObserver{},
		widgets:  make(map[string]*widget),
	}
}

// WithObserver attaches lifecycle hooks.
func (i *Initializer) WithObserver(obs Observer) *Initializer {
	if obs != nil {
		i.observer = obs
	}
	return i
}

// OnComplete registers fn to run after each widget run finishes.
func (i *Initializer) OnComplete(fn CompleteFunc) {
	if fn != nil {
		i.onComplete = append(i.onComplete, fn)
	}
}

// Phase reports the initialisation lifecycle.
func (i *Initializer) Phase() Phase { return i.phase }

// Timing returns the pacing in effect.
func (i *Initializer) Timing() Timing { return i.timing }

// Initialize discovers the page widgets and schedules their animations. Only
// the first call has any effect; later calls return false.
func (i *Initializer) Initialize() bool {
	if i.phase != Uninitialized {
		return false
	}
	i.phase = Initializing

	var elements []Element
	if i.discover != nil {
		elements = i.discover.Discover()
	}
	for _, el := range elements {
		id := el.ID
		if id == "" {
			id = WidgetID(el.Label)
		}
		if id == "" || el.Handle == nil {
			i.logger.Debug("skip widget", slog.String("label", el.Label))
			continue
		}
		if _, dup := i.widgets[id]; dup {
			i.logger.Debug("skip duplicate widget", slog.String("id", id))
			continue
		}
		w := &widget{
			id:      id,
			label:   el.Label,
			target:  ParsePercentage(el.Text),
			handle:  el.Handle,
			counter: animation.NewPercentageCounter(i.sched),
			radial:  animation.NewRadialProgressAnimator(i.sched),
		}
		w.reset()
		i.widgets[id] = w
		i.order = append(i.order, id)
	}

	for idx, id := range i.order {
		w := i.widgets[id]
		delay := i.timing.LaunchDelay(idx)
		if delay <= 0 {
			i.launch(w, false)
			continue
		}
		w.launch = i.sched.AfterFunc(delay, func() {
			w.launch = 0
			i.launch(w, false)
		})
	}

	i.phase = Ready
	i.logger.Debug("dashboard initialised", slog.Int("widgets", len(i.order)))
	return true
}

// StartWidgetAnimation starts or restarts the animations of widget id towards
// target. Any pending launch or active run of that widget is cancelled first.
// It returns false for unknown widgets.
func (i *Initializer) StartWidgetAnimation(id string, target int) bool {
	w, ok := i.widgets[id]
	if !ok {
		return false
	}
	restart := w.state != animation.Idle || w.launch != 0
	if w.launch != 0 {
		i.sched.Cancel(w.launch)
		w.launch = 0
	}
	w.counter.Cancel()
	w.radial.Cancel()
	w.state = animation.Idle
	w.target = animation.ClampPercent(target)
	i.launch(w, restart)
	return true
}

// Widget returns a snapshot of widget id.
func (i *Initializer) Widget(id string) (ChartWidget, bool) {
	w, ok := i.widgets[id]
	if !ok {
		return ChartWidget{}, false
	}
	return w.snapshot(), true
}

// Widgets returns snapshots in discovery order.
func (i *Initializer) Widgets() []ChartWidget {
	out := make([]ChartWidget, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.widgets[id].snapshot())
	}
	return out
}

func (i *Initializer) launch(w *widget, restart bool) {
	w.run++
	run := w.run
	w.counterDone, w.arcDone = false, false
	w.state = animation.Running
	i.observer.WidgetStarted(w.id, restart)

	w.counter.Start(w.target, i.timing.CounterDuration,
		func(v int) {
			w.display = v
			w.handle.SetText(FormatPercent(v))
		},
		func() {
			w.counterDone = true
			i.settle(w, run)
		})
	w.radial.Start(w.target, i.timing.ArcDuration, i.timing.ArcLag,
		func(offset float64) {
			w.offset = offset
			w.handle.SetOffset(offset)
		},
		func() {
			w.arcDone = true
			i.settle(w, run)
		})
}

func (i *Initializer) settle(w *widget, run uint64) {
	if run != w.run || !w.counterDone || !w.arcDone {
		return
	}
	w.state = animation.Complete
	i.observer.WidgetCompleted(w.id, w.target)
	for _, fn := range i.onComplete {
		fn(w.id, w.target)
	}
}
