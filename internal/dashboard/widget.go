// Package dashboard coordinates the staggered launch of the circular chart
// widgets shown on the financial dashboard.
package dashboard

import "github.com/finboard/finboard/internal/animation"

// Handle is the display surface of one widget: the percentage text and the
// stroke offset of its progress arc.
type Handle interface {
	SetText(text string)
	SetOffset(offset float64)
}

// Element is a widget found on the page before it is initialised. Text holds
// the raw percentage content the target is parsed from.
type Element struct {
	ID     string
	Label  string
	Text   string
	Handle Handle
}

// Discoverer locates the widgets present on a page.
type Discoverer interface {
	Discover() []Element
}

// DiscoverFunc adapts a function to Discoverer.
type DiscoverFunc func() []Element

// Discover implements Discoverer.
func (f DiscoverFunc) Discover() []Element { return f() }

// ChartWidget is a snapshot of one widget's animation state.
type ChartWidget struct {
	ID      string
	Label   string
	Target  int
	Display int
	Offset  float64
	State   animation.State
}

// CompleteFunc is notified once both animations of a widget run finished.
type CompleteFunc func(id string, target int)

// Observer receives widget lifecycle events, typically for metrics.
type Observer interface {
	WidgetStarted(id string, restart bool)
	WidgetCompleted(id string, target int)
}

type nopObserver struct{}

func (nopObserver) WidgetStarted(string, bool)  {}
func (nopObserver) WidgetCompleted(string, int) {}

type widget struct {
	id      string
	label   string
	target  int
	display int
	offset  float64
	state   animation.State
	handle  Handle

	counter *animation.PercentageCounter
	radial  *animation.RadialProgressAnimator
	launch  animation.Token
	run     uint64

	counterDone bool
	arcDone     bool
}

func (w *widget) snapshot() ChartWidget {
	return ChartWidget{
		ID:      w.id,
		Label:   w.label,
		Target:  w.target,
		Display: w.display,
		Offset:  w.offset,
		State:   w.state,
	}
}

func (w *widget) reset() {
	w.display = 0
	w.offset = animation.Circumference
	w.handle.SetText(FormatPercent(0))
	w.handle.SetOffset(animation.Circumference)
}
