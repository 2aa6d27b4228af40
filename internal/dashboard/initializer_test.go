package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/animation"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type textFrame struct {
	at   time.Duration
	text string
}

type recordingHandle struct {
	sched   animation.Scheduler
	texts   []textFrame
	offsets []float64
}

func (h *recordingHandle) SetText(text string) {
	h.texts = append(h.texts, textFrame{at: h.sched.Now().Sub(epoch), text: text})
}

func (h *recordingHandle) SetOffset(offset float64) { h.offsets = append(h.offsets, offset) }

func (h *recordingHandle) last() textFrame { return h.texts[len(h.texts)-1] }

type startEvent struct {
	id      string
	at      time.Duration
	restart bool
}

type recordingObserver struct {
	sched     animation.Scheduler
	starts    []startEvent
	completed []string
}

func (o *recordingObserver) WidgetStarted(id string, restart bool) {
	o.starts = append(o.starts, startEvent{id: id, at: o.sched.Now().Sub(epoch), restart: restart})
}

func (o *recordingObserver) WidgetCompleted(id string, _ int) { o.completed = append(o.completed, id) }

type page struct {
	sched    *animation.ManualScheduler
	handles  map[string]*recordingHandle
	elements []Element
	calls    int
}

func newPage(sched *animation.ManualScheduler, texts map[string]string, order ...string) *page {
	p := &page{sched: sched, handles: make(map[string]*recordingHandle)}
	for _, label := range order {
		h := &recordingHandle{sched: sched}
		p.handles[WidgetID(label)] = h
		p.elements = append(p.elements, Element{Label: label, Text: texts[label], Handle: h})
	}
	return p
}

func (p *page) Discover() []Element {
	p.calls++
	return p.elements
}

func TestInitializeRunsOnce(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	p := newPage(sched, map[string]string{"Lucro Total": "30%", "Lucro Produto": "12%"}, "Lucro Total", "Lucro Produto")
	obs := &recordingObserver{sched: sched}
	board := NewInitializer(sched, p, DefaultTiming(), nil).WithObserver(obs)

	assert.Equal(t, Uninitialized, board.Phase())
	require.True(t, board.Initialize())
	assert.False(t, board.Initialize())
	assert.Equal(t, Ready, board.Phase())
	assert.Equal(t, 1, p.calls)

	sched.RunUntilIdle(10 * time.Second)
	assert.False(t, board.Initialize())
	assert.Equal(t, 1, p.calls)
	assert.Len(t, obs.starts, 2)
	assert.Len(t, obs.completed, 2)
}

func TestStaggeredLaunchFollowsWidgetOrder(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 10*time.Millisecond)
	labels := []string{"Faturamento Produto", "Faturamento Serviço", "Faturamento Total"}
	p := newPage(sched, map[string]string{
		labels[0]: "25%",
		labels[1]: "60%",
		labels[2]: "100%",
	}, labels...)
	obs := &recordingObserver{sched: sched}
	board := NewInitializer(sched, p, DefaultTiming(), nil).WithObserver(obs)

	var completions []string
	board.OnComplete(func(id string, _ int) { completions = append(completions, id) })
	require.True(t, board.Initialize())
	sched.RunUntilIdle(10 * time.Second)

	require.Len(t, obs.starts, 3)
	wantStart := []time.Duration{0, 300 * time.Millisecond, 600 * time.Millisecond}
	wantText := []string{"25%", "60%", "100%"}
	for idx, label := range labels {
		id := WidgetID(label)
		assert.Equal(t, id, obs.starts[idx].id)
		assert.Equal(t, wantStart[idx], obs.starts[idx].at, "widget %d start", idx)

		h := p.handles[id]
		last := h.last()
		assert.Equal(t, wantText[idx], last.text)
		assert.Equal(t, wantStart[idx]+1200*time.Millisecond, last.at, "counter finishes relative to its own start")
		for _, f := range h.texts[1:] {
			assert.GreaterOrEqual(t, f.at, wantStart[idx], "no counter frame before launch")
		}

		w, ok := board.Widget(id)
		require.True(t, ok)
		assert.Equal(t, animation.Complete, w.State)
		assert.Equal(t, animation.FinalOffset(w.Target), w.Offset)
	}
	ids := make([]string, len(labels))
	for idx, label := range labels {
		ids[idx] = WidgetID(label)
	}
	assert.Equal(t, ids, completions)
}

func TestWidgetsAreResetBeforeLaunch(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	timing := DefaultTiming()
	timing.StartupDelay = time.Second
	p := newPage(sched, map[string]string{"Lucro Serviço": "80%"}, "Lucro Serviço")
	board := NewInitializer(sched, p, timing, nil)
	require.True(t, board.Initialize())

	h := p.handles["lucro-servico"]
	require.Len(t, h.texts, 1)
	assert.Equal(t, "0%", h.texts[0].text)
	assert.Equal(t, []float64{animation.Circumference}, h.offsets)

	w, _ := board.Widget("lucro-servico")
	assert.Equal(t, animation.Idle, w.State)
	sched.Advance(time.Second)
	w, _ = board.Widget("lucro-servico")
	assert.Equal(t, animation.Running, w.State)
}

func TestStartWidgetAnimationRestartEndsAtLatestTarget(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	p := newPage(sched, map[string]string{"Lucro Total": "10%"}, "Lucro Total")
	board := NewInitializer(sched, p, DefaultTiming(), nil)
	var notified []int
	board.OnComplete(func(_ string, target int) { notified = append(notified, target) })
	require.True(t, board.Initialize())

	h := p.handles["lucro-total"]
	require.True(t, board.StartWidgetAnimation("lucro-total", 40))
	require.True(t, board.StartWidgetAnimation("lucro-total", 75))
	mark := len(h.texts)
	sched.RunUntilIdle(10 * time.Second)

	assert.Equal(t, []int{75}, notified)
	assert.Equal(t, "75%", h.last().text)
	prev := -1
	for _, f := range h.texts[mark:] {
		v := ParsePercentage(f.text)
		assert.GreaterOrEqual(t, v, prev, "display never regresses")
		prev = v
	}
	w, _ := board.Widget("lucro-total")
	assert.Equal(t, 75, w.Display)
	assert.Equal(t, animation.FinalOffset(75), w.Offset)
	assert.Equal(t, animation.Complete, w.State)
	assert.Zero(t, sched.Pending())
}

func TestRestartAfterCompletion(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	p := newPage(sched, map[string]string{"Lucro Produto": "20%"}, "Lucro Produto")
	obs := &recordingObserver{sched: sched}
	board := NewInitializer(sched, p, DefaultTiming(), nil).WithObserver(obs)
	require.True(t, board.Initialize())
	sched.RunUntilIdle(10 * time.Second)

	w, _ := board.Widget("lucro-produto")
	require.Equal(t, animation.Complete, w.State)

	require.True(t, board.StartWidgetAnimation("lucro-produto", 80))
	w, _ = board.Widget("lucro-produto")
	assert.Equal(t, animation.Running, w.State)
	assert.Equal(t, Ready, board.Phase())

	sched.RunUntilIdle(10 * time.Second)
	w, _ = board.Widget("lucro-produto")
	assert.Equal(t, 80, w.Display)
	assert.Equal(t, animation.Complete, w.State)
	require.Len(t, obs.starts, 2)
	assert.False(t, obs.starts[0].restart)
	assert.True(t, obs.starts[1].restart)
}

func TestRestartCancelsPendingLaunch(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	timing := DefaultTiming()
	timing.StartupDelay = time.Second
	p := newPage(sched, map[string]string{"Lucro Total": "10%"}, "Lucro Total")
	obs := &recordingObserver{sched: sched}
	board := NewInitializer(sched, p, timing, nil).WithObserver(obs)
	require.True(t, board.Initialize())

	require.True(t, board.StartWidgetAnimation("lucro-total", 55))
	sched.RunUntilIdle(10 * time.Second)

	require.Len(t, obs.starts, 1)
	assert.Equal(t, time.Duration(0), obs.starts[0].at)
	w, _ := board.Widget("lucro-total")
	assert.Equal(t, 55, w.Display)
}

func TestInitializeSkipsUnusableWidgets(t *testing.T) {
	sched := animation.NewManualScheduler(epoch, 16*time.Millisecond)
	h := &recordingHandle{sched: sched}
	discover := DiscoverFunc(func() []Element {
		return []Element{
			{Label: "", Text: "10%", Handle: h},
			{Label: "Sem handle", Text: "10%"},
			{ID: "custom", Label: "Lucro", Text: "abc", Handle: h},
			{ID: "custom", Label: "Outro", Text: "90%", Handle: h},
			{Label: "Faturamento Total", Text: "250%", Handle: &recordingHandle{sched: sched}},
		}
	})
	board := NewInitializer(sched, discover, DefaultTiming(), nil)
	require.True(t, board.Initialize())

	widgets := board.Widgets()
	require.Len(t, widgets, 2)
	assert.Equal(t, "custom", widgets[0].ID)
	assert.Equal(t, 0, widgets[0].Target)
	assert.Equal(t, "faturamento-total", widgets[1].ID)
	assert.Equal(t, 100, widgets[1].Target)

	assert.False(t, board.StartWidgetAnimation("missing", 10))
	sched.RunUntilIdle(10 * time.Second)
	w, _ := board.Widget("custom")
	assert.Equal(t, animation.Complete, w.State)
	assert.Equal(t, 0, w.Display)
}

func TestTimingLaunchDelay(t *testing.T) {
	timing := Timing{Stagger: 300 * time.Millisecond, StartupDelay: time.Second}
	assert.Equal(t, time.Second, timing.LaunchDelay(0))
	assert.Equal(t, 1600*time.Millisecond, timing.LaunchDelay(2))
	assert.Equal(t, time.Second, timing.LaunchDelay(-1))

	norm := Timing{ArcLag: -time.Second}.normalise()
	assert.Equal(t, DefaultTiming().CounterDuration, norm.CounterDuration)
	assert.Equal(t, DefaultTiming().ArcDuration, norm.ArcDuration)
	assert.Zero(t, norm.ArcLag)
}
