package financehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/finboard/internal/animation"
	"github.com/finboard/finboard/internal/dashboard"
	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/finance/ui"
)

type framePayload struct {
	ID     string   `json:"id"`
	Text   *string  `json:"text,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
}

type completePayload struct {
	ID     string `json:"id"`
	Target int    `json:"target"`
}

type readyPayload struct {
	Stream string         `json:"stream"`
	Cards  []finance.Card `json:"cards"`
	Timing ui.TimingView  `json:"timing"`
}

type cardsPayload struct {
	Cards   []finance.Card `json:"cards"`
	Updated time.Time      `json:"updated"`
}

type donePayload struct {
	Stream string `json:"stream"`
}

// eventWriter buffers server-sent events between frames and writes them out
// in one chunk per tick.
type eventWriter struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	buf bytes.Buffer
	seq uint64
	err error
}

func (e *eventWriter) event(name string, payload any) {
	if e.err != nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.err = fmt.Errorf("encode %s event: %w", name, err)
		return
	}
	e.seq++
	fmt.Fprintf(&e.buf, "id: %d\nevent: %s\ndata: %s\n\n", e.seq, name, data)
}

func (e *eventWriter) comment(text string) {
	fmt.Fprintf(&e.buf, ": %s\n\n", text)
}

func (e *eventWriter) flush() error {
	if e.err != nil {
		return e.err
	}
	if e.buf.Len() == 0 {
		return nil
	}
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		e.err = err
		return err
	}
	e.buf.Reset()
	if err := e.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		e.err = err
		return err
	}
	return nil
}

// streamHandle forwards widget updates to the browser as frame events.
type streamHandle struct {
	id  string
	out *eventWriter
}

func (s streamHandle) SetText(text string) {
	s.out.event("frame", framePayload{ID: s.id, Text: &text})
}

func (s streamHandle) SetOffset(offset float64) {
	rounded := math.Round(offset*1e4) / 1e4
	s.out.event("frame", framePayload{ID: s.id, Offset: &rounded})
}

// dashboardStream drives one connection. Everything except refresh loading
// runs on the frame loop goroutine.
type dashboardStream struct {
	id      string
	logger  *slog.Logger
	loop    *animation.FrameLoop
	board   *dashboard.Initializer
	out     *eventWriter
	cards   []finance.Card
	running map[string]struct{}
	follow  bool
	done    bool
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	userID := h.userID(r)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	loadCtx, loadCancel := context.WithTimeout(ctx, requestTimeout)
	summary := h.summaryOrZero(loadCtx, userID, filters.Period)
	loadCancel()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logError("clear write deadline", err)
	}
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := h.newStream(w, rc, finance.BuildCards(summary, h.cfg.TotalRevenueMode))
	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	s.out.event("ready", readyPayload{Stream: s.id, Cards: s.cards, Timing: ui.ToTimingView(s.board.Timing())})
	if err := s.out.flush(); err != nil {
		h.logError("open stream", err)
		return
	}

	s.loop.OnTick(func() {
		if err := s.out.flush(); err != nil {
			s.logger.Debug("stream write failed", slog.Any("error", err))
			cancel()
			return
		}
		if s.done {
			cancel()
		}
	})
	s.loop.Post(func() {
		s.board.Initialize()
		for _, widget := range s.board.Widgets() {
			s.running[widget.ID] = struct{}{}
		}
		s.checkDone()
	})

	if s.follow {
		refresh := make(chan struct{}, 1)
		go h.pollSummary(ctx, s, refresh, userID, filters.Period)
		if h.invalidations != nil {
			go func() {
				err := h.invalidations.Listen(ctx, func(int64) {
					select {
					case refresh <- struct{}{}:
					default:
					}
				})
				if err != nil && ctx.Err() == nil {
					s.logger.Warn("listen for invalidations", slog.Any("error", err))
				}
			}()
		}
		s.keepAlive(h.cfg.KeepAlive)
	}

	if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("stream closed", slog.Any("error", err))
	}
}

func (h *Handler) newStream(w http.ResponseWriter, rc *http.ResponseController, cards []finance.Card) *dashboardStream {
	logger := h.logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	s := &dashboardStream{
		id:      id,
		logger:  logger.With(slog.String("stream", id)),
		loop:    animation.NewFrameLoop(h.cfg.FrameInterval),
		out:     &eventWriter{w: w, rc: rc},
		cards:   cards,
		running: make(map[string]struct{}),
		follow:  h.cfg.RefreshInterval > 0,
	}
	discover := dashboard.DiscoverFunc(func() []dashboard.Element {
		elements := make([]dashboard.Element, 0, len(s.cards))
		for _, card := range s.cards {
			elements = append(elements, dashboard.Element{
				ID:     card.ID,
				Label:  card.Label,
				Text:   dashboard.FormatPercent(card.Percent),
				Handle: streamHandle{id: card.ID, out: s.out},
			})
		}
		return elements
	})
	s.board = dashboard.NewInitializer(s.loop, discover, h.cfg.Timing, s.logger)
	if h.metrics != nil {
		s.board.WithObserver(h.metrics)
	}
	s.board.OnComplete(func(id string, target int) {
		s.out.event("complete", completePayload{ID: id, Target: target})
		delete(s.running, id)
		s.checkDone()
	})
	return s
}

func (s *dashboardStream) checkDone() {
	if s.follow || s.done || len(s.running) > 0 {
		return
	}
	s.done = true
	s.out.event("done", donePayload{Stream: s.id})
}

// apply restarts every widget whose percentage moved.
func (s *dashboardStream) apply(summary finance.Summary, cards []finance.Card) {
	previous := make(map[string]int, len(s.cards))
	for _, card := range s.cards {
		previous[card.ID] = card.Percent
	}
	s.cards = cards
	s.out.event("cards", cardsPayload{Cards: cards, Updated: summary.Updated})
	for _, card := range cards {
		if old, ok := previous[card.ID]; ok && old == card.Percent {
			continue
		}
		if s.board.StartWidgetAnimation(card.ID, card.Percent) {
			s.running[card.ID] = struct{}{}
		}
	}
}

func (s *dashboardStream) keepAlive(every time.Duration) {
	var ping func()
	ping = func() {
		s.out.comment("ping")
		s.loop.AfterFunc(every, ping)
	}
	s.loop.AfterFunc(every, ping)
}

// pollSummary reloads the summary off the loop goroutine and hands the result
// back through Post.
func (h *Handler) pollSummary(ctx context.Context, s *dashboardStream, trigger <-chan struct{}, userID int64, period finance.Period) {
	ticker := time.NewTicker(h.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-trigger:
		}
		loadCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		summary, err := h.service.Summary(loadCtx, userID, period)
		cancel()
		if err != nil {
			s.logger.Warn("refresh summary", slog.Any("error", err))
			continue
		}
		cards := finance.BuildCards(summary, h.cfg.TotalRevenueMode)
		s.loop.Post(func() { s.apply(summary, cards) })
	}
}

func (h *Handler) summaryOrZero(ctx context.Context, userID int64, period finance.Period) finance.Summary {
	summary, err := h.service.Summary(ctx, userID, period)
	if err != nil {
		h.logError("load summary", err)
		return finance.ZeroSummary(userID, period)
	}
	return summary
}
