package financehttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/finboard/finboard/internal/dashboard"
	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/finance/export"
	"github.com/finboard/finboard/internal/finance/ui"
	"github.com/finboard/finboard/internal/platform/httpx"
	"github.com/finboard/finboard/internal/view"
)

const requestTimeout = 2 * time.Second

// UserHeader carries the dashboard owner when a proxy in front of the app
// has already resolved the user.
const UserHeader = "X-User-ID"

// FinanceService defines the dashboard data contract used by the handler.
type FinanceService interface {
	Summary(ctx context.Context, userID int64, period finance.Period) (finance.Summary, error)
	FilterOptions(ctx context.Context) (finance.FilterOptions, error)
}

// Invalidations notifies the stream when snapshots are rewritten.
type Invalidations interface {
	Listen(ctx context.Context, onBump func(version int64)) error
}

// StreamMetrics observes live dashboard streams.
type StreamMetrics interface {
	dashboard.Observer
	StreamOpened()
	StreamClosed()
}

// Config tunes dashboard behaviour.
type Config struct {
	Timing           dashboard.Timing
	FrameInterval    time.Duration
	RefreshInterval  time.Duration
	KeepAlive        time.Duration
	TotalRevenueMode finance.TotalRevenueMode
	DefaultUserID    int64
}

// Handler coordinates HTTP requests for the financial dashboard.
type Handler struct {
	logger        *slog.Logger
	service       FinanceService
	templates     *view.Engine
	radial        ui.RadialRenderer
	cfg           Config
	invalidations Invalidations
	metrics       StreamMetrics
	csvPool       sync.Pool
	now           func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service FinanceService, templates *view.Engine, radial ui.RadialRenderer, cfg Config) *Handler {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 15 * time.Second
	}
	if cfg.TotalRevenueMode == "" {
		cfg.TotalRevenueMode = finance.TotalRevenueFull
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		radial:    radial,
		cfg:       cfg,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithMetrics attaches stream metrics.
func (h *Handler) WithMetrics(m StreamMetrics) {
	h.metrics = m
}

// WithInvalidations lets open streams refresh as soon as snapshots change.
func (h *Handler) WithInvalidations(src Invalidations) {
	h.invalidations = src
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data := h.loadDashboardData(ctx, h.userID(r), filters)
	vm, err := h.buildViewModel(filters, data)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	viewData := view.TemplateData{
		Title:       "Dashboard Financeiro",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	viewData := view.TemplateData{
		Title:       "Relatório Detalhado",
		CurrentPath: r.URL.Path,
		Data:        ui.Tabs("detalhado"),
	}
	if err := h.templates.Render(w, "pages/report.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleTab(w http.ResponseWriter, r *http.Request) {
	target, ok := ui.TabURL(chi.URLParam(r, "tab"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleRefresh sends the browser back to the dashboard keeping only the
// filters the user actually filled in.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	in := r.URL.Query()
	out := url.Values{}
	for _, key := range []string{"data_inicial", "data_final", "produto", "servico", "tipo_tarefa", "colaborador"} {
		if v := strings.TrimSpace(in.Get(key)); v != "" {
			out.Set(key, v)
		}
	}
	target := "/dashboard"
	if len(out) > 0 {
		target += "?" + out.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		var vErr validationError
		if errors.As(err, &vErr) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx, h.userID(r), filters.Period)
	if err != nil {
		h.logError("load summary", err)
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dataResponse{
		Summary: summary,
		Cards:   finance.BuildCards(summary, h.cfg.TotalRevenueMode),
	})
}

type dataResponse struct {
	Summary finance.Summary `json:"summary"`
	Cards   []finance.Card  `json:"cards"`
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx, h.userID(r), filters.Period)
	if err != nil {
		h.handleServerError(w, "load summary", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, summary); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteCardsCSV(buf, finance.BuildCards(summary, h.cfg.TotalRevenueMode)); err != nil {
		h.handleServerError(w, "write cards csv", err)
		return
	}

	filename := fmt.Sprintf("dashboard-%s_%s.csv", filters.Period.From.Format(finance.DateLayout), filters.Period.To.Format(finance.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) parseFilters(r *http.Request) (finance.Filters, error) {
	q := r.URL.Query()
	period, err := finance.ParsePeriod(q.Get("data_inicial"), q.Get("data_final"), h.now())
	if err != nil {
		field := "periodo"
		if i := strings.Index(err.Error(), ":"); i > 0 {
			field = err.Error()[:i]
		}
		return finance.Filters{}, validationError{field: field}
	}
	return finance.Filters{
		Period:       period,
		Product:      strings.TrimSpace(q.Get("produto")),
		Service:      strings.TrimSpace(q.Get("servico")),
		TaskType:     strings.TrimSpace(q.Get("tipo_tarefa")),
		Collaborator: strings.TrimSpace(q.Get("colaborador")),
	}, nil
}

func (h *Handler) userID(r *http.Request) int64 {
	if raw := strings.TrimSpace(r.Header.Get(UserHeader)); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return h.cfg.DefaultUserID
}

type dashboardData struct {
	summary finance.Summary
	options finance.FilterOptions
}

// loadDashboardData never fails: the page renders zeros and empty filter
// lists when the snapshot store is unavailable.
func (h *Handler) loadDashboardData(ctx context.Context, userID int64, filters finance.Filters) dashboardData {
	var data dashboardData

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := h.service.Summary(ctx, userID, filters.Period)
		if err != nil {
			h.logError("load summary", err)
			summary = finance.ZeroSummary(userID, filters.Period)
		}
		data.summary = summary
		return nil
	})

	g.Go(func() error {
		options, err := h.service.FilterOptions(ctx)
		if err != nil {
			h.logError("load filter options", err)
			options = finance.FilterOptions{}
		}
		data.options = options
		return nil
	})

	_ = g.Wait()
	return data
}

func (h *Handler) buildViewModel(filters finance.Filters, data dashboardData) (ui.DashboardViewModel, error) {
	revenue, profit, err := ui.ToCardViews(finance.BuildCards(data.summary, h.cfg.TotalRevenueMode), h.radial)
	if err != nil {
		return ui.DashboardViewModel{}, err
	}
	query := filters.Query().Encode()
	suffix := ""
	if query != "" {
		suffix = "?" + query
	}
	return ui.DashboardViewModel{
		Filters:    filters,
		From:       filters.Period.From.Format(finance.DateLayout),
		To:         filters.Period.To.Format(finance.DateLayout),
		Query:      query,
		Options:    data.options,
		Revenue:    revenue,
		Profit:     profit,
		Updated:    data.summary.Updated,
		StreamURL:  "/dashboard/stream" + suffix,
		RefreshURL: "/dashboard/refresh",
		ExportURL:  "/dashboard/export.csv" + suffix,
		Timing:     ui.ToTimingView(h.cfg.Timing),
		Tabs:       ui.Tabs("geral"),
	}, nil
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Parâmetro inválido: "+vErr.field, http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
