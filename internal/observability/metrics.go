package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/finboard/finboard/internal/jobs"
)

// Metrics owns the Prometheus registry served on /metrics by both binaries.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamsActive   prometheus.Gauge
	streamsTotal    prometheus.Counter
	widgetRuns      *prometheus.CounterVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics builds a private registry with the HTTP, stream and job collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finboard_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finboard_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finboard_dashboard_streams_active",
		Help: "Dashboard frame streams currently open.",
	})
	streams := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "finboard_dashboard_streams_total",
		Help: "Dashboard frame streams opened.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finboard_dashboard_widget_runs_total",
		Help: "Widget animation lifecycle events by widget and stage.",
	}, []string{"widget", "stage"})
	registry.MustRegister(requests, duration, active, streams, runs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		streamsActive:   active,
		streamsTotal:    streams,
		widgetRuns:      runs,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware counts requests and observes latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Jobs returns the job collectors registered on the same registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// StreamOpened records a new dashboard stream.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.streamsTotal.Inc()
	m.streamsActive.Inc()
}

// StreamClosed records a stream ending.
func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.streamsActive.Dec()
}

// WidgetStarted counts an animation start and, separately, restarts.
func (m *Metrics) WidgetStarted(id string, restart bool) {
	if m == nil {
		return
	}
	m.widgetRuns.WithLabelValues(id, "started").Inc()
	if restart {
		m.widgetRuns.WithLabelValues(id, "restarted").Inc()
	}
}

// WidgetCompleted counts a widget reaching its target.
func (m *Metrics) WidgetCompleted(id string, _ int) {
	if m == nil {
		return
	}
	m.widgetRuns.WithLabelValues(id, "completed").Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach Flush and SetWriteDeadline.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
