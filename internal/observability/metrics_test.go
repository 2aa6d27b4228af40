package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("snapshot_warmup").End(errors.New("db down"))

	body := scrape(t, metrics)
	if !strings.Contains(body, `finboard_jobs_total{job="snapshot_warmup",status="failure"} 1`) {
		t.Fatalf("expected body to contain finboard_jobs_total, got: %s", body)
	}
	if !strings.Contains(body, "finboard_dashboard_streams_active 0") {
		t.Fatalf("expected stream gauge, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestMetricsMiddlewareKeepsFlusher(t *testing.T) {
	metrics := NewMetrics()
	var flushErr error
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: 1\n\n"))
		flushErr = http.NewResponseController(w).Flush()
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stream", nil))
	if flushErr != nil {
		t.Fatalf("expected flush through recorder, got %v", flushErr)
	}
	if !rr.Flushed {
		t.Fatalf("expected underlying writer to be flushed")
	}
}

func TestDashboardStreamMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.StreamOpened()
	metrics.StreamOpened()
	metrics.StreamClosed()
	metrics.WidgetStarted("lucro-total", false)
	metrics.WidgetStarted("lucro-total", true)
	metrics.WidgetCompleted("lucro-total", 76)

	body := scrape(t, metrics)
	for _, want := range []string{
		"finboard_dashboard_streams_active 1",
		"finboard_dashboard_streams_total 2",
		`finboard_dashboard_widget_runs_total{stage="started",widget="lucro-total"} 2`,
		`finboard_dashboard_widget_runs_total{stage="restarted",widget="lucro-total"} 1`,
		`finboard_dashboard_widget_runs_total{stage="completed",widget="lucro-total"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.StreamOpened()
	metrics.StreamClosed()
	metrics.WidgetStarted("x", true)
	metrics.WidgetCompleted("x", 1)
	if metrics.Jobs() != nil {
		t.Fatalf("expected nil job metrics")
	}
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
