package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/dashboard"
	"github.com/finboard/finboard/internal/finance"
	financehttp "github.com/finboard/finboard/internal/finance/http"
	"github.com/finboard/finboard/internal/finance/svg"
	"github.com/finboard/finboard/internal/finance/ui"
	"github.com/finboard/finboard/internal/observability"
	"github.com/finboard/finboard/internal/view"
)

type staticService struct{}

func (staticService) Summary(ctx context.Context, userID int64, period finance.Period) (finance.Summary, error) {
	return finance.Summary{
		UserID:  userID,
		Revenue: finance.Revenue{Total: 200, Product: 150, Service: 50, ProductShare: 75, ServiceShare: 25},
		Profit:  finance.Profit{Total: 100, Product: 50, Service: 50, ProductShare: 50, ServiceShare: 50, Margin: 50},
	}, nil
}

func (staticService) FilterOptions(ctx context.Context) (finance.FilterOptions, error) {
	return finance.FilterOptions{}, nil
}

func newTestRouter(t *testing.T, checks map[string]ReadinessCheck) (http.Handler, *observability.Metrics) {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	dashboardHandler := financehttp.NewHandler(nil, staticService{}, templates, ui.RadialFunc(svg.Radial), financehttp.Config{
		Timing: dashboard.Timing{
			CounterDuration: 20 * time.Millisecond,
			ArcDuration:     20 * time.Millisecond,
			Stagger:         2 * time.Millisecond,
		},
		FrameInterval: 2 * time.Millisecond,
		DefaultUserID: 1,
	})
	dashboardHandler.WithMetrics(metrics)
	router := NewRouter(RouterParams{
		Config:           &Config{AppEnv: "test", AppRequestTimeout: time.Second},
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
		Readiness:        checks,
	})
	return router, metrics
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	router, _ := newTestRouter(t, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"postgres":"ok","redis":"unavailable"}`, rr.Body.String())
}

func TestStaticAssetsAreCached(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/css/dashboard.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Body.String(), ".circular-chart")
}

func TestStaticScriptMimeType(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/js/dashboard.js", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "javascript")
}

func TestDashboardThroughMiddleware(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Body.String(), `data-widget-id="faturamento-produto"`)
}

func TestStreamThroughMiddleware(t *testing.T) {
	router, metrics := newTestRouter(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/stream", nil).WithContext(ctx)
	req.Header.Set("Accept-Encoding", "gzip")
	router.ServeHTTP(rr, req)

	require.NoError(t, ctx.Err())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	body := rr.Body.String()
	assert.Equal(t, 6, strings.Count(body, "event: complete\n"))
	assert.Contains(t, body, "event: done\n")

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `finboard_http_requests_total{code="200",route="/dashboard/stream"} 1`)
	assert.Contains(t, scrape.Body.String(), "finboard_dashboard_streams_total 1")
}
