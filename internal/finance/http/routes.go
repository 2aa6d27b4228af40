package financehttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard pages and exports onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(tooManyRequests),
	)

	r.Get("/", h.handleIndex)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/data", h.handleData)
	r.Get("/dashboard/refresh", h.handleRefresh)
	r.Get("/dashboard/tab/{tab}", h.handleTab)
	r.Get("/relatorio-tarefas", h.handleReport)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard/export.csv", h.handleCSV)
	})
}

// MountStream registers the long-lived frame stream. It must be mounted
// outside any request timeout middleware.
func (h *Handler) MountStream(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(tooManyRequests),
	)
	r.With(limiter).Get("/dashboard/stream", h.handleStream)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

func rateLimitKey(r *http.Request) (string, error) {
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return "user:" + user, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
