// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"TickerBoard/internal/provider"
	"TickerBoard/internal/store"
)

// Refresher triggers fetch cycles on demand.
type Refresher interface {
	RefreshOne(ctx context.Context, id string) error
	RefreshAll(ctx context.Context) error
}

// Deps are the components the handlers operate on.
type Deps struct {
	Store     *store.Store
	Registry  *provider.Registry
	Refresher Refresher
	Log       *zap.SugaredLogger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(d.Log))

	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.ServeHTTP)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, d.Log, http.StatusOK, map[string]string{"status": "ok"})
	})

	wh := &widgetHandlers{store: d.Store, refresher: d.Refresher, log: d.Log}
	ph := &providerHandlers{registry: d.Registry, log: d.Log}
	th := &templateHandlers{store: d.Store, log: d.Log}

	r.Mount("/widgets", wh.routes())
	r.Post("/refresh", wh.refreshAll)
	r.Get("/dashboard", wh.export)
	r.Put("/dashboard", wh.importDashboard)
	r.Delete("/dashboard", wh.clear)
	r.Mount("/providers", ph.routes())
	r.Mount("/templates", th.routes())
	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugw("request",
				"request_id", chimiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
