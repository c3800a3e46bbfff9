package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/cache"
	"github.com/MikeSquared-Agency/Canopy/internal/hermes"
	"github.com/MikeSquared-Agency/Canopy/internal/metrics"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

type RouterOptions struct {
	AdminToken         string
	RateLimitPerMinute int
	MaxBodyBytes       int64
}

// NewRouter wires the public API. h may be nil when no event bus is
// configured.
func NewRouter(s store.Store, a *analysis.Analyzer, h hermes.Client, c cache.Cache, m *metrics.Metrics, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(opts.RateLimitPerMinute))
	r.Use(MaxBodyMiddleware(opts.MaxBodyBytes))

	analyze := NewAnalyzeHandler(s, a, h, c, m, logger)
	datasets := NewDatasetsHandler(s, h, c, logger)
	runs := NewRunsHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", analyze.Analyze)

		r.Post("/datasets", datasets.Create)
		r.Get("/datasets", datasets.List)
		r.Get("/datasets/{id}", datasets.Get)
		r.Get("/datasets/{id}/facets", datasets.Facets)
		r.Post("/datasets/{id}/analyze", analyze.AnalyzeDataset)

		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminToken))
			r.Delete("/datasets/{id}", datasets.Delete)
		})
	})

	return r
}

func NewMetricsRouter(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())
	return r
}
