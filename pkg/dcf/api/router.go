// Package api serves valuations over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stex99/dcf-tool/pkg/dcf/config"
	"github.com/stex99/dcf-tool/pkg/dcf/pipeline"
)

// NewRouter creates and configures the HTTP router. runs may be nil, in which
// case the archive endpoints are not mounted.
func NewRouter(analyzer *pipeline.Analyzer, runs RunStore, cfg *config.Config, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(NewCORS(cfg.Server.AllowedOrigins).Handler)

	h := &handler{analyzer: analyzer, runs: runs, cfg: cfg, log: log}

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", h.health)
		})

		r.Post("/valuation", h.valuation)

		if runs != nil {
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", h.listRuns)
				r.Get("/{runID}", h.getRun)
			})
		}
	})

	return r
}
