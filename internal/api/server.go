// Package api exposes reconciliation over HTTP: dataset validation, stored
// run retrieval, and the manual-approval override.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sahelgroup/recon-cli/internal/cache"
	"github.com/sahelgroup/recon-cli/internal/config"
	"github.com/sahelgroup/recon-cli/internal/reconcile"
	"github.com/sahelgroup/recon-cli/internal/store"
)

// Server wires the engine, the source-index cache, and the run store into
// an HTTP handler. The store may be nil, which disables persistence
// endpoints.
type Server struct {
	cfg      *config.Config
	engine   *reconcile.Engine
	store    store.Store
	cache    *cache.SourceCache
	limiters *ipLimiters
}

// NewServer builds a Server.
func NewServer(cfg *config.Config, engine *reconcile.Engine, st store.Store, c *cache.SourceCache) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		store:    st,
		cache:    c,
		limiters: newIPLimiters(cfg.Server.RateLimitPerMinute),
	}
}

// Router returns the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimit).Post("/validate", s.handleValidate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Post("/runs/{id}/results/{index}/approve", s.handleApprove)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
