// Package api exposes the HTTP surface: rule management, note status,
// import jobs, and pipeline stats.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/taglimit/internal/config"
	"github.com/dgallion1/taglimit/internal/controller"
	"github.com/dgallion1/taglimit/internal/importer"
	"github.com/dgallion1/taglimit/internal/rules"
	"github.com/dgallion1/taglimit/internal/stats"
	"github.com/dgallion1/taglimit/internal/vault"
)

// Server is the HTTP API server for taglimit.
type Server struct {
	router       chi.Router
	rules        *rules.Store
	ctrl         *controller.Controller
	board        *controller.StatusBoard
	vault        *vault.Vault
	orchestrator *importer.Orchestrator
	recorder     *stats.Recorder
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(
	store *rules.Store,
	ctrl *controller.Controller,
	board *controller.StatusBoard,
	v *vault.Vault,
	orch *importer.Orchestrator,
	rec *stats.Recorder,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		rules:        store,
		ctrl:         ctrl,
		board:        board,
		vault:        v,
		orchestrator: orch,
		recorder:     rec,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/rules", s.handleListRules)
		r.Post("/api/rules", s.handleAddRule)
		r.Put("/api/rules/{index}", s.handleReplaceRule)
		r.Delete("/api/rules/{index}", s.handleDeleteRule)
		r.Post("/api/enabled", s.handleSetEnabled)

		r.Get("/api/notes", s.handleListNotes)
		r.Post("/api/notes/evaluate", s.handleEvaluateNotes)

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/batch", s.handleBatchImport)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
