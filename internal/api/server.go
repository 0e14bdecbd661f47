package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/pipeline"
	"github.com/ngocdv/vanban/internal/retrieve"
	"github.com/ngocdv/vanban/internal/store"
)

// Server is the HTTP API for the document parsing service. A nil
// searcher disables the search endpoint; everything else works without
// a vector backend.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         store.DocumentStore
	searcher     *retrieve.Searcher
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, docs store.DocumentStore, searcher *retrieve.Searcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		searcher:     searcher,
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
	r.Get("/healthz", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.cfg.APIToken, s.log))

		r.Post("/v1/documents", s.handleUpload)
		r.Get("/v1/jobs/{jobID}", s.handleJobStatus)

		r.Get("/v1/documents", s.handleListDocuments)
		r.Get("/v1/documents/{docID}", s.handleGetDocument)

		r.Post("/v1/search", s.handleSearch)
		r.Get("/v1/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
