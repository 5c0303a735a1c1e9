package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/diarist/internal/config"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
	"github.com/dgallion1/diarist/internal/feedback"
	"github.com/dgallion1/diarist/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LLMSource reports the collaborator model and its latency stats. Stats may
// return nil when the collaborator keeps none.
type LLMSource interface {
	Model() string
	LatencyStats() *feedback.LLMStats
}

// Server is the HTTP API server for diarist.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	registry     *editor.Registry
	repo         entry.Repository
	emotions     *emotion.Taxonomy
	llm          LLMSource
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. llm may be nil.
func NewServer(orch *pipeline.Orchestrator, registry *editor.Registry, repo entry.Repository, emotions *emotion.Taxonomy, llm LLMSource, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		registry:     registry,
		repo:         repo,
		emotions:     emotions,
		llm:          llm,
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

		r.Get("/api/emotions", s.handleListEmotions)

		r.Post("/api/entries", s.handleCreateEntry)
		r.Get("/api/entries", s.handleListEntries)
		r.Post("/api/entries/import", s.handleImport)

		r.Route("/api/entries/{entryID}", func(r chi.Router) {
			r.Get("/", s.handleGetEntry)
			r.Patch("/", s.handleUpdateTitle)
			r.Delete("/", s.handleDeleteEntry)

			r.Post("/edits", s.handleEdit)
			r.Post("/edits/confirm", s.handleConfirmEdit)
			r.Post("/edits/discard", s.handleDiscardEdit)

			r.Post("/highlights/propose", s.handleProposeHighlight)
			r.Post("/highlights", s.handleCommitHighlight)
			r.Delete("/annotations/{annID}", s.handleDeleteAnnotation)

			r.Post("/feedback", s.handleRequestFeedback)
		})

		r.Get("/api/feedback/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
