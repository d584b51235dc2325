package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/repcall/internal/exercise"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	exercises []*exercise.Exercise
	byName    map[string]*exercise.Exercise
	runs      *runManager
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured. The exercises come
// from the loaded workout program; store receives run summaries.
func New(exercises []*exercise.Exercise, store RunStore, apiKey string, log *slog.Logger) *Server {
	byName := make(map[string]*exercise.Exercise, len(exercises))
	for _, ex := range exercises {
		byName[ex.Name()] = ex
	}

	s := &Server{
		exercises: exercises,
		byName:    byName,
		runs:      newRunManager(store, log),
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Catalog endpoints (read-only, no auth)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/exercises/{name}", s.handleGetExercise)
	s.router.Get("/api/v1/runs", s.handleRecentRuns)
	s.router.Get("/api/v1/runs/{id}", s.handleRunStatus)

	// Execution endpoints (API key required)
	auth := APIKeyAuth(s.apiKey)
	s.router.With(auth).Post("/api/v1/runs", s.handleStartRun)
	s.router.With(auth).Post("/api/v1/runs/{id}/cancel", s.handleCancelRun)
}

// Mount attaches an extra handler subtree, e.g. the MCP transport.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}
