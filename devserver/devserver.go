// Package devserver is a reference implementation of the deskhand
// resource API: credential exchange, registration, and the user-scoped
// task collection. It backs the CLI's serve command and the SDK's
// integration tests; production deployments bring their own backend
// honoring the same contract.
package devserver

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
)

//go:embed openapi.yaml
var openapiSpec []byte

const defaultSessionDuration = 24 * time.Hour

// Server holds the in-memory state behind the REST handlers.
type Server struct {
	mu       sync.RWMutex
	accounts map[string]account        // keyed by email
	sessions map[string]sessionRecord  // keyed by bearer token
	tasks    map[string][]taskRecord   // keyed by user id, newest first

	sessionDuration time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger for request-level events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionDuration overrides how long issued tokens stay valid.
func WithSessionDuration(d time.Duration) Option {
	return func(s *Server) {
		s.sessionDuration = d
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New creates a new Server instance.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:        make(map[string]account),
		sessions:        make(map[string]sessionRecord),
		tasks:           make(map[string][]taskRecord),
		sessionDuration: defaultSessionDuration,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return s
}

// Router returns a chi.Router with all API routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)
	r.With(s.AuthMiddleware).Post("/auth/logout", s.Logout)

	r.Route("/tasks", func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		r.Get("/", s.ListTasks)
		r.Post("/", s.CreateTask)
		r.Patch("/{taskID}", s.UpdateTask)
		r.Delete("/{taskID}", s.DeleteTask)
	})

	return r
}
