// Package bridge exposes the session controller to a local browser UI over
// HTTP: JSON commands in, render instructions and server-sent events out.
package bridge

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/view"
)

// Controller is the part of session.Machine the bridge drives.
type Controller interface {
	RequestLogin(ctx context.Context, username, password string) error
	RequestRegister(ctx context.Context, creds models.Credentials) error
	RequestLogout(ctx context.Context) error
	RefreshWorkouts(ctx context.Context)
	CheckHealth(ctx context.Context) bool
	State() models.SessionState
	View() view.RenderInstructions
	Subscribe(fn func(session.Update)) (unsubscribe func())
}

var _ Controller = (*session.Machine)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctl    Controller
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(ctl Controller, log *slog.Logger) *Server {
	s := &Server{
		ctl:    ctl,
		log:    log,
		router: chi.NewRouter(),
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

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/view", s.handleView)
		r.Get("/health", s.handleAPIHealth)
		r.Get("/events", s.handleEvents)
	})
}
