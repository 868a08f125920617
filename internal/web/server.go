// Package web is the HTTP surface: the public booking widget, the admin
// dashboard behind a token guard, and the glue between handlers and the
// booking wizard.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
	"github.com/compabray/agenda-frontend/internal/booking"
	"github.com/compabray/agenda-frontend/internal/events"
	"github.com/compabray/agenda-frontend/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config carries the handler-level settings for the web server.
type Config struct {
	BusinessID string
	JWTSecret  string
	// RequiredRole restricts dashboard access to one role; empty accepts
	// any valid role.
	RequiredRole string
	RateRPS      float64
	RateBurst    int
}

// Server holds the wiring for all HTTP handlers.
type Server struct {
	api            *agendaapi.Client
	wizard         *booking.Wizard
	wizardSessions *booking.SessionStore
	adminSessions  session.Store
	bus            *events.Bus
	logger         zerolog.Logger
	limiter        *ipLimiter
	businessID     string
	jwtSecret      string
	requiredRole   string
	templates      *template.Template
}

// NewServer builds the HTTP server wiring. It does not start listening;
// call Router and serve it from the caller.
func NewServer(
	cfg Config,
	api *agendaapi.Client,
	wizard *booking.Wizard,
	wizardSessions *booking.SessionStore,
	adminSessions session.Store,
	bus *events.Bus,
	logger zerolog.Logger,
) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		api:            api,
		wizard:         wizard,
		wizardSessions: wizardSessions,
		adminSessions:  adminSessions,
		bus:            bus,
		logger:         logger,
		limiter:        newIPLimiter(cfg.RateRPS, cfg.RateBurst),
		businessID:     cfg.BusinessID,
		jwtSecret:      cfg.JWTSecret,
		requiredRole:   cfg.RequiredRole,
		templates:      tmpl,
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.limiter.middleware)

	// Public booking widget.
	r.Get("/", s.handleWidget)
	r.Post("/widget/date", s.handleSelectDate)
	r.Post("/widget/time", s.handleSelectTime)
	r.Post("/widget/submit", s.handleSubmit)
	r.Post("/widget/dismiss", s.handleDismiss)

	// Admin login and logout.
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	// Guarded dashboard.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/admin", s.handleDashboard)
		r.Post("/admin/reservations/{id}/cancel", s.handleCancelReservation)
		r.Get("/admin/export", s.handleExport)
	})

	return r
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}
