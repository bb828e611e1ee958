package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-health/heron/internal/advisory"
	"github.com/opensource-health/heron/internal/domain"
	"github.com/opensource-health/heron/internal/history"
	"github.com/opensource-health/heron/internal/scoring"
	"github.com/opensource-health/heron/internal/validation"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, validator *validation.Engine, scorer *scoring.Engine, advisor *advisory.Engine, bus domain.EventBus, log *history.Log, version string) *Server {
	handler := NewHandler(validator, scorer, advisor, bus, log, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser form clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Assessment pipeline
	router.Post("/predict", handler.Predict)

	// Field rule metadata for form clients
	router.Get("/fields", handler.ListFields)

	// Session history
	router.Get("/history", handler.ListHistory)
	router.Delete("/history", handler.ClearHistory)
	router.Get("/assessments/{id}", handler.GetAssessment)

	// Advisory rule management
	router.Get("/advisories", handler.ListAdvisories)
	router.Post("/advisories", handler.ReplaceAdvisories)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
