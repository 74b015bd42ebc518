// Package server provides the HTTP API for Nyaya.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nyayalabs/nyaya/internal/answer"
	"github.com/nyayalabs/nyaya/internal/config"
	"github.com/nyayalabs/nyaya/internal/lookup"
	"github.com/nyayalabs/nyaya/internal/session"
	"github.com/nyayalabs/nyaya/internal/storage"
)

// Server is the HTTP server for the Nyaya API.
type Server struct {
	engine   *answer.Engine
	sessions *session.Store
	lookup   *lookup.Engine
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *answer.Engine,
	sessions *session.Store,
	lookupEngine *lookup.Engine,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:   engine,
		sessions: sessions,
		lookup:   lookupEngine,
		storage:  store,
		config:   cfg,
		logger:   logger,
	}
}

// Handler builds the full API router. Exposed so tests and embedders can
// serve the API without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api", func(api chi.Router) {
		api.Use(s.sweepExpiredSessions)
		api.Post("/ask", s.handleAsk)
		api.Get("/status", s.handleStatus)
		api.Get("/examples", s.handleExamples)
		api.Get("/session/{id}", s.handleSession)
		api.Post("/reset-session", s.handleResetSession)
		api.Get("/document-stats", s.handleDocumentStats)
		api.Get("/search", s.handleSearch)
		api.Get("/health", s.handleHealth)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// sweepExpiredSessions removes idle sessions before each API request. The
// store logs removals, so the sweep stays silent on the request path.
func (s *Server) sweepExpiredSessions(next http.Handler) http.Handler {
	maxAge := time.Duration(s.config.Session.TimeoutHours) * time.Hour
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Sweep(maxAge)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
