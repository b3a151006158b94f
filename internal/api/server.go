// Package api is the operator HTTP surface: health, plugin management,
// ledger inspection, the event feed and Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/ledger"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/plugin"
)

// Dispatcher is the slice of the dispatch engine the API reads.
type Dispatcher interface {
	InFlight() int64
}

// Config holds API server configuration.
type Config struct {
	Listen string
	APIKey string
}

// Server is the admin HTTP server.
type Server struct {
	config     Config
	registry   *plugin.Registry
	ledger     *ledger.Ledger
	dispatcher Dispatcher
	hub        *events.Hub
	logger     *slog.Logger
	server     *http.Server
	startedAt  time.Time
}

// New creates the admin server. hub and dispatcher may be nil in tests.
func New(config Config, registry *plugin.Registry, led *ledger.Ledger, dispatcher Dispatcher, hub *events.Hub) *Server {
	return &Server{
		config:     config,
		registry:   registry,
		ledger:     led,
		dispatcher: dispatcher,
		hub:        hub,
		logger:     log.WithComponent("api"),
		startedAt:  time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("admin API starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("admin API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/plugins", s.handleListPlugins)
		r.Get("/plugins/{name}/help", s.handlePluginHelp)
		r.Post("/plugins/{name}/enable", s.handlePluginState("enable"))
		r.Post("/plugins/{name}/disable", s.handlePluginState("disable"))
		r.Post("/plugins/{name}/reload", s.handlePluginState("reload"))
		r.Get("/ledger/{owner}", s.handleBalance)
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
