// Package httpserver exposes the wager API plus metrics and health
// endpoints.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/book"
	"github.com/tbarret/wagerbook/pkg/healthprobe"
)

// Server serves the wager API.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Port   string
	Logger *zap.Logger
	Probe  *healthprobe.Probe
	Book   *book.Service
	// Events is optional; when set the browse endpoint is served for
	// the configured sport keys.
	Events    EventLister
	SportKeys []string
}

// New builds the router and server. The book service is optional so the
// metrics-only mode stays available.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.Probe.Health())
	r.Get("/ready", cfg.Probe.Ready())

	if cfg.Book != nil {
		h := NewBookHandler(cfg.Book, cfg.Logger)
		r.Post("/api/wagers", h.PlaceWager)
		r.Post("/api/parlays", h.PlaceParlay)
		r.Delete("/api/wagers/{id}", h.CancelWager)
		r.Get("/api/accounts/{id}/pending", h.Pending)
		r.Get("/api/accounts/{id}/history", h.History)
		r.Get("/api/accounts/{id}/balance", h.Balance)
	}

	if cfg.Events != nil {
		eh := NewEventsHandler(cfg.Events, cfg.SportKeys, cfg.Logger)
		r.Get("/api/events", eh.List)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{server: server, logger: cfg.Logger}
}

// Start blocks until the server stops or fails to listen.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
