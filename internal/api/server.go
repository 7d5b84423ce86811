// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/signaldesk/internal/api/handler/api"
	"github.com/newthinker/signaldesk/internal/api/handler/web"
	"github.com/newthinker/signaldesk/internal/api/middleware"
	"github.com/newthinker/signaldesk/internal/app"
	"github.com/newthinker/signaldesk/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the local dashboard HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	deps       Dependencies
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	TemplatesDir string
	// MetricsPath serves Prometheus metrics when set.
	MetricsPath string
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	App *app.App
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
		deps:   deps,
	}

	if err := s.setupRoutes(cfg); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(deps.App.Metrics())(handler)
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
		// Fetches wait on the backend, which has no client deadline by default.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config) error {
	d := s.deps.App.Dashboard()

	// Web UI routes
	webHandler, err := web.NewHandler(d, cfg.TemplatesDir, s.logger.Named("web"))
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	// Form posts change dashboard state; only the dashboard's own pages
	// may send them.
	same := middleware.SameOrigin()

	s.mux.HandleFunc("GET /{$}", webHandler.Dashboard)
	s.mux.Handle("POST /fetch", same(http.HandlerFunc(webHandler.Fetch)))
	s.mux.Handle("POST /sort", same(http.HandlerFunc(webHandler.Sort)))
	s.mux.Handle("POST /exchange", same(http.HandlerFunc(webHandler.Exchange)))
	s.mux.Handle("POST /tab", same(http.HandlerFunc(webHandler.Tab)))
	s.mux.Handle("POST /date-mode", same(http.HandlerFunc(webHandler.DateMode)))
	s.mux.Handle("POST /login", same(http.HandlerFunc(webHandler.Login)))
	s.mux.Handle("POST /logout", same(http.HandlerFunc(webHandler.Logout)))
	s.mux.HandleFunc("GET /export", webHandler.Export)

	// JSON API, behind the API key when one is configured
	auth := middleware.APIKeyAuth(cfg.APIKey)
	signals := apihandler.NewSignalsHandler(d)

	s.mux.Handle("GET /api/view", auth(http.HandlerFunc(signals.View)))
	s.mux.Handle("POST /api/fetch", same(auth(http.HandlerFunc(signals.Fetch))))
	s.mux.Handle("GET /api/history/{exchange}", auth(http.HandlerFunc(signals.History)))
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(s.deps.App.Metrics(), promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
