// Package server exposes health and runtime stats over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/port"
	"github.com/vertextoedge/terabox-relay/internal/service/relay"
)

// StatsSource reports pipeline resource usage
type StatsSource interface {
	Stats() relay.RuntimeStats
}

// Config contains HTTP server configuration
type Config struct {
	BindAddr      string
	AdminUsername string
	AdminPassword string // empty leaves /debug/stats unprotected
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:      "127.0.0.1:8080",
		AdminUsername: "admin",
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  10 * time.Second,
		IdleTimeout:   60 * time.Second,
	}
}

// Server represents the HTTP server
type Server struct {
	config       *Config
	store        port.UserStore
	logger       *zap.Logger
	server       *http.Server
	debugHandler *DebugHandler
	started      time.Time
}

// New creates a new HTTP server. fs may be nil.
func New(cfg *Config, store port.UserStore, stats StatsSource, fs port.FileSystem, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	logger = logger.Named("http")

	s := &Server{
		config:  cfg,
		store:   store,
		logger:  logger,
		started: time.Now(),
	}

	s.debugHandler = NewDebugHandler(store, stats, fs, s.started, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	statsHandler := s.debugHandler.HandleStats
	if cfg.AdminPassword != "" {
		statsHandler = BasicAuthMiddleware(cfg.AdminUsername, cfg.AdminPassword, logger)(statsHandler)
	}
	mux.HandleFunc("/debug/stats", statsHandler)

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      RecoverMiddleware(logger)(LoggingMiddleware(logger)(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.Bool("stats_auth", s.config.AdminPassword != ""))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports whether the user store is reachable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
