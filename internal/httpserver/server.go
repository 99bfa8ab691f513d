// Package httpserver exposes the bot's process-liveness endpoint. The chat
// surface lives entirely in the Telegram transport; this server exists so a
// hosting platform can probe the process.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fueltrack/fueltrack-bot/internal/health"
	"github.com/fueltrack/fueltrack-bot/internal/version"
)

// AliveMessage is the fixed confirmation string served on the root path.
const AliveMessage = "🚗 Fuel Bot is Alive!"

// Server serves the liveness and health endpoints.
type Server struct {
	checker   *health.Checker
	installID string
	logger    *log.Logger

	httpServer *http.Server
}

// New builds a server listening on addr. checker may be nil, in which case
// /health reports only process liveness.
func New(addr string, checker *health.Checker, installID string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[http] ", log.LstdFlags)
	}
	s := &Server{checker: checker, installID: installID, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the calling goroutine and blocks until Shutdown
// or a listener error.
func (s *Server) Start() error {
	s.logger.Printf("liveness server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("liveness server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(AliveMessage))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Status     health.Status      `json:"status"`
		Version    string             `json:"version"`
		InstallID  string             `json:"install_id,omitempty"`
		Components []health.Component `json:"components,omitempty"`
		CheckedAt  time.Time          `json:"checked_at"`
	}{Status: health.StatusHealthy, Version: version.Info(), InstallID: s.installID, CheckedAt: time.Now().UTC()}

	code := http.StatusOK
	if s.checker != nil {
		report := s.checker.Check(r.Context())
		payload.Status = report.Status
		payload.Components = report.Components
		payload.CheckedAt = report.CheckedAt
		if report.Status == health.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode health payload: %v", err)
	}
}
