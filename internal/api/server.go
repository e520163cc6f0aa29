// Package api exposes the session operations over a loopback HTTP
// surface, plus the websocket change-notification feed the desktop shell
// subscribes to.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chronoglass/chronod/internal/notify"
	"github.com/chronoglass/chronod/internal/tracker"
)

// ServerOptions configures the API server.
type ServerOptions struct {
	Host string
	Port int
}

// Server is the loopback HTTP API server.
type Server struct {
	options ServerOptions
	server  *http.Server
	tracker *tracker.Tracker
	hub     *notify.Hub
	logger  zerolog.Logger

	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates the API server.
func NewServer(options ServerOptions, tr *tracker.Tracker, hub *notify.Hub, logger zerolog.Logger) (*Server, error) {
	if options.Host == "" {
		options.Host = "127.0.0.1"
	}
	if options.Port == 0 {
		options.Port = 45321
	}
	if tr == nil {
		return nil, fmt.Errorf("tracker is required")
	}

	return &Server{
		options:   options,
		tracker:   tr,
		hub:       hub,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}, nil
}

// Start starts serving and blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /data", s.wrap(s.handleGetAll))
	mux.HandleFunc("GET /data/day/{date}", s.wrap(s.handleGetDay))
	mux.HandleFunc("GET /data/week/{year}/{week}", s.wrap(s.handleGetWeek))
	mux.HandleFunc("POST /data/start", s.wrap(s.handleStart))
	mux.HandleFunc("POST /data/append", s.wrap(s.handleAppend))
	mux.HandleFunc("POST /data/overwrite", s.wrap(s.handleOverwrite))
	mux.HandleFunc("DELETE /data/all", s.wrap(s.handleClearAll))
	mux.HandleFunc("DELETE /data/day/{date}", s.wrap(s.handleClearDay))
	mux.HandleFunc("DELETE /data/range", s.wrap(s.handleClearRange))
	if s.hub != nil {
		mux.Handle("GET /events", s.hub.Handler())
	}
	return mux
}

// Stop gracefully stops the server, waiting for in-flight requests.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down API server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}

	s.logger.Info().Msg("API server stopped")
	return nil
}

// wrap adds shutdown refusal, in-flight tracking, and completion logging
// around a handler.
func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		s.shutdownMu.RUnlock()

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration", time.Since(start).Milliseconds()).
			Msg("Request completed")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
