// Package microservice hosts the operational HTTP surface of a JISC app
// instance: health probes and the cache debug endpoints. None of this is
// part of the business contract; it exists for diagnostics.
package microservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jisc-platform/go-jisc/pkg/cache"
)

// OpsConfig holds configuration for the ops server.
type OpsConfig struct {
	// HTTPPort in ":8081" form. Port 0 picks a free port, which the tests use.
	HTTPPort string
	// ExposeDebug enables the /debug/cache endpoints. Keep disabled outside
	// trusted networks: clear is a destructive operation.
	ExposeDebug bool
}

// OpsServer serves health and cache-debug endpoints for one app instance.
type OpsServer struct {
	logger     zerolog.Logger
	store      cache.Store
	httpServer *http.Server
	mux        *http.ServeMux

	mu         sync.RWMutex
	actualAddr string
	configured string
}

// NewOpsServer creates an ops server over the given store.
func NewOpsServer(cfg *OpsConfig, store cache.Store, logger zerolog.Logger) *OpsServer {
	s := &OpsServer{
		logger:     logger.With().Str("component", "OpsServer").Logger(),
		store:      store,
		mux:        http.NewServeMux(),
		configured: cfg.HTTPPort,
	}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	if cfg.ExposeDebug {
		s.mux.HandleFunc("/debug/cache/stats", s.handleCacheStats)
		s.mux.HandleFunc("/debug/cache/clear", s.handleCacheClear)
	}
	s.httpServer = &http.Server{Addr: cfg.HTTPPort, Handler: s.mux}
	return s
}

// Start begins listening in a background goroutine.
func (s *OpsServer) Start() error {
	listener, err := net.Listen("tcp", s.configured)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.configured, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", s.actualAddr).Msg("Ops server starting to listen")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Ops server failed")
		}
	}()

	return nil
}

// Shutdown gracefully stops the server, respecting the context's deadline.
func (s *OpsServer) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down ops server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during ops server shutdown.")
		return err
	}
	s.logger.Info().Msg("Ops server stopped.")
	return nil
}

// Addr returns the address the server is actually listening on.
func (s *OpsServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actualAddr
}

// Mux returns the underlying ServeMux, so an embedding app can add routes.
func (s *OpsServer) Mux() *http.ServeMux {
	return s.mux
}

func (s *OpsServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *OpsServer) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Stats()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode cache stats.")
	}
}

func (s *OpsServer) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.store.Clear()
	s.logger.Warn().Msg("Cache cleared via debug endpoint.")
	w.WriteHeader(http.StatusNoContent)
}
