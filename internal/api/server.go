// Package api exposes the published knowledge graph over HTTP. The API
// is read-only: publication happens through the CLI and import tooling.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navayuwa/nes-core/internal/domain/services"
)

// Server serves the HTTP API.
type Server struct {
	search  *services.SearchService
	log     *slog.Logger
	metrics *metrics
	mux     *http.ServeMux
	http    *http.Server
}

// NewServer creates a Server bound to addr. Collectors are registered
// on reg; pass a fresh registry in tests to avoid collisions.
func NewServer(addr string, search *services.SearchService, log *slog.Logger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		search:  search,
		log:     log,
		metrics: newMetrics(reg),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/entities", s.instrument("entities", s.handleEntities))
	// Entity identifiers contain slashes, so the id is a trailing
	// wildcard and sub-resources are recognized by suffix.
	s.mux.HandleFunc("GET /api/entities/{id...}", s.instrument("entity", s.handleEntity))
	s.mux.HandleFunc("GET /api/relationships", s.instrument("relationships", s.handleRelationships))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's route table, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
