// Package api provides HTTP handlers for the dashboard.
//
// # Endpoints
//
// Devices:
//   - GET  /api/v1/devices - Filtered device table (type, status, location, worker, protocol query params)
//   - GET  /api/v1/devices?id={id} - Single device, same as the path form below
//   - GET  /api/v1/devices/{id} - Single enriched device
//   - GET  /api/v1/devices/export - CSV download of the filtered table
//
// Workers:
//   - GET  /api/v1/workers/export - CSV download of all workers
//
// Dashboard:
//   - GET  /api/v1/summary - Device, location and worker counts
//   - GET  /api/v1/reports/workers - Devices per worker
//
// Collections:
//   - POST /api/v1/refresh - Force a refetch (optional ?kind=devices|device_types|locations|workers)
//
// Health:
//   - GET /api/v1/health - Health check
//   - GET /api/v1/infrastructure/health - Process, source, cache and collection health
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/metrics"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/refresh"
	"github.com/pilot-net/nms-dashboard/dashboard/internal/view"
)

// Refresher is the part of refresh.Refresher the handlers use.
type Refresher interface {
	Refresh(ctx context.Context, kind entity.Kind, force bool) refresh.Result
	RefreshAll(ctx context.Context, force bool) []refresh.Result
}

// Server is the HTTP API server.
type Server struct {
	view             *view.View
	refresher        Refresher
	metricsCollector *metrics.Collector
	logger           *slog.Logger
	mux              *http.ServeMux
}

// NewServer creates a new API server. refresher and metricsCollector may be nil.
func NewServer(v *view.View, refresher Refresher, metricsCollector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		view:             v,
		refresher:        refresher,
		metricsCollector: metricsCollector,
		logger:           logger.With("component", "api"),
		mux:              http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Log request
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"duration", time.Since(start))
}

func (s *Server) registerRoutes() {
	// Health
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/infrastructure/health", s.handleInfrastructureHealth)

	// Devices - static routes must come before wildcard {id} routes
	s.mux.HandleFunc("GET /api/v1/devices", s.handleListDevices)
	s.mux.HandleFunc("GET /api/v1/devices/export", s.handleExportDevices)
	s.mux.HandleFunc("GET /api/v1/devices/{id}", s.handleGetDevice)

	// Workers
	s.mux.HandleFunc("GET /api/v1/workers/export", s.handleExportWorkers)

	// Dashboard
	s.mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/v1/reports/workers", s.handleWorkerReport)

	// Collections
	s.mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
}

// =============================================================================
// HEALTH
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, snap := s.view.Rows()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"time":        time.Now().UTC().Format(time.RFC3339),
		"collections": snap.Meta,
	})
}

func (s *Server) handleInfrastructureHealth(w http.ResponseWriter, r *http.Request) {
	if s.metricsCollector == nil {
		s.writeError(w, http.StatusServiceUnavailable, "metrics collector not initialized")
		return
	}
	s.writeJSON(w, http.StatusOK, s.metricsCollector.GetInfrastructureHealth(r.Context()))
}

// =============================================================================
// HELPERS
// =============================================================================

// ensureFresh refetches the stale collections before a read. Failures are
// not fatal: the read serves the last-known data and reports the errors.
func (s *Server) ensureFresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	s.refresher.RefreshAll(ctx, false)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
