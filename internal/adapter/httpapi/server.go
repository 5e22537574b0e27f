// Package httpapi exposes the dashboard REST surface plus health, readiness,
// and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/ingest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the persistence surface the handlers need.
type Store interface {
	CreateNode(ctx context.Context, node domain.Node) (domain.Node, error)
	Node(ctx context.Context, id int64) (domain.Node, error)
	ListNodes(ctx context.Context, typeFilter *domain.NodeType) ([]domain.Node, error)
	UpdateNodeStatus(ctx context.Context, nodeID int64, status domain.NodeStatus, at time.Time) error

	LatestTelemetry(ctx context.Context) (map[int64]*domain.Telemetry, error)
	LatestTelemetryForNode(ctx context.Context, nodeID int64) (*domain.Telemetry, error)
	TelemetryForNode(ctx context.Context, nodeID int64, limit int) ([]domain.Telemetry, error)

	CreateReport(ctx context.Context, report domain.Report) (domain.Report, error)
	Report(ctx context.Context, id string) (domain.Report, error)
	ListReports(ctx context.Context, status *domain.ReportStatus, category *domain.ReportCategory) ([]domain.Report, error)
	UpdateReportStatus(ctx context.Context, id string, status domain.ReportStatus) (domain.Report, error)

	CreateViolation(ctx context.Context, v domain.ComplianceViolation) (domain.ComplianceViolation, error)
	ListViolations(ctx context.Context, nodeID *int64, resolved *bool) ([]domain.ComplianceViolation, error)
	ResolveViolation(ctx context.Context, id int64) (domain.ComplianceViolation, error)
	CriticalViolationsSince(ctx context.Context, since time.Time) ([]domain.ComplianceViolation, error)

	CreateRegulatoryLimit(ctx context.Context, limit domain.RegulatoryLimit) (domain.RegulatoryLimit, error)
	ListRegulatoryLimits(ctx context.Context, facility *domain.FacilityType) ([]domain.RegulatoryLimit, error)
}

// Ingestor runs the classify-and-persist path for HTTP-submitted samples.
type Ingestor interface {
	Ingest(ctx context.Context, sample domain.Telemetry) (ingest.Result, error)
}

// StatsProvider serves the aggregated dashboard views.
type StatsProvider interface {
	Dashboard(ctx context.Context, contextFilter *domain.NodeType) (domain.DashboardStats, error)
	Urban(ctx context.Context) (domain.UrbanStats, error)
	Rural(ctx context.Context) (domain.RuralStats, error)
	Industrial(ctx context.Context) (domain.IndustrialStats, error)
	Alerts(ctx context.Context, contextFilter *domain.NodeType) (domain.AlertList, error)
	NodeWindow(ctx context.Context, nodeID int64, window time.Duration) (domain.NodeWindowStats, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the REST API.
type Server struct {
	httpServer *http.Server
	store      Store
	ingestor   Ingestor
	stats      StatsProvider
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer wires all routes. ready may be nil, in which case /readyz always
// succeeds (HTTP-only deployments have no pipeline to wait for).
func NewServer(addr string, store Store, ingestor Ingestor, stats StatsProvider, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:    store,
		ingestor: ingestor,
		stats:    stats,
		ready:    ready,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/telemetry", s.handleIngestTelemetry)
	mux.HandleFunc("GET /api/telemetry/node/{id}", s.handleNodeTelemetry)
	mux.HandleFunc("GET /api/telemetry/node/{id}/latest", s.handleNodeLatestTelemetry)
	mux.HandleFunc("GET /api/telemetry/node/{id}/stats", s.handleNodeTelemetryStats)

	mux.HandleFunc("GET /api/nodes", s.handleListNodes)
	mux.HandleFunc("POST /api/nodes", s.handleCreateNode)
	mux.HandleFunc("GET /api/nodes/with-telemetry", s.handleNodesWithTelemetry)
	mux.HandleFunc("GET /api/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}/status", s.handleOverrideNodeStatus)

	mux.HandleFunc("GET /api/stats", s.handleDashboard)
	mux.HandleFunc("GET /api/stats/urban", s.handleUrbanStats)
	mux.HandleFunc("GET /api/stats/rural", s.handleRuralStats)
	mux.HandleFunc("GET /api/stats/industrial", s.handleIndustrialStats)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)

	mux.HandleFunc("POST /api/report", s.handleCreateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/report/{id}", s.handleGetReport)
	mux.HandleFunc("PATCH /api/report/{id}/status", s.handleUpdateReportStatus)

	mux.HandleFunc("POST /api/violations", s.handleCreateViolation)
	mux.HandleFunc("GET /api/violations", s.handleListViolations)
	mux.HandleFunc("GET /api/violations/critical", s.handleCriticalViolations)
	mux.HandleFunc("POST /api/violations/{id}/resolve", s.handleResolveViolation)

	mux.HandleFunc("GET /api/regulatory-limits", s.handleListRegulatoryLimits)
	mux.HandleFunc("POST /api/regulatory-limits", s.handleCreateRegulatoryLimit)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondStoreError maps store failures onto HTTP status codes.
func (s *Server) respondStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
