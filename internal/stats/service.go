package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/observability"
)

// trendWindow covers the monthly trend charts; the aggregators slice the
// shorter averaging windows out of it themselves.
const trendWindow = 365 * 24 * time.Hour

// Store is the read surface the aggregation service needs.
type Store interface {
	Node(ctx context.Context, id int64) (domain.Node, error)
	ListNodes(ctx context.Context, typeFilter *domain.NodeType) ([]domain.Node, error)
	LatestTelemetry(ctx context.Context) (map[int64]*domain.Telemetry, error)
	TelemetryWindow(ctx context.Context, since time.Time) ([]domain.Telemetry, error)
	TelemetryWindowForNode(ctx context.Context, nodeID int64, since time.Time) ([]domain.Telemetry, error)
	ListReports(ctx context.Context, status *domain.ReportStatus, category *domain.ReportCategory) ([]domain.Report, error)
}

// Service assembles store snapshots and runs the domain aggregators over them.
// All methods are read-only.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an aggregation Service.
func New(store Store, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: metrics}
}

// Dashboard computes the cross-context dashboard rollup, optionally narrowing
// node counts to one context.
func (s *Service) Dashboard(ctx context.Context, contextFilter *domain.NodeType) (domain.DashboardStats, error) {
	s.metrics.StatsRequestCount.WithLabelValues("dashboard").Inc()

	nodes, err := s.store.ListNodes(ctx, nil)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard: list nodes: %w", err)
	}
	reports, err := s.store.ListReports(ctx, nil, nil)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard: list reports: %w", err)
	}
	window, err := s.store.TelemetryWindow(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard: telemetry window: %w", err)
	}

	return domain.AggregateDashboard(nodes, reports, window, contextFilter), nil
}

// Urban computes the urban-context statistics view.
func (s *Service) Urban(ctx context.Context) (domain.UrbanStats, error) {
	s.metrics.StatsRequestCount.WithLabelValues("urban").Inc()

	nodes, window, latest, err := s.snapshot(ctx, domain.NodeTypeUrban)
	if err != nil {
		return domain.UrbanStats{}, fmt.Errorf("urban stats: %w", err)
	}
	return domain.AggregateUrban(nodes, window, latest), nil
}

// Rural computes the rural groundwater statistics view.
func (s *Service) Rural(ctx context.Context) (domain.RuralStats, error) {
	s.metrics.StatsRequestCount.WithLabelValues("rural").Inc()

	nodes, window, latest, err := s.snapshot(ctx, domain.NodeTypeRural)
	if err != nil {
		return domain.RuralStats{}, fmt.Errorf("rural stats: %w", err)
	}
	return domain.AggregateRural(nodes, window, latest), nil
}

// Industrial computes the industrial compliance view from latest readings
// only; it needs no trailing window.
func (s *Service) Industrial(ctx context.Context) (domain.IndustrialStats, error) {
	s.metrics.StatsRequestCount.WithLabelValues("industrial").Inc()

	t := domain.NodeTypeIndustrial
	nodes, err := s.store.ListNodes(ctx, &t)
	if err != nil {
		return domain.IndustrialStats{}, fmt.Errorf("industrial stats: list nodes: %w", err)
	}
	latest, err := s.store.LatestTelemetry(ctx)
	if err != nil {
		return domain.IndustrialStats{}, fmt.Errorf("industrial stats: latest telemetry: %w", err)
	}
	return domain.AggregateIndustrial(nodes, latest), nil
}

// Alerts scans the latest reading of every node (optionally one context) and
// returns the active threshold alerts.
func (s *Service) Alerts(ctx context.Context, contextFilter *domain.NodeType) (domain.AlertList, error) {
	s.metrics.StatsRequestCount.WithLabelValues("alerts").Inc()

	nodes, err := s.store.ListNodes(ctx, contextFilter)
	if err != nil {
		return domain.AlertList{}, fmt.Errorf("alerts: list nodes: %w", err)
	}
	latest, err := s.store.LatestTelemetry(ctx)
	if err != nil {
		return domain.AlertList{}, fmt.Errorf("alerts: latest telemetry: %w", err)
	}

	readings := make([]domain.NodeReading, 0, len(nodes))
	for _, n := range nodes {
		readings = append(readings, domain.NodeReading{Node: n, Latest: latest[n.ID]})
	}

	list := domain.GenerateAlerts(readings, contextFilter)
	s.metrics.AlertsGenerated.Observe(float64(len(list.Alerts)))
	return list, nil
}

// NodeWindow computes one node's trailing-window statistics. Returns
// domain.ErrNotFound (wrapped) for an unknown node.
func (s *Service) NodeWindow(ctx context.Context, nodeID int64, window time.Duration) (domain.NodeWindowStats, error) {
	if _, err := s.store.Node(ctx, nodeID); err != nil {
		return domain.NodeWindowStats{}, fmt.Errorf("node stats: node %d: %w", nodeID, err)
	}
	samples, err := s.store.TelemetryWindowForNode(ctx, nodeID, time.Now().UTC().Add(-window))
	if err != nil {
		return domain.NodeWindowStats{}, fmt.Errorf("node stats: telemetry window: %w", err)
	}
	return domain.AggregateNodeWindow(samples), nil
}

// snapshot fetches the node list for one context plus the trend-length
// telemetry window and the latest reading per node.
func (s *Service) snapshot(ctx context.Context, t domain.NodeType) ([]domain.Node, []domain.Telemetry, map[int64]*domain.Telemetry, error) {
	nodes, err := s.store.ListNodes(ctx, &t)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list nodes: %w", err)
	}
	window, err := s.store.TelemetryWindow(ctx, time.Now().UTC().Add(-trendWindow))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("telemetry window: %w", err)
	}
	latest, err := s.store.LatestTelemetry(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("latest telemetry: %w", err)
	}
	return nodes, window, latest, nil
}
