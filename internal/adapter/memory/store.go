// Package memory provides an in-memory store for local development and tests.
// It mirrors the postgres store's behavior, including which operations return
// domain.ErrNotFound.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notAbhisar/aqua-nexus/internal/domain"
)

// Store keeps all entities in maps guarded by one mutex. Good enough for a
// single-process dev setup; it is not meant to scale.
type Store struct {
	mu sync.RWMutex

	nodes      map[int64]domain.Node
	telemetry  []domain.Telemetry
	reports    map[string]domain.Report
	violations map[int64]domain.ComplianceViolation
	limits     map[int64]domain.RegulatoryLimit

	nextNodeID      int64
	nextTelemetryID int64
	nextViolationID int64
	nextLimitID     int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		nodes:      make(map[int64]domain.Node),
		reports:    make(map[string]domain.Report),
		violations: make(map[int64]domain.ComplianceViolation),
		limits:     make(map[int64]domain.RegulatoryLimit),
	}
}

// --- nodes ---

func (s *Store) CreateNode(_ context.Context, node domain.Node) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNodeID++
	node.ID = s.nextNodeID
	if node.Status == "" {
		node.Status = domain.StatusNormal
	}
	now := time.Now().UTC()
	node.CreatedAt = now
	node.UpdatedAt = now
	s.nodes[node.ID] = node
	return node, nil
}

func (s *Store) Node(_ context.Context, id int64) (domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return domain.Node{}, domain.ErrNotFound
	}
	return node, nil
}

func (s *Store) ListNodes(_ context.Context, typeFilter *domain.NodeType) ([]domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if typeFilter != nil && n.Type != *typeFilter {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

func (s *Store) UpdateNodeStatus(_ context.Context, nodeID int64, status domain.NodeStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return domain.ErrNotFound
	}
	node.Status = status
	node.UpdatedAt = at
	s.nodes[nodeID] = node
	return nil
}

// --- telemetry ---

func (s *Store) InsertTelemetry(_ context.Context, sample domain.Telemetry) (domain.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[sample.NodeID]; !ok {
		return domain.Telemetry{}, domain.ErrNotFound
	}
	s.nextTelemetryID++
	sample.ID = s.nextTelemetryID
	s.telemetry = append(s.telemetry, sample)
	return sample, nil
}

func (s *Store) LatestTelemetry(_ context.Context) (map[int64]*domain.Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[int64]*domain.Telemetry)
	for i := range s.telemetry {
		sample := s.telemetry[i]
		cur, ok := latest[sample.NodeID]
		if !ok || sample.Timestamp.After(cur.Timestamp) {
			c := sample
			latest[sample.NodeID] = &c
		}
	}
	return latest, nil
}

func (s *Store) LatestTelemetryForNode(ctx context.Context, nodeID int64) (*domain.Telemetry, error) {
	latest, err := s.LatestTelemetry(ctx)
	if err != nil {
		return nil, err
	}
	return latest[nodeID], nil
}

func (s *Store) TelemetryForNode(_ context.Context, nodeID int64, limit int) ([]domain.Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var samples []domain.Telemetry
	for _, t := range s.telemetry {
		if t.NodeID == nodeID {
			samples = append(samples, t)
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.After(samples[j].Timestamp) })
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	return samples, nil
}

func (s *Store) TelemetryWindow(_ context.Context, since time.Time) ([]domain.Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var samples []domain.Telemetry
	for _, t := range s.telemetry {
		if !t.Timestamp.Before(since) {
			samples = append(samples, t)
		}
	}
	return samples, nil
}

func (s *Store) TelemetryWindowForNode(_ context.Context, nodeID int64, since time.Time) ([]domain.Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var samples []domain.Telemetry
	for _, t := range s.telemetry {
		if t.NodeID == nodeID && !t.Timestamp.Before(since) {
			samples = append(samples, t)
		}
	}
	return samples, nil
}

// --- citizen reports ---

func (s *Store) CreateReport(_ context.Context, report domain.Report) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report.ID = uuid.NewString()
	if report.Status == "" {
		report.Status = domain.ReportPending
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	s.reports[report.ID] = report
	return report, nil
}

func (s *Store) Report(_ context.Context, id string) (domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	return report, nil
}

func (s *Store) ListReports(_ context.Context, status *domain.ReportStatus, category *domain.ReportCategory) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if status != nil && r.Status != *status {
			continue
		}
		if category != nil && r.Category != *category {
			continue
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return reports, nil
}

func (s *Store) UpdateReportStatus(_ context.Context, id string, status domain.ReportStatus) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	now := time.Now().UTC()
	report.Status = status
	report.UpdatedAt = now
	if status == domain.ReportResolved {
		report.ResolvedAt = &now
	}
	s.reports[id] = report
	return report, nil
}

// --- compliance violations ---

func (s *Store) CreateViolation(_ context.Context, v domain.ComplianceViolation) (domain.ComplianceViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[v.NodeID]; !ok {
		return domain.ComplianceViolation{}, domain.ErrNotFound
	}
	s.nextViolationID++
	v.ID = s.nextViolationID
	v.CreatedAt = time.Now().UTC()
	s.violations[v.ID] = v
	return v, nil
}

func (s *Store) ListViolations(_ context.Context, nodeID *int64, resolved *bool) ([]domain.ComplianceViolation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	violations := make([]domain.ComplianceViolation, 0, len(s.violations))
	for _, v := range s.violations {
		if nodeID != nil && v.NodeID != *nodeID {
			continue
		}
		if resolved != nil && v.Resolved != *resolved {
			continue
		}
		violations = append(violations, v)
	}
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].ViolationDate.After(violations[j].ViolationDate)
	})
	return violations, nil
}

func (s *Store) ResolveViolation(_ context.Context, id int64) (domain.ComplianceViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[id]
	if !ok {
		return domain.ComplianceViolation{}, domain.ErrNotFound
	}
	now := time.Now().UTC()
	v.Resolved = true
	v.ResolvedDate = &now
	s.violations[id] = v
	return v, nil
}

func (s *Store) CriticalViolationsSince(_ context.Context, since time.Time) ([]domain.ComplianceViolation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var violations []domain.ComplianceViolation
	for _, v := range s.violations {
		if v.Severity == "critical" && !v.Resolved && !v.ViolationDate.Before(since) {
			violations = append(violations, v)
		}
	}
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].ViolationDate.After(violations[j].ViolationDate)
	})
	return violations, nil
}

// --- regulatory limits ---

func (s *Store) CreateRegulatoryLimit(_ context.Context, limit domain.RegulatoryLimit) (domain.RegulatoryLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLimitID++
	limit.ID = s.nextLimitID
	now := time.Now().UTC()
	limit.CreatedAt = now
	limit.UpdatedAt = now
	s.limits[limit.ID] = limit
	return limit, nil
}

func (s *Store) ListRegulatoryLimits(_ context.Context, facility *domain.FacilityType) ([]domain.RegulatoryLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limits := make([]domain.RegulatoryLimit, 0, len(s.limits))
	for _, l := range s.limits {
		if facility != nil && l.FacilityType != *facility {
			continue
		}
		limits = append(limits, l)
	}
	sort.Slice(limits, func(i, j int) bool { return limits[i].ID < limits[j].ID })
	return limits, nil
}

// Close is a no-op; it exists so the store drivers share a shutdown surface.
func (s *Store) Close() error { return nil }
