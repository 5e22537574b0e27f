package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/adapter/httpapi"
	"github.com/notAbhisar/aqua-nexus/internal/adapter/memory"
	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/ingest"
	"github.com/notAbhisar/aqua-nexus/internal/observability"
	"github.com/notAbhisar/aqua-nexus/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// newTestServer wires the full HTTP surface over the in-memory store.
func newTestServer(t *testing.T) (*httpapi.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := slog.Default()
	metrics := observability.NewMetricsForTesting()
	ingestor := ingest.NewIngestor(store, nil, logger, metrics)
	svc := stats.New(store, logger, metrics)
	return httpapi.NewServer(":0", store, ingestor, svc, nil, logger), store
}

func doJSON(t *testing.T, srv *httpapi.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func seedNode(t *testing.T, store *memory.Store, node domain.Node) domain.Node {
	t.Helper()
	created, err := store.CreateNode(context.Background(), node)
	require.NoError(t, err)
	return created
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz_NilCheckerAlwaysReady(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_NotReady(t *testing.T) {
	store := memory.New()
	logger := slog.Default()
	metrics := observability.NewMetricsForTesting()
	ingestor := ingest.NewIngestor(store, nil, logger, metrics)
	svc := stats.New(store, logger, metrics)
	srv := httpapi.NewServer(":0", store, ingestor, svc,
		&mockReadiness{err: fmt.Errorf("no samples yet")}, logger)

	rec := doJSON(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "no samples yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCreateAndGetNode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/nodes", map[string]any{
		"name":      "Sector-7 Main",
		"node_type": "urban",
		"district":  "Central",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Node](t, rec)
	assert.Equal(t, domain.StatusNormal, created.Status)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/nodes/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Node](t, rec)
	assert.Equal(t, "Sector-7 Main", got.Name)

	rec = doJSON(t, srv, http.MethodGet, "/api/nodes/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNode_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/nodes", map[string]any{"node_type": "urban"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/nodes", map[string]any{
		"name": "x", "node_type": "suburban",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNodes_ContextFilter(t *testing.T) {
	srv, store := newTestServer(t)
	seedNode(t, store, domain.Node{Name: "u", Type: domain.NodeTypeUrban})
	seedNode(t, store, domain.Node{Name: "r", Type: domain.NodeTypeRural})

	rec := doJSON(t, srv, http.MethodGet, "/api/nodes?context=rural", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode[[]domain.Node](t, rec)
	require.Len(t, nodes, 1)
	assert.Equal(t, "r", nodes[0].Name)

	rec = doJSON(t, srv, http.MethodGet, "/api/nodes?context=suburban", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestTelemetry_StatusChange(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})

	rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
		"node_id":  node.ID,
		"pressure": 25.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[ingest.Result](t, rec)
	assert.True(t, result.StatusChanged)
	assert.Equal(t, domain.StatusCritical, result.NewStatus)

	got, err := store.Node(context.Background(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCritical, got.Status)
}

func TestIngestTelemetry_UnknownNode(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
		"node_id": 42, "pressure": 50.0,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNodeTelemetryRoutes(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})

	for i := range 3 {
		rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
			"node_id":   node.ID,
			"pressure":  45.0 + float64(i),
			"timestamp": time.Now().UTC().Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/telemetry/node/%d?limit=2", node.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	samples := decode[[]domain.Telemetry](t, rec)
	assert.Len(t, samples, 2)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/telemetry/node/%d/latest", node.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[domain.Telemetry](t, rec)
	require.NotNil(t, latest.Pressure)
	assert.InEpsilon(t, 47.0, *latest.Pressure, 0.0001)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/telemetry/node/%d/stats", node.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodeStats := decode[domain.NodeWindowStats](t, rec)
	require.NotNil(t, nodeStats.AvgPressure)
	assert.InEpsilon(t, 46.0, *nodeStats.AvgPressure, 0.0001)
	require.NotNil(t, nodeStats.MaxPressure)
	assert.InEpsilon(t, 47.0, *nodeStats.MaxPressure, 0.0001)
}

func TestNodeTelemetry_LatestMissing(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/telemetry/node/%d/latest", node.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverrideNodeStatus(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})

	rec := doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/nodes/%d/status", node.ID),
		map[string]string{"status": "offline"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Node](t, rec)
	assert.Equal(t, domain.StatusOffline, got.Status)

	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/nodes/%d/status", node.ID),
		map[string]string{"status": "broken"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodesWithTelemetry(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})
	seedNode(t, store, domain.Node{Name: "dry", Type: domain.NodeTypeRural})

	rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
		"node_id": node.ID, "flow_rate": 20.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/nodes/with-telemetry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	readings := decode[[]domain.NodeReading](t, rec)
	require.Len(t, readings, 2)
	assert.NotNil(t, readings[0].Latest)
	assert.Nil(t, readings[1].Latest, "node without telemetry keeps a nil latest")
}

func TestDashboardStats(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "n", Type: domain.NodeTypeUrban})
	seedNode(t, store, domain.Node{Name: "r", Type: domain.NodeTypeRural})

	rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
		"node_id": node.ID, "pressure": 25.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[domain.DashboardStats](t, rec)
	assert.Equal(t, 2, dash.TotalNodes)
	assert.Equal(t, 1, dash.CriticalNodes)
	require.NotNil(t, dash.AvgPressure)
	assert.InEpsilon(t, 25.0, *dash.AvgPressure, 0.0001)
	assert.Nil(t, dash.AvgPHLevel, "no pH evidence in window")

	rec = doJSON(t, srv, http.MethodGet, "/api/stats?context=rural", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[domain.DashboardStats](t, rec)
	assert.Equal(t, 1, filtered.TotalNodes)
	assert.Equal(t, 0, filtered.CriticalNodes)
}

func TestAlerts(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "Sector-7 Main", Type: domain.NodeTypeUrban})

	rec := doJSON(t, srv, http.MethodPost, "/api/telemetry", map[string]any{
		"node_id": node.ID, "pressure": 25.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[domain.AlertList](t, rec)
	require.Len(t, list.Alerts, 1)
	assert.Equal(t, "Low Pressure Detected", list.Alerts[0].Title)
	assert.Equal(t, "25.00 PSI", list.Alerts[0].Value)
	assert.Equal(t, 1, list.Count)

	rec = doJSON(t, srv, http.MethodGet, "/api/alerts?context=rural", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[domain.AlertList](t, rec)
	assert.Empty(t, filtered.Alerts)
}

func TestContextStatsRoutes(t *testing.T) {
	srv, store := newTestServer(t)
	seedNode(t, store, domain.Node{Name: "u", Type: domain.NodeTypeUrban, District: "Central"})
	seedNode(t, store, domain.Node{Name: "plant", Type: domain.NodeTypeIndustrial, FacilityType: domain.FacilityTextile})

	rec := doJSON(t, srv, http.MethodGet, "/api/stats/urban", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	urban := decode[domain.UrbanStats](t, rec)
	assert.Equal(t, 1, urban.TotalNodes)

	rec = doJSON(t, srv, http.MethodGet, "/api/stats/rural", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rural := decode[domain.RuralStats](t, rec)
	assert.Equal(t, 0, rural.TotalStations)

	rec = doJSON(t, srv, http.MethodGet, "/api/stats/industrial", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	industrial := decode[domain.IndustrialStats](t, rec)
	assert.Equal(t, 1, industrial.TotalFacilities)
	assert.Equal(t, 100, industrial.ComplianceScore)
}

func TestReportLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/report", map[string]any{
		"description": "pipe burst near market",
		"category":    "leak",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Report](t, rec)
	assert.Equal(t, domain.ReportPending, created.Status)
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/report/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPatch, "/api/report/"+created.ID+"/status",
		map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decode[domain.Report](t, rec)
	assert.Equal(t, domain.ReportResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports?status=resolved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reports := decode[[]domain.Report](t, rec)
	assert.Len(t, reports, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/report/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViolationRoutes(t *testing.T) {
	srv, store := newTestServer(t)
	node := seedNode(t, store, domain.Node{Name: "plant", Type: domain.NodeTypeIndustrial})

	rec := doJSON(t, srv, http.MethodPost, "/api/violations", map[string]any{
		"node_id":        node.ID,
		"parameter":      "pH",
		"measured_value": 10.2,
		"limit_value":    9.0,
		"severity":       "critical",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.ComplianceViolation](t, rec)
	assert.False(t, created.ViolationDate.IsZero(), "violation date defaults to now")

	rec = doJSON(t, srv, http.MethodGet, "/api/violations/critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	critical := decode[[]domain.ComplianceViolation](t, rec)
	assert.Len(t, critical, 1)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/violations/%d/resolve", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decode[domain.ComplianceViolation](t, rec)
	assert.True(t, resolved.Resolved)

	rec = doJSON(t, srv, http.MethodGet, "/api/violations/critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	critical = decode[[]domain.ComplianceViolation](t, rec)
	assert.Empty(t, critical)

	rec = doJSON(t, srv, http.MethodPost, "/api/violations", map[string]any{
		"node_id": node.ID, "parameter": "pH", "severity": "mild",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegulatoryLimitRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/regulatory-limits", map[string]any{
		"name":          "CPCB Schedule VI",
		"facility_type": "textile",
		"ph_min":        6.0,
		"ph_max":        9.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/regulatory-limits?facility_type=textile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limits := decode[[]domain.RegulatoryLimit](t, rec)
	require.Len(t, limits, 1)
	assert.Equal(t, "CPCB Schedule VI", limits[0].Name)

	rec = doJSON(t, srv, http.MethodGet, "/api/regulatory-limits?facility_type=pharma", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limits = decode[[]domain.RegulatoryLimit](t, rec)
	assert.Empty(t, limits)
}
