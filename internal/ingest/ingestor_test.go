package ingest_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu        sync.Mutex
	nodes     map[int64]domain.Node
	inserted  []domain.Telemetry
	insertErr error
	updateErr error
	statuses  map[int64]domain.NodeStatus
}

func newMockStore(nodes ...domain.Node) *mockStore {
	s := &mockStore{
		nodes:    make(map[int64]domain.Node),
		statuses: make(map[int64]domain.NodeStatus),
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return s
}

func (s *mockStore) Node(_ context.Context, id int64) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return domain.Node{}, domain.ErrNotFound
	}
	if status, ok := s.statuses[id]; ok {
		n.Status = status
	}
	return n, nil
}

func (s *mockStore) InsertTelemetry(_ context.Context, sample domain.Telemetry) (domain.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return domain.Telemetry{}, s.insertErr
	}
	sample.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, sample)
	return sample, nil
}

func (s *mockStore) UpdateNodeStatus(_ context.Context, nodeID int64, status domain.NodeStatus, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.statuses[nodeID] = status
	return nil
}

type mockPublisher struct {
	mu      sync.Mutex
	changes []domain.StatusChange
	err     error
}

func (p *mockPublisher) PublishStatusChange(_ context.Context, change domain.StatusChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.changes = append(p.changes, change)
	return nil
}

func urbanNode(id int64, status domain.NodeStatus) domain.Node {
	return domain.Node{ID: id, Name: "Sector-7 Main", Type: domain.NodeTypeUrban, Status: status}
}

func TestIngestor_Ingest_StatusTransition(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	pub := &mockPublisher{}
	ing := ingest.NewIngestor(store, pub, slog.Default(), newTestMetrics())

	low := 25.0
	res, err := ing.Ingest(context.Background(), domain.Telemetry{
		NodeID:    1,
		Timestamp: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
		Pressure:  &low,
	})
	require.NoError(t, err)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, domain.StatusCritical, res.NewStatus)
	assert.Equal(t, domain.StatusCritical, store.statuses[1])

	require.Len(t, pub.changes, 1)
	assert.Equal(t, domain.StatusNormal, pub.changes[0].From)
	assert.Equal(t, domain.StatusCritical, pub.changes[0].To)
	assert.Equal(t, "Sector-7 Main", pub.changes[0].NodeName)
}

func TestIngestor_Ingest_NoChangeNoPublish(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	pub := &mockPublisher{}
	ing := ingest.NewIngestor(store, pub, slog.Default(), newTestMetrics())

	ok := 55.0
	res, err := ing.Ingest(context.Background(), domain.Telemetry{NodeID: 1, Pressure: &ok})
	require.NoError(t, err)
	assert.False(t, res.StatusChanged)
	assert.Equal(t, domain.StatusNormal, res.NewStatus)
	assert.Empty(t, pub.changes)
}

func TestIngestor_Ingest_DefaultsTimestampAndQuality(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	ing := ingest.NewIngestor(store, nil, slog.Default(), newTestMetrics())

	res, err := ing.Ingest(context.Background(), domain.Telemetry{NodeID: 1})
	require.NoError(t, err)
	assert.False(t, res.Telemetry.Timestamp.IsZero())
	assert.Equal(t, domain.QualityValid, res.Telemetry.Quality)
}

func TestIngestor_Ingest_UnknownNode(t *testing.T) {
	store := newMockStore()
	ing := ingest.NewIngestor(store, nil, slog.Default(), newTestMetrics())

	_, err := ing.Ingest(context.Background(), domain.Telemetry{NodeID: 99})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.inserted)
}

func TestIngestor_Ingest_PublishFailureIsAdvisory(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	pub := &mockPublisher{err: errors.New("broker down")}
	ing := ingest.NewIngestor(store, pub, slog.Default(), newTestMetrics())

	low := 25.0
	res, err := ing.Ingest(context.Background(), domain.Telemetry{NodeID: 1, Pressure: &low})
	require.NoError(t, err, "publish failure must not fail the ingest")
	assert.True(t, res.StatusChanged)
	assert.Equal(t, domain.StatusCritical, store.statuses[1])
}

func TestIngestor_LoadBatch_SkipsUnknownNodes(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	ing := ingest.NewIngestor(store, nil, slog.Default(), newTestMetrics())

	ok := 55.0
	err := ing.LoadBatch(context.Background(), []domain.Telemetry{
		{NodeID: 99, Pressure: &ok},
		{NodeID: 1, Pressure: &ok},
	})
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, int64(1), store.inserted[0].NodeID)
}

func TestIngestor_LoadBatch_AbortsOnStoreFailure(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	store.insertErr = errors.New("disk full")
	ing := ingest.NewIngestor(store, nil, slog.Default(), newTestMetrics())

	ok := 55.0
	err := ing.LoadBatch(context.Background(), []domain.Telemetry{{NodeID: 1, Pressure: &ok}})
	assert.Error(t, err)
}

func TestIngestor_Ingest_ConcurrentSameNode(t *testing.T) {
	store := newMockStore(urbanNode(1, domain.StatusNormal))
	ing := ingest.NewIngestor(store, nil, slog.Default(), newTestMetrics())

	low := 25.0
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ing.Ingest(context.Background(), domain.Telemetry{NodeID: 1, Pressure: &low})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.inserted, 10)
	assert.Equal(t, domain.StatusCritical, store.statuses[1])
}
