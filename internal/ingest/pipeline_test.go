package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/ingest"
	"github.com/notAbhisar/aqua-nexus/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawSample
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawSample, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	if len(m.batches) > 0 {
		batch := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()

	// Block until context cancellation to simulate waiting for messages.
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockBatchLoader struct {
	mu     sync.Mutex
	loaded []domain.Telemetry
	err    error
}

func (m *mockBatchLoader) LoadBatch(_ context.Context, samples []domain.Telemetry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, samples...)
	return nil
}

func (m *mockBatchLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	// Fresh registry per call to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawSample(t, 42, 55.0)

	ext := &mockExtractor{batches: [][]domain.RawSample{{raw}}}
	tfm := ingest.NewTransformer(slog.Default())
	ldr := &mockBatchLoader{}

	p := ingest.NewPipeline(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, ldr.count())
	assert.Equal(t, int64(42), ldr.loaded[0].NodeID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, would block
	tfm := ingest.NewTransformer(slog.Default())
	ldr := &mockBatchLoader{}

	p := ingest.NewPipeline(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_BadMessageSkippedAndCommitted(t *testing.T) {
	committed := false
	bad := domain.RawSample{
		Value: []byte("not json"),
		Commit: func(_ context.Context) error {
			committed = true
			return nil
		},
	}
	good := makeRawSample(t, 7, 40.0)

	ext := &mockExtractor{batches: [][]domain.RawSample{{bad, good}}}
	tfm := ingest.NewTransformer(slog.Default())
	ldr := &mockBatchLoader{}

	p := ingest.NewPipeline(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, ldr.count())
	assert.Equal(t, int64(7), ldr.loaded[0].NodeID)
	assert.True(t, committed, "malformed message should still be committed")
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeRawSample(t, 3, 25.0)
	raw.Topic = "raw-telemetry"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawSample{{raw}}}
	tfm := ingest.NewTransformer(slog.Default())
	ldr := &mockBatchLoader{}

	p := ingest.NewPipeline(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commitCalled := false

	raw := makeRawSample(t, 3, 25.0)
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawSample{{raw}}}
	tfm := ingest.NewTransformer(slog.Default())
	ldr := &mockBatchLoader{err: errors.New("store unavailable")}

	p := ingest.NewPipeline(ext, tfm, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.False(t, commitCalled, "offsets must not be committed when the load fails")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestParseRawSample(t *testing.T) {
	ts := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]any{
		"node_id":   int64(9),
		"timestamp": ts.Format(time.RFC3339),
		"pressure":  48.5,
		"flow_rate": 22.0,
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	sample, err := ingest.ParseRawSample(domain.RawSample{Value: data})
	require.NoError(t, err)
	assert.Equal(t, int64(9), sample.NodeID)
	assert.Equal(t, ts, sample.Timestamp)
	require.NotNil(t, sample.Pressure)
	assert.InEpsilon(t, 48.5, *sample.Pressure, 0.0001)
	assert.Nil(t, sample.PHLevel)
}

func TestParseRawSample_FallsBackToMessageTimestamp(t *testing.T) {
	msgTime := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	data, err := json.Marshal(map[string]any{"node_id": int64(4), "pressure": 50.0})
	require.NoError(t, err)

	sample, err := ingest.ParseRawSample(domain.RawSample{Value: data, Timestamp: msgTime})
	require.NoError(t, err)
	assert.Equal(t, msgTime, sample.Timestamp)
}

func TestParseRawSample_Invalid(t *testing.T) {
	_, err := ingest.ParseRawSample(domain.RawSample{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = ingest.ParseRawSample(domain.RawSample{Value: []byte(`{"pressure": 50}`)})
	assert.Error(t, err, "missing node_id must be rejected")
}

// --- helpers ---

func makeRawSample(t *testing.T, nodeID int64, pressure float64) domain.RawSample {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"node_id":   nodeID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"pressure":  pressure,
	})
	require.NoError(t, err)
	return domain.RawSample{Value: data}
}
