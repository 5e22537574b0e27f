package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/domain"
	"github.com/notAbhisar/aqua-nexus/internal/observability"
)

// Store is the persistence surface the ingestor needs.
type Store interface {
	Node(ctx context.Context, id int64) (domain.Node, error)
	InsertTelemetry(ctx context.Context, sample domain.Telemetry) (domain.Telemetry, error)
	UpdateNodeStatus(ctx context.Context, nodeID int64, status domain.NodeStatus, at time.Time) error
}

// StatusPublisher emits node status-change events. Pass nil to disable
// publishing.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, change domain.StatusChange) error
}

// Result reports what one ingested sample did to its node.
type Result struct {
	Telemetry     domain.Telemetry
	StatusChanged bool
	NewStatus     domain.NodeStatus
}

// Ingestor runs the classify-and-persist path for telemetry samples. The
// read-modify-write of a node's status is serialized per node so concurrent
// submissions for the same node cannot leave a stale status; different nodes
// proceed in parallel.
type Ingestor struct {
	store     Store
	publisher StatusPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewIngestor creates an Ingestor. publisher may be nil.
func NewIngestor(store Store, publisher StatusPublisher, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// nodeLock returns the mutex guarding one node's status transition.
func (i *Ingestor) nodeLock(nodeID int64) *sync.Mutex {
	i.mu.Lock()
	defer i.mu.Unlock()
	l, ok := i.locks[nodeID]
	if !ok {
		l = &sync.Mutex{}
		i.locks[nodeID] = l
	}
	return l
}

// Ingest persists one telemetry sample, classifies it, and applies the
// resulting status to the node. Returns domain.ErrNotFound (wrapped) when the
// sample references an unknown node.
func (i *Ingestor) Ingest(ctx context.Context, sample domain.Telemetry) (Result, error) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if sample.Quality == "" {
		sample.Quality = domain.QualityValid
	}

	lock := i.nodeLock(sample.NodeID)
	lock.Lock()
	defer lock.Unlock()

	node, err := i.store.Node(ctx, sample.NodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			i.metrics.UnknownNodes.Inc()
		}
		return Result{}, fmt.Errorf("ingest: node %d: %w", sample.NodeID, err)
	}

	stored, err := i.store.InsertTelemetry(ctx, sample)
	if err != nil {
		i.metrics.IngestErrors.Inc()
		return Result{}, fmt.Errorf("ingest: insert telemetry: %w", err)
	}
	i.metrics.SamplesIngested.Inc()

	classified := domain.ClassifyReading(stored, node.Type)
	persisted, changed := domain.ApplyNodeStatus(node.Status, classified)
	if changed {
		now := time.Now().UTC()
		if err := i.store.UpdateNodeStatus(ctx, node.ID, persisted, now); err != nil {
			return Result{}, fmt.Errorf("ingest: update node status: %w", err)
		}
		i.metrics.StatusChanges.WithLabelValues(string(persisted)).Inc()
		i.logger.Info("node status changed",
			"node_id", node.ID,
			"node_name", node.Name,
			"from", node.Status,
			"to", persisted,
		)
		i.publish(ctx, domain.StatusChange{
			NodeID:   node.ID,
			NodeName: node.Name,
			NodeType: node.Type,
			From:     node.Status,
			To:       persisted,
			At:       now,
		})
	}

	return Result{Telemetry: stored, StatusChanged: changed, NewStatus: persisted}, nil
}

// publish sends a status-change event, logging failures rather than failing
// the ingest: the status is already persisted, the event is advisory.
func (i *Ingestor) publish(ctx context.Context, change domain.StatusChange) {
	if i.publisher == nil {
		return
	}
	if err := i.publisher.PublishStatusChange(ctx, change); err != nil {
		i.logger.Warn("publish status change failed", "error", err, "node_id", change.NodeID)
	}
}

// LoadBatch ingests a batch of samples from the pipeline. Samples referencing
// unknown nodes are logged and skipped; any other failure aborts the batch so
// the pipeline can back off and retry without committing.
func (i *Ingestor) LoadBatch(ctx context.Context, samples []domain.Telemetry) error {
	for _, sample := range samples {
		if _, err := i.Ingest(ctx, sample); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				i.logger.Warn("skipping sample for unknown node", "node_id", sample.NodeID)
				continue
			}
			return err
		}
	}
	return nil
}
