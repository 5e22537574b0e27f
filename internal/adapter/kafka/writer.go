package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/notAbhisar/aqua-nexus/internal/config"
	"github.com/notAbhisar/aqua-nexus/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes node status-change events to the status topic. It
// implements ingest.StatusPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured status topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaStatusTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishStatusChange serializes and publishes one status transition. Events
// for the same node share a message key so consumers see transitions in
// order.
func (w *Writer) PublishStatusChange(ctx context.Context, change domain.StatusChange) error {
	msg, err := serializeStatusChange(change)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeStatusChange marshals a status transition into a Kafka message.
func serializeStatusChange(change domain.StatusChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize status change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("node-%d", change.NodeID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "node_type", Value: []byte(change.NodeType)},
			{Key: "status", Value: []byte(change.To)},
			{Key: "changed_at", Value: []byte(change.At.Format(time.RFC3339))},
		},
	}, nil
}
