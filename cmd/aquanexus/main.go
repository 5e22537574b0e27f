package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/notAbhisar/aqua-nexus/internal/adapter/httpapi"
	kafkaadapter "github.com/notAbhisar/aqua-nexus/internal/adapter/kafka"
	"github.com/notAbhisar/aqua-nexus/internal/adapter/memory"
	"github.com/notAbhisar/aqua-nexus/internal/adapter/postgres"
	"github.com/notAbhisar/aqua-nexus/internal/config"
	"github.com/notAbhisar/aqua-nexus/internal/ingest"
	"github.com/notAbhisar/aqua-nexus/internal/observability"
	"github.com/notAbhisar/aqua-nexus/internal/stats"
)

// store is the full persistence surface shared by the ingestor, the stats
// service, and the HTTP API.
type store interface {
	httpapi.Store
	stats.Store
	ingest.Store
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Status-change events are published only when Kafka is enabled; the
	// ingestor treats a nil publisher as "don't publish".
	var publisher ingest.StatusPublisher
	var writer *kafkaadapter.Writer
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		reader = kafkaadapter.NewReader(cfg, logger)
		logger.Info("kafka ingestion enabled",
			"brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic,
			"status_topic", cfg.KafkaStatusTopic,
		)
	} else {
		logger.Info("kafka ingestion disabled, telemetry arrives over HTTP only")
	}

	ingestor := ingest.NewIngestor(st, publisher, logger, metrics)
	svc := stats.New(st, logger, metrics)

	var ready httpapi.ReadinessChecker
	var pipeline *ingest.Pipeline
	if cfg.KafkaEnabled {
		transformer := ingest.NewTransformer(logger)
		pipeline = ingest.NewPipeline(reader, transformer, ingestor, logger, metrics, cfg.BatchSize)
		ready = pipeline
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, st, ingestor, svc, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if pipeline != nil {
		go func() {
			if err := pipeline.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openStore selects the persistence driver and, for postgres, ensures the
// schema exists.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")
		return memory.New(), nil
	default:
		st, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
}
