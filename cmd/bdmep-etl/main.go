// Command bdmep-etl is the long-running service: it fetches and exports the
// configured years once at startup and then on SCHEDULE, exposing health,
// readiness, run status and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/dankkom/inmet-bdmep-data/internal/adapter/http"
	"github.com/dankkom/inmet-bdmep-data/internal/adapter/inmet"
	kafkaadapter "github.com/dankkom/inmet-bdmep-data/internal/adapter/kafka"
	"github.com/dankkom/inmet-bdmep-data/internal/adapter/objectstore"
	"github.com/dankkom/inmet-bdmep-data/internal/adapter/sink"
	"github.com/dankkom/inmet-bdmep-data/internal/archive"
	"github.com/dankkom/inmet-bdmep-data/internal/config"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
	"github.com/dankkom/inmet-bdmep-data/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if len(cfg.Years) == 0 {
		logger.Error("YEARS is required, e.g. YEARS=2000:2024")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer, err := sink.New(cfg.OutputFormat)
	if err != nil {
		logger.Error("invalid output format", "error", err)
		os.Exit(1)
	}

	opts := pipeline.ExportOptions{
		OutputDir:       cfg.OutputDir,
		Level:           cfg.PartitionLevel,
		IncludeMetadata: cfg.IncludeMetadata,
		Writer:          writer,
	}

	// Optional object storage (MINIO_ENDPOINT / MINIO_ENABLED).
	if cfg.MinioEnabled {
		uploader, err := objectstore.NewUploader(ctx, objectstore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.MinioPrefix,
			Region:    cfg.MinioRegion,
		}, logger, metrics)
		if err != nil {
			logger.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		opts.Uploader = uploader
		logger.Info("object storage upload enabled", "bucket", cfg.MinioBucket, "prefix", cfg.MinioPrefix)
	} else {
		logger.Info("object storage upload disabled")
	}

	// Optional Kafka publication (KAFKA_ENABLED).
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		opts.Publisher = publisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("kafka publishing disabled")
	}

	fetcher := inmet.NewFetcher(cfg.SourceBaseURL, cfg.FetchTimeout, logger, metrics)
	exporter := pipeline.NewExporter(archive.NewAggregator(logger, metrics), opts, logger, metrics)
	p := pipeline.New(fetcher, exporter, pipeline.Options{
		DataDir:         cfg.DataDir,
		ContinueOnError: cfg.ContinueOnError,
	}, logger, metrics)

	scheduler, err := pipeline.NewScheduler(cfg.Schedule, logger)
	if err != nil {
		logger.Error("invalid SCHEDULE", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	run := func(ctx context.Context) {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		if _, err := p.RunYears(runCtx, cfg.Years); err != nil && ctx.Err() == nil {
			logger.Error("run failed", "error", err)
		}
	}

	// Initial run, then the schedule.
	go func() {
		run(ctx)
		scheduler.Run(ctx, run)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
