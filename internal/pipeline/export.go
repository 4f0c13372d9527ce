package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dankkom/inmet-bdmep-data/internal/adapter/sink"
	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// ArchiveReader decodes a local archive into one dataset.
type ArchiveReader interface {
	ReadFile(ctx context.Context, path string) (domain.Dataset, error)
}

// Uploader copies a written partition file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Publisher sends decoded observations downstream.
type Publisher interface {
	Publish(ctx context.Context, runID string, d domain.Dataset) error
}

// ExportOptions configures an Exporter. Uploader and Publisher are optional.
type ExportOptions struct {
	OutputDir       string
	Level           domain.Granularity
	IncludeMetadata bool
	Writer          sink.Writer
	Uploader        Uploader
	Publisher       Publisher
}

// Exporter turns one archive into partition files.
type Exporter struct {
	reader  ArchiveReader
	opts    ExportOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExporter creates an Exporter reading archives with reader.
func NewExporter(reader ArchiveReader, opts ExportOptions, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{reader: reader, opts: opts, logger: logger, metrics: metrics}
}

// Export decodes the archive at archivePath, writes one file per partition
// into the output directory, then uploads and publishes when configured. It
// returns the written paths in partition order.
func (e *Exporter) Export(ctx context.Context, archivePath string) ([]string, error) {
	runID := RunIDFrom(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := e.logger.With("run_id", runID, "archive", filepath.Base(archivePath))

	dataset, err := e.reader.ReadFile(ctx, archivePath)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	format := e.opts.Writer.Format()
	var written []string
	for key, part := range domain.Partitions(dataset, e.opts.Level) {
		path := filepath.Join(e.opts.OutputDir, key.FileName(format))
		if err := e.opts.Writer.Write(ctx, path, sink.NewTable(part, e.opts.IncludeMetadata)); err != nil {
			return written, fmt.Errorf("write partition %s: %w", key, err)
		}
		e.metrics.PartitionsWritten.WithLabelValues(format).Inc()
		logger.Debug("partition written", "partition", key.String(), "rows", part.Len(), "path", path)
		written = append(written, path)

		if e.opts.Uploader != nil {
			if _, err := e.opts.Uploader.Upload(ctx, path); err != nil {
				return written, fmt.Errorf("upload partition %s: %w", key, err)
			}
		}
	}

	if e.opts.Publisher != nil {
		if err := e.opts.Publisher.Publish(ctx, runID, dataset); err != nil {
			return written, err
		}
	}

	logger.Info("archive exported",
		"rows", dataset.Len(),
		"partitions", len(written),
		"level", e.opts.Level.String(),
		"format", format,
	)
	return written, nil
}

type runIDKey struct{}

// WithRunID tags ctx with the identifier of the run it belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run identifier carried by ctx, if any.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
