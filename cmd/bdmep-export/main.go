// Command bdmep-export decodes one BDMEP archive and writes it partitioned
// by calendar period.
//
// Usage:
//
//	go run ./cmd/bdmep-export -level month -format csv -out data/processed data/raw/inmet-bdmep_2020_20240102.zip
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dankkom/inmet-bdmep-data/internal/adapter/sink"
	"github.com/dankkom/inmet-bdmep-data/internal/archive"
	"github.com/dankkom/inmet-bdmep-data/internal/config"
	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
	"github.com/dankkom/inmet-bdmep-data/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bdmep-export:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := flag.String("level", cfg.PartitionLevel.String(), "partition level: year, month or day")
	format := flag.String("format", cfg.OutputFormat, "output format: csv, xlsx, sqlite or parquet")
	out := flag.String("out", cfg.OutputDir, "output directory")
	metadata := flag.Bool("metadata", cfg.IncludeMetadata, "write every station column, not only codigo_wmo")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: bdmep-export [flags] ARCHIVE.zip ...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no archive given")
	}

	granularity, err := domain.ParseGranularity(*level)
	if err != nil {
		return err
	}
	if err := config.ValidateLayout(*format, granularity); err != nil {
		return err
	}
	writer, err := sink.New(*format)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	exporter := pipeline.NewExporter(archive.NewAggregator(logger, metrics), pipeline.ExportOptions{
		OutputDir:       *out,
		Level:           granularity,
		IncludeMetadata: *metadata,
		Writer:          writer,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, path := range flag.Args() {
		files, err := exporter.Export(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
	}
	return nil
}
