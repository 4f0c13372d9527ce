// Command bdmep-fetch downloads yearly BDMEP archives.
//
// Usage:
//
//	go run ./cmd/bdmep-fetch -dir data/raw 2000:2003 2010
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dankkom/inmet-bdmep-data/internal/adapter/inmet"
	"github.com/dankkom/inmet-bdmep-data/internal/config"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bdmep-fetch:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := flag.String("dir", cfg.DataDir, "directory the archives are stored in")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: bdmep-fetch [-dir DIR] YEAR|FROM:TO ...")
		flag.PrintDefaults()
	}
	flag.Parse()

	years := cfg.Years
	if flag.NArg() > 0 {
		years, err = config.ExpandYears(strings.Join(flag.Args(), " "))
		if err != nil {
			return err
		}
	}
	if len(years) == 0 {
		flag.Usage()
		return fmt.Errorf("no years given")
	}

	logger := observability.NewLogger(cfg)
	fetcher := inmet.NewFetcher(cfg.SourceBaseURL, cfg.FetchTimeout, logger, observability.NewMetrics())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, year := range years {
		path, err := fetcher.Fetch(ctx, year, *dir)
		if err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
		fmt.Println(path)
	}
	return nil
}
