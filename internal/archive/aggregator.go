// Package archive decodes whole yearly BDMEP archives into one dataset.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// MemberError names the archive member whose decode aborted the aggregation.
type MemberError struct {
	Member string
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %s: %v", e.Member, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

// Aggregator runs the metadata and record parsers over every member of an
// archive and concatenates the results.
type Aggregator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAggregator creates an Aggregator with the given observability.
func NewAggregator(logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{logger: logger, metrics: metrics}
}

// ReadFile opens the ZIP archive at path and decodes it with Read.
func (a *Aggregator) ReadFile(ctx context.Context, path string) (domain.Dataset, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	return a.Read(ctx, &zr.Reader)
}

// Read decodes every file member of zr, in archive order. Directory entries
// are skipped. The first member that fails to decode aborts the whole read
// with a *MemberError; no partial dataset is returned.
func (a *Aggregator) Read(ctx context.Context, zr *zip.Reader) (domain.Dataset, error) {
	var dataset domain.Dataset
	members := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.Dataset{}, err
		}

		a.logger.Debug("decoding member", "member", f.Name, "index", members+1, "total", len(zr.File))
		table, err := a.readMember(f)
		if err != nil {
			a.metrics.DecodeErrors.Inc()
			return domain.Dataset{}, &MemberError{Member: f.Name, Err: err}
		}

		dataset.Append(table.Rows...)
		members++
		a.metrics.MembersDecoded.Inc()
		a.metrics.RowsDecoded.Add(float64(len(table.Rows)))
		a.metrics.RowsDropped.Add(float64(table.Dropped))
	}

	a.logger.Info("archive decoded", "members", members, "rows", dataset.Len())
	return dataset, nil
}

// readMember opens the entry once per parser: the first read consumes the
// station header, the second skips it and decodes the table.
func (a *Aggregator) readMember(f *zip.File) (domain.Table, error) {
	station, err := withEntry(f, func(r io.Reader) (domain.StationMetadata, error) {
		return domain.ParseMetadata(domain.NewSourceReader(r), a.logger.With("member", f.Name))
	})
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse metadata: %w", err)
	}

	table, err := withEntry(f, func(r io.Reader) (domain.Table, error) {
		br := domain.NewSourceReader(r)
		if err := domain.SkipLines(br, domain.DefaultSchema().MetadataLines); err != nil {
			return domain.Table{}, err
		}
		return domain.ParseObservations(br)
	})
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse observations: %w", err)
	}

	meta := &station
	for i := range table.Rows {
		table.Rows[i].Station = meta
	}
	return table, nil
}

func withEntry[T any](f *zip.File, fn func(io.Reader) (T, error)) (T, error) {
	rc, err := f.Open()
	if err != nil {
		var zero T
		return zero, err
	}
	defer rc.Close()
	return fn(rc)
}
