// Package inmet downloads the yearly BDMEP archives from the INMET portal.
package inmet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// ErrNoArchive reports a year the source does not publish.
var ErrNoArchive = errors.New("no archive published")

// Fetcher resolves a year to a local copy of its archive.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher for archives published under baseURL as
// {baseURL}/{year}.zip.
func NewFetcher(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// LocalName is the file name an archive is stored under: the year plus the
// day the source last modified it.
func LocalName(year int, lastModified time.Time) string {
	return fmt.Sprintf("inmet-bdmep_%d_%s.zip", year, lastModified.UTC().Format("20060102"))
}

// Fetch makes sure the archive for year exists in dir and returns its path.
// A file already present under the expected name with the remote size is
// reused. Downloads go to a temporary file that is renamed into place only
// once complete.
func (f *Fetcher) Fetch(ctx context.Context, year int, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	url := fmt.Sprintf("%s/%d.zip", f.baseURL, year)
	lastModified, size, err := f.head(ctx, url)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, LocalName(year, lastModified))
	if st, err := os.Stat(path); err == nil && size >= 0 && st.Size() == size {
		f.logger.Info("archive up to date", "year", year, "path", path, "bytes", size)
		f.metrics.ArchivesFetched.WithLabelValues("cached").Inc()
		return path, nil
	}

	start := f.clock.Now()
	n, err := f.download(ctx, url, path, size)
	if err != nil {
		return "", err
	}
	f.metrics.ArchivesFetched.WithLabelValues("downloaded").Inc()
	f.metrics.FetchBytes.Add(float64(n))
	f.logger.Info("archive downloaded",
		"year", year,
		"path", path,
		"bytes", n,
		"duration", f.clock.Since(start),
	)
	return path, nil
}

// head returns the archive's modification time and size. A missing or
// unparseable Last-Modified falls back to the current day; an unknown size
// is -1.
func (f *Fetcher) head(ctx context.Context, url string) (time.Time, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("head %s: %w", url, err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return time.Time{}, 0, fmt.Errorf("head %s: %w", url, ErrNoArchive)
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, 0, fmt.Errorf("head %s: unexpected status %d", url, resp.StatusCode)
	}

	lastModified, err := http.ParseTime(resp.Header.Get("Last-Modified"))
	if err != nil {
		lastModified = f.clock.Now()
		f.logger.Warn("archive has no usable Last-Modified, using today",
			"url", url,
			"value", resp.Header.Get("Last-Modified"),
		)
	}
	return lastModified, resp.ContentLength, nil
}

func (f *Fetcher) download(ctx context.Context, url, path string, size int64) (n int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".inmet-bdmep-*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err = io.Copy(tmp, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	if size >= 0 && n != size {
		return n, fmt.Errorf("download %s: got %d bytes, want %d", url, n, size)
	}
	if err = tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("move archive into place: %w", err)
	}
	return n, nil
}
