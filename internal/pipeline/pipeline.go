package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Fetcher makes the archive of a year available locally.
type Fetcher interface {
	Fetch(ctx context.Context, year int, dir string) (string, error)
}

// ArchiveExporter writes the partitions of a local archive.
type ArchiveExporter interface {
	Export(ctx context.Context, archivePath string) ([]string, error)
}

// Options configures a Pipeline.
type Options struct {
	DataDir         string
	ContinueOnError bool

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// YearResult records what a run did for one year.
type YearResult struct {
	Year    int      `json:"year"`
	Archive string   `json:"archive,omitempty"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RunStatus summarizes one run over a list of years.
type RunStatus struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Years      []YearResult `json:"years"`
	Error      string       `json:"error,omitempty"`
}

// Failed reports whether any year of the run failed.
func (s RunStatus) Failed() bool {
	if s.Error != "" {
		return true
	}
	for _, y := range s.Years {
		if y.Error != "" {
			return true
		}
	}
	return false
}

// Pipeline fetches and exports archives year by year.
type Pipeline struct {
	fetcher  Fetcher
	exporter ArchiveExporter
	opts     Options
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready   atomic.Bool
	running atomic.Bool

	mu   sync.Mutex
	last *RunStatus
}

// New creates a Pipeline with the given stages and observability.
func New(f Fetcher, e ArchiveExporter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		fetcher:  f,
		exporter: e,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one year has been exported,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no archive has been exported yet")
	}
	return nil
}

// Status returns the summary of the last completed run, or nil before the
// first one finishes.
func (p *Pipeline) Status() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	s := *p.last
	return s
}

// RunYears fetches and exports each year in order. By default the first
// failure aborts the run and is returned; with ContinueOnError failures are
// logged, recorded in the status and the next year proceeds.
func (p *Pipeline) RunYears(ctx context.Context, years []int) (RunStatus, error) {
	if !p.running.CompareAndSwap(false, true) {
		return RunStatus{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	status := RunStatus{RunID: uuid.NewString(), StartedAt: p.clock.Now()}
	ctx = WithRunID(ctx, status.RunID)
	logger := p.logger.With("run_id", status.RunID)

	logger.Info("run started", "years", years, "continue_on_error", p.opts.ContinueOnError)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var runErr error
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		result, err := p.runYear(ctx, year)
		status.Years = append(status.Years, result)
		if err == nil {
			p.ready.Store(true)
			continue
		}

		if !p.opts.ContinueOnError {
			runErr = err
			break
		}
		logger.Error("year failed, continuing", "year", year, "error", err)
	}

	status.FinishedAt = p.clock.Now()
	if runErr != nil {
		status.Error = runErr.Error()
	}
	p.metrics.RunDuration.Observe(status.FinishedAt.Sub(status.StartedAt).Seconds())
	if !status.Failed() {
		p.metrics.LastSuccess.Set(float64(status.FinishedAt.Unix()))
	}

	p.mu.Lock()
	p.last = &status
	p.mu.Unlock()

	logger.Info("run finished",
		"duration", status.FinishedAt.Sub(status.StartedAt),
		"years", len(status.Years),
		"failed", status.Failed(),
	)
	return status, runErr
}

func (p *Pipeline) runYear(ctx context.Context, year int) (YearResult, error) {
	result := YearResult{Year: year}

	path, err := p.fetcher.Fetch(ctx, year, p.opts.DataDir)
	if err != nil {
		err = fmt.Errorf("year %d: fetch: %w", year, err)
		result.Error = err.Error()
		return result, err
	}
	result.Archive = path

	files, err := p.exporter.Export(ctx, path)
	result.Files = files
	if err != nil {
		err = fmt.Errorf("year %d: export: %w", year, err)
		result.Error = err.Error()
		return result, err
	}
	return result, nil
}
