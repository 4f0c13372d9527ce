package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers a job on a cron schedule. Overlapping triggers are
// skipped while the previous job is still running.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewScheduler parses spec, which takes an optional leading seconds field
// ("0 0 3 * * *") or a descriptor such as "@daily".
func NewScheduler(spec string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, logger: logger}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run invokes job on every activation until ctx is cancelled, then waits for
// a running job to return.
func (s *Scheduler) Run(ctx context.Context, job func(context.Context)) {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { job(ctx) }))

	s.logger.Info("scheduler started", "schedule", s.spec, "next", s.Next(time.Now()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
