package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a job on a cron expression in a fixed time zone.
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	logger *slog.Logger
}

// NewScheduler parses expr (standard five-field cron) and registers job.
// Overlapping triggers are skipped while the previous job still runs.
func NewScheduler(expr string, loc *time.Location, job func(context.Context), logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &Scheduler{cron: c, logger: logger}
	id, err := c.AddFunc(expr, func() { job(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	s.entry = id
	return s, nil
}

// Next returns the next trigger time.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("report schedule started", "next", s.Next())
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron "+msg, append(keysAndValues, "error", err)...)
}
