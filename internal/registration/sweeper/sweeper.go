// Package sweeper purges provisional registrations that outlived the
// retention window on a fixed schedule.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"

	"confreg/internal/platform/metrics"
)

const jobKey = "provisional-sweep"

// Purger deletes provisional records created at or before cutoff.
type Purger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper runs Purger on a quartz simple trigger.
type Sweeper struct {
	purger      Purger
	retention   time.Duration
	interval    time.Duration
	stopTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// New creates a sweeper. A non-positive retention disables purging.
func New(purger Purger, retention, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		purger:      purger,
		retention:   retention,
		interval:    interval,
		stopTimeout: 5 * time.Second,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs one purge pass and returns the number of records removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	n, err := s.purger.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "provisional sweep failed", "cutoff", cutoff, "error", err)
		return n, err
	}
	s.metrics.AddPurged(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "provisional registrations purged", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run schedules Sweep every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.retention <= 0 || s.interval <= 0 {
		s.logger.InfoContext(ctx, "provisional sweeper disabled")
		<-ctx.Done()
		return nil
	}

	scheduler, err := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	scheduler.Start(ctx)

	sweep := job.NewFunctionJob[bool](func(ctx context.Context) (bool, error) {
		_, err := s.Sweep(ctx)
		return err == nil, err
	})
	detail := quartz.NewJobDetail(sweep, quartz.NewJobKey(jobKey))
	if err := scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(s.interval)); err != nil {
		scheduler.Stop()
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.logger.InfoContext(ctx, "provisional sweeper started", "interval", s.interval, "retention", s.retention)

	<-ctx.Done()
	_ = scheduler.Clear()
	scheduler.Stop()
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.stopTimeout)
	defer cancel()
	scheduler.Wait(waitCtx)
	s.logger.InfoContext(ctx, "provisional sweeper stopped")
	return nil
}
