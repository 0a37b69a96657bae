// Package scheduler wires the probe cycle and daily report generation onto a
// cron runner. Both jobs are fire-and-forget: failures are logged, never
// retried out of schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pulsewatch/pulsewatch/internal/status"
)

// CycleRunner runs one probe-and-consolidate cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// ReportGenerator aggregates one day's incidents into a report.
type ReportGenerator interface {
	Aggregate(ctx context.Context, target string, day time.Time) (*status.DailyStatusReport, error)
}

// Config holds configuration for the scheduler.
type Config struct {
	// Target identifies the monitored entity.
	Target string

	// ProbeInterval is the probe cadence, e.g. 15s.
	ProbeInterval time.Duration

	// ReportSchedule is a cron spec, evaluated in UTC. Each firing
	// aggregates the previous UTC day, so the default midnight schedule
	// reports on the day that just ended.
	ReportSchedule string

	Runner     CycleRunner
	Aggregator ReportGenerator
	Logger     zerolog.Logger

	// ReportTimeout bounds one aggregation run. Default: 1 minute.
	ReportTimeout time.Duration
}

// Scheduler drives the periodic probe and the daily report job.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// New creates a scheduler with both jobs registered but not yet running.
func New(cfg Config) (*Scheduler, error) {
	logger := cfg.Logger.With().Str("component", "scheduler").Logger()

	reportTimeout := cfg.ReportTimeout
	if reportTimeout == 0 {
		reportTimeout = time.Minute
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{logger})),
	)

	_, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.ProbeInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ProbeInterval)
		defer cancel()

		// The runner logs details itself; a failed cycle just means this
		// observation is absent from the ledger.
		_ = cfg.Runner.RunCycle(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("register probe job: %w", err)
	}

	_, err = c.AddFunc(cfg.ReportSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		day := time.Now().UTC().AddDate(0, 0, -1)
		if _, err := cfg.Aggregator.Aggregate(ctx, cfg.Target, day); err != nil {
			if errors.Is(err, status.ErrReportExists) {
				logger.Info().Str("day", status.DayKey(day)).Msg("daily report already generated")
				return
			}
			logger.Error().Err(err).Str("day", status.DayKey(day)).Msg("daily report generation failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register report job: %w", err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to the cron logger interface.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Interface("details", keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Interface("details", keysAndValues).Msg(msg)
}
