package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/internal/scheduler"
	"github.com/pulsewatch/pulsewatch/internal/status"
)

type countingRunner struct {
	cycles atomic.Int64
}

func (r *countingRunner) RunCycle(context.Context) error {
	r.cycles.Add(1)
	return nil
}

type recordingAggregator struct {
	runs atomic.Int64
	day  atomic.Value
}

func (a *recordingAggregator) Aggregate(_ context.Context, _ string, day time.Time) (*status.DailyStatusReport, error) {
	a.day.Store(day)
	a.runs.Add(1)
	return &status.DailyStatusReport{}, nil
}

func TestScheduler_RunsProbeCycles(t *testing.T) {
	runner := &countingRunner{}
	aggregator := &recordingAggregator{}

	s, err := scheduler.New(scheduler.Config{
		Target:         "ENGINE",
		ProbeInterval:  10 * time.Millisecond,
		ReportSchedule: "0 0 * * *",
		Runner:         runner,
		Aggregator:     aggregator,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return runner.cycles.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_ReportJobAggregatesPreviousDay(t *testing.T) {
	runner := &countingRunner{}
	aggregator := &recordingAggregator{}

	s, err := scheduler.New(scheduler.Config{
		Target:         "ENGINE",
		ProbeInterval:  time.Hour,
		ReportSchedule: "@every 20ms",
		Runner:         runner,
		Aggregator:     aggregator,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return aggregator.runs.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	day, ok := aggregator.day.Load().(time.Time)
	require.True(t, ok)
	assert.Equal(t, status.DayKey(time.Now().UTC().AddDate(0, 0, -1)), status.DayKey(day))
}

func TestScheduler_RejectsInvalidReportSchedule(t *testing.T) {
	_, err := scheduler.New(scheduler.Config{
		Target:         "ENGINE",
		ProbeInterval:  time.Minute,
		ReportSchedule: "not a cron spec",
		Runner:         &countingRunner{},
		Aggregator:     &recordingAggregator{},
		Logger:         zerolog.Nop(),
	})
	assert.Error(t, err)
}
