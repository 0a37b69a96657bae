package status_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsewatch/pulsewatch/internal/status"
)

func newTestAggregator(repo *status.InMemoryRepository) *status.Aggregator {
	return status.NewAggregator(status.AggregatorConfig{
		Incidents: repo,
		Reports:   repo,
		Logger:    zerolog.Nop(),
	})
}

// seedIncident stores a closed incident spanning [start, end].
func seedIncident(t *testing.T, repo *status.InMemoryRepository, category status.Category, start, end time.Time) *status.Incident {
	t.Helper()
	incident := status.NewIncident(testTarget, category, start)
	incident.End = end.UTC()
	require.NoError(t, repo.Upsert(context.Background(), incident))
	return incident
}

func TestAggregator_Aggregate_Scenario(t *testing.T) {
	repo := status.NewInMemoryRepository()
	ledger := newTestLedger(repo)
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	// Probes at 00:00 OK, 00:15 OK, 00:30 ERROR, 00:45 OK.
	observations := []struct {
		category status.Category
		at       time.Time
	}{
		{status.CategoryOK, day},
		{status.CategoryOK, day.Add(15 * time.Minute)},
		{status.CategoryError, day.Add(30 * time.Minute)},
		{status.CategoryOK, day.Add(45 * time.Minute)},
	}
	for _, obs := range observations {
		_, err := ledger.Consolidate(ctx, testTarget, obs.category, obs.at)
		require.NoError(t, err)
	}

	report, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	// The later OK probe opens a fresh zero-duration incident; it is not
	// merged backward across the ERROR interruption.
	assert.Equal(t, int64(900000), report.UptimeMs)
	assert.Equal(t, int64(0), report.DowntimeMs)
	assert.Equal(t, int64(0), report.MaintenanceMs)
}

func TestAggregator_Aggregate_PartitionsAllDurations(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	seedIncident(t, repo, status.CategoryOK, day, day.Add(5*time.Hour))
	seedIncident(t, repo, status.CategoryError, day.Add(5*time.Hour), day.Add(11*time.Hour))
	seedIncident(t, repo, status.CategoryTimeout, day.Add(11*time.Hour), day.Add(11*time.Hour+30*time.Minute))
	seedIncident(t, repo, status.CategoryOK, day.Add(12*time.Hour), day.Add(14*time.Hour))

	report, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	assert.Equal(t, int64((5*time.Hour + 2*time.Hour).Milliseconds()), report.UptimeMs)
	assert.Equal(t, int64((6 * time.Hour).Milliseconds()), report.DowntimeMs)
	assert.Equal(t, int64((30 * time.Minute).Milliseconds()), report.MaintenanceMs)

	// Every incident duration lands in exactly one bucket.
	total := report.UptimeMs + report.DowntimeMs + report.MaintenanceMs
	assert.Equal(t, (13*time.Hour + 30*time.Minute).Milliseconds(), total)
}

func TestAggregator_Aggregate_CountsZeroDurationIncidents(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	at := day.Add(6 * time.Hour)
	seedIncident(t, repo, status.CategoryError, at, at)

	report, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.UptimeMs)
	assert.Equal(t, int64(0), report.DowntimeMs)
	assert.Equal(t, int64(0), report.MaintenanceMs)
}

func TestAggregator_Aggregate_MidnightCrossingAttributedToStartDay(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	dayD := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	dayNext := dayD.AddDate(0, 0, 1)

	// Starts 22:00 on day D, ends 03:00 on day D+1. The span is not split
	// at midnight; its full five hours belong to day D.
	seedIncident(t, repo, status.CategoryOK, dayD.Add(22*time.Hour), dayNext.Add(3*time.Hour))

	reportD, err := aggregator.Aggregate(ctx, testTarget, dayD)
	require.NoError(t, err)
	assert.Equal(t, (5 * time.Hour).Milliseconds(), reportD.UptimeMs)

	reportNext, err := aggregator.Aggregate(ctx, testTarget, dayNext)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reportNext.UptimeMs)
}

func TestAggregator_Aggregate_TotalsCanExceedTwentyFourHours(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	seedIncident(t, repo, status.CategoryOK, day, day.Add(20*time.Hour))
	// Crosses midnight: 20:00 day D to 08:00 day D+1.
	seedIncident(t, repo, status.CategoryError, day.Add(20*time.Hour), day.Add(32*time.Hour))

	report, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	total := report.UptimeMs + report.DowntimeMs + report.MaintenanceMs
	assert.Equal(t, (32 * time.Hour).Milliseconds(), total)
}

func TestAggregator_Aggregate_EmptyDayYieldsZeroReport(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	report, err := aggregator.Aggregate(context.Background(), testTarget, day)
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.UptimeMs)
	assert.Equal(t, int64(0), report.DowntimeMs)
	assert.Equal(t, int64(0), report.MaintenanceMs)
	assert.Equal(t, "2026-8-30", report.RowKey)
}

func TestAggregator_Aggregate_SecondRunConflicts(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	_, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	_, err = aggregator.Aggregate(ctx, testTarget, day)
	assert.ErrorIs(t, err, status.ErrReportExists)
}

func TestAggregator_Aggregate_AccumulatesAllPages(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := status.NewAggregator(status.AggregatorConfig{
		Incidents: repo,
		Reports:   repo,
		Logger:    zerolog.Nop(),
		PageSize:  2,
	})
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		start := day.Add(time.Duration(i) * time.Hour)
		seedIncident(t, repo, status.CategoryOK, start, start.Add(30*time.Minute))
	}

	report, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)
	assert.Equal(t, (150 * time.Minute).Milliseconds(), report.UptimeMs)
}

// failingIncidentRepository fails every read, simulating an unreachable store.
type failingIncidentRepository struct {
	status.IncidentRepository
}

var errStoreDown = errors.New("store unavailable")

func (r *failingIncidentRepository) ListForDay(context.Context, string, time.Time, status.ListOptions) (*status.IncidentPage, error) {
	return nil, errStoreDown
}

func TestAggregator_Aggregate_StoreFailureIsNotAZeroReport(t *testing.T) {
	inner := status.NewInMemoryRepository()
	aggregator := status.NewAggregator(status.AggregatorConfig{
		Incidents: &failingIncidentRepository{IncidentRepository: inner},
		Reports:   inner,
		Logger:    zerolog.Nop(),
	})

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	report, err := aggregator.Aggregate(context.Background(), testTarget, day)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Nil(t, report)

	// No report may be persisted for the failed run.
	_, err = inner.GetByDay(context.Background(), testTarget, day)
	assert.ErrorIs(t, err, status.ErrReportNotFound)
}

func TestAggregator_Report_RoundTrip(t *testing.T) {
	repo := status.NewInMemoryRepository()
	aggregator := newTestAggregator(repo)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	seedIncident(t, repo, status.CategoryOK, day, day.Add(time.Hour))

	created, err := aggregator.Aggregate(ctx, testTarget, day)
	require.NoError(t, err)

	fetched, err := aggregator.Report(ctx, testTarget, day)
	require.NoError(t, err)
	assert.Equal(t, created.UptimeMs, fetched.UptimeMs)
	assert.Equal(t, created.RowKey, fetched.RowKey)
}
