package status

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AggregatorConfig holds configuration for the daily aggregator.
type AggregatorConfig struct {
	Incidents IncidentRepository
	Reports   ReportRepository
	Logger    zerolog.Logger

	// PageSize bounds how many incidents are fetched per repository page.
	// Default: 200.
	PageSize int
}

// Aggregator reduces a day's incident log into one DailyStatusReport. It
// reads incidents only and is the sole writer of reports.
type Aggregator struct {
	incidents IncidentRepository
	reports   ReportRepository
	logger    zerolog.Logger
	pageSize  int
}

// NewAggregator creates a new daily aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	return &Aggregator{
		incidents: cfg.Incidents,
		reports:   cfg.Reports,
		logger:    cfg.Logger.With().Str("component", "aggregator").Logger(),
		pageSize:  pageSize,
	}
}

// Aggregate computes and stores the report for the target on the given UTC
// calendar day. Incident durations are summed into uptime (OK), maintenance
// (TIMEOUT) and downtime (everything else). Incidents are attributed by
// their denormalized start date, so a span crossing midnight counts wholly
// toward the day it started on and a day's totals can exceed 24 hours.
//
// A day without incidents legitimately yields a zero report; a failed read
// yields an error, never a silent zero report. Re-aggregating an already
// reported day returns ErrReportExists.
func (a *Aggregator) Aggregate(ctx context.Context, target string, day time.Time) (*DailyStatusReport, error) {
	day = day.UTC()

	incidents, err := a.listAll(ctx, target, day)
	if err != nil {
		return nil, fmt.Errorf("list incidents for %s: %w", DayKey(day), err)
	}

	report := &DailyStatusReport{
		Target:      target,
		RowKey:      DayKey(day),
		GeneratedAt: time.Now().UTC(),
	}

	for _, incident := range incidents {
		ms := incident.Duration().Milliseconds()
		switch incident.Category {
		case CategoryOK:
			report.UptimeMs += ms
		case CategoryTimeout:
			report.MaintenanceMs += ms
		default:
			report.DowntimeMs += ms
		}
	}

	if err := a.reports.Insert(ctx, report); err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("target", target).
		Str("day", report.RowKey).
		Int("incidents", len(incidents)).
		Int64("uptime_ms", report.UptimeMs).
		Int64("downtime_ms", report.DowntimeMs).
		Int64("maintenance_ms", report.MaintenanceMs).
		Msg("daily report generated")

	return report, nil
}

// Report retrieves a previously generated report for the target and day.
func (a *Aggregator) Report(ctx context.Context, target string, day time.Time) (*DailyStatusReport, error) {
	return a.reports.GetByDay(ctx, target, day.UTC())
}

// listAll accumulates every incident page for the day before reducing.
func (a *Aggregator) listAll(ctx context.Context, target string, day time.Time) ([]*Incident, error) {
	var all []*Incident
	cursor := ""

	for {
		page, err := a.incidents.ListForDay(ctx, target, day, ListOptions{
			Limit:  a.pageSize,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return all, nil
}
