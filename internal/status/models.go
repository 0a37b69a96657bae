// Package status provides the core status-incident domain: classification of
// probe outcomes, consolidation of observations into incidents, and daily
// aggregation into uptime reports.
package status

import (
	"errors"
	"fmt"
	"time"
)

// Repository errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrVersionConflict  = errors.New("incident version conflict")
	ErrReportNotFound   = errors.New("daily report not found")
	ErrReportExists     = errors.New("daily report already exists")
)

// Category represents the health status of the monitored target at a point
// in time. The set is closed; values are derived from probe outcomes and
// never user-supplied.
type Category string

const (
	CategoryOK      Category = "OK"
	CategoryError   Category = "ERROR"
	CategoryTimeout Category = "TIMEOUT"
)

// Incident represents one contiguous time span during which the monitored
// target held a single status category. Incidents are append/extend only;
// they are never deleted.
type Incident struct {
	// Target identifies the monitored entity.
	Target string

	// RowKey is the ordering key: day prefix plus the start instant in
	// nanoseconds, so incidents within a day sort by start time and are
	// range-queryable per day.
	RowKey string

	Category Category

	// Start is the first observation of the span; End is the most recent
	// observation confirming the span continues.
	Start time.Time
	End   time.Time

	// Denormalized date components of Start, used as query filters.
	Day   int
	Month int
	Year  int

	// Version is the optimistic-concurrency token. Zero means the incident
	// has not been persisted yet.
	Version int64
}

// NewIncident creates a fresh incident for a single observation. Start and
// End are both set to observedAt; the row key is derived from the UTC date
// and the observation instant.
func NewIncident(target string, category Category, observedAt time.Time) *Incident {
	observedAt = observedAt.UTC()
	return &Incident{
		Target:   target,
		RowKey:   fmt.Sprintf("%s-%d", DayKey(observedAt), observedAt.UnixNano()),
		Category: category,
		Start:    observedAt,
		End:      observedAt,
		Day:      observedAt.Day(),
		Month:    int(observedAt.Month()),
		Year:     observedAt.Year(),
	}
}

// Duration returns the length of the incident span. A single observation has
// zero duration but still represents a real data point.
func (i *Incident) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// DayKey returns the day component of an ordering key, e.g. "2026-8-30".
// Months and days are unpadded so the key matches the denormalized date
// fields rather than lexicographic calendar order across months.
func DayKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// DailyStatusReport holds the summed durations per category for one
// (target, calendar day) pair, in milliseconds.
type DailyStatusReport struct {
	Target        string
	RowKey        string
	UptimeMs      int64
	DowntimeMs    int64
	MaintenanceMs int64
	GeneratedAt   time.Time
}

// ComponentHealth is one per-component sub-check result reported by the
// health endpoint. These rows are write-only telemetry; consolidation does
// not depend on them.
type ComponentHealth struct {
	ObservedAt       time.Time
	TestType         string
	TestDetail       string
	ServiceAvailable bool
	TimeMs           float64
}
