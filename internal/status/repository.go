package status

import (
	"context"
	"time"
)

// ListOptions contains options for listing incidents.
type ListOptions struct {
	Limit  int
	Cursor string
}

// IncidentPage contains one page of incidents in row-key order.
type IncidentPage struct {
	Items      []*Incident
	NextCursor string
}

// IncidentRepository defines the interface for incident persistence.
type IncidentRepository interface {
	// LatestForDay retrieves the most recent incident for the target on the
	// given UTC calendar day: latest End wins, then latest Start, then
	// latest row key. Returns ErrIncidentNotFound when the day has no
	// incidents yet.
	LatestForDay(ctx context.Context, target string, day time.Time) (*Incident, error)

	// ListForDay retrieves incidents for the target on the given UTC
	// calendar day, ordered by row key ascending, with cursor pagination.
	ListForDay(ctx context.Context, target string, day time.Time, opts ListOptions) (*IncidentPage, error)

	// Upsert persists the incident with a conditional write. An incident
	// with Version zero is inserted; otherwise the stored row is updated
	// only if its version still matches. Returns ErrVersionConflict when
	// another writer got there first; on success the incident's Version is
	// advanced.
	Upsert(ctx context.Context, incident *Incident) error
}

// ReportRepository defines the interface for daily report persistence.
type ReportRepository interface {
	// Insert stores a new daily report. Returns ErrReportExists if a report
	// for the same target and day was already generated.
	Insert(ctx context.Context, report *DailyStatusReport) error

	// GetByDay retrieves the report for the target on the given UTC
	// calendar day. Returns ErrReportNotFound if none has been generated.
	GetByDay(ctx context.Context, target string, day time.Time) (*DailyStatusReport, error)
}

// ComponentHealthRepository defines the interface for per-component
// sub-check telemetry. Writes are best-effort.
type ComponentHealthRepository interface {
	// InsertBatch stores one probe cycle's component results.
	InsertBatch(ctx context.Context, components []*ComponentHealth) error
}
