package status

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of IncidentRepository,
// ReportRepository and ComponentHealthRepository. This is intended for
// testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu         sync.RWMutex
	incidents  map[string]*Incident
	reports    map[string]*DailyStatusReport
	components []*ComponentHealth
}

// NewInMemoryRepository creates a new in-memory status repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		incidents: make(map[string]*Incident),
		reports:   make(map[string]*DailyStatusReport),
	}
}

// LatestForDay retrieves the most recent incident for the target and day.
func (r *InMemoryRepository) LatestForDay(_ context.Context, target string, day time.Time) (*Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Incident
	for _, inc := range r.incidents {
		if !r.matches(inc, target, day) {
			continue
		}
		if latest == nil || moreRecent(inc, latest) {
			latest = inc
		}
	}

	if latest == nil {
		return nil, ErrIncidentNotFound
	}

	cpy := *latest
	return &cpy, nil
}

// moreRecent reports whether a supersedes b: later End wins, then later
// Start, then later row key. Deterministic for any input pair.
func moreRecent(a, b *Incident) bool {
	if !a.End.Equal(b.End) {
		return a.End.After(b.End)
	}
	if !a.Start.Equal(b.Start) {
		return a.Start.After(b.Start)
	}
	return a.RowKey > b.RowKey
}

// ListForDay retrieves incidents for the target and day in row-key order.
func (r *InMemoryRepository) ListForDay(_ context.Context, target string, day time.Time, opts ListOptions) (*IncidentPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var matched []*Incident
	for _, inc := range r.incidents {
		if !r.matches(inc, target, day) {
			continue
		}
		if opts.Cursor != "" && inc.RowKey <= opts.Cursor {
			continue
		}
		cpy := *inc
		matched = append(matched, &cpy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RowKey < matched[j].RowKey
	})

	page := &IncidentPage{Items: matched}
	if len(matched) > limit {
		page.Items = matched[:limit]
		page.NextCursor = matched[limit-1].RowKey
	}

	return page, nil
}

// Upsert persists the incident with version checking.
func (r *InMemoryRepository) Upsert(_ context.Context, incident *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := incident.Target + "/" + incident.RowKey
	existing, ok := r.incidents[key]

	if incident.Version == 0 {
		if ok {
			return ErrVersionConflict
		}
	} else {
		if !ok || existing.Version != incident.Version {
			return ErrVersionConflict
		}
	}

	incident.Version++
	cpy := *incident
	r.incidents[key] = &cpy
	return nil
}

func (r *InMemoryRepository) matches(inc *Incident, target string, day time.Time) bool {
	day = day.UTC()
	return inc.Target == target &&
		inc.Day == day.Day() &&
		inc.Month == int(day.Month()) &&
		inc.Year == day.Year()
}

// Insert stores a new daily report.
func (r *InMemoryRepository) Insert(_ context.Context, report *DailyStatusReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := report.Target + "/" + report.RowKey
	if _, ok := r.reports[key]; ok {
		return ErrReportExists
	}

	cpy := *report
	r.reports[key] = &cpy
	return nil
}

// GetByDay retrieves the report for the target and day.
func (r *InMemoryRepository) GetByDay(_ context.Context, target string, day time.Time) (*DailyStatusReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[target+"/"+DayKey(day)]
	if !ok {
		return nil, ErrReportNotFound
	}

	cpy := *report
	return &cpy, nil
}

// InsertBatch stores one probe cycle's component results.
func (r *InMemoryRepository) InsertBatch(_ context.Context, components []*ComponentHealth) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range components {
		cpy := *c
		r.components = append(r.components, &cpy)
	}
	return nil
}

// Components returns all recorded component results.
func (r *InMemoryRepository) Components() []*ComponentHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ComponentHealth, 0, len(r.components))
	for _, c := range r.components {
		cpy := *c
		out = append(out, &cpy)
	}
	return out
}

// Ensure InMemoryRepository implements the repository interfaces.
var (
	_ IncidentRepository        = (*InMemoryRepository)(nil)
	_ ReportRepository          = (*InMemoryRepository)(nil)
	_ ComponentHealthRepository = (*InMemoryRepository)(nil)
)
