package status

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of IncidentRepository,
// ReportRepository and ComponentHealthRepository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL status repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// LatestForDay retrieves the most recent incident for the target and day.
func (r *PostgresRepository) LatestForDay(ctx context.Context, target string, day time.Time) (*Incident, error) {
	day = day.UTC()

	query := `
		SELECT target, row_key, category, start_at, end_at, day, month, year, version
		FROM incidents
		WHERE target = $1 AND day = $2 AND month = $3 AND year = $4
		ORDER BY end_at DESC, start_at DESC, row_key DESC
		LIMIT 1
	`

	var incident Incident
	err := r.pool.QueryRow(ctx, query, target, day.Day(), int(day.Month()), day.Year()).Scan(
		&incident.Target,
		&incident.RowKey,
		&incident.Category,
		&incident.Start,
		&incident.End,
		&incident.Day,
		&incident.Month,
		&incident.Year,
		&incident.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}

	return &incident, nil
}

// ListForDay retrieves incidents for the target and day in row-key order.
func (r *PostgresRepository) ListForDay(ctx context.Context, target string, day time.Time, opts ListOptions) (*IncidentPage, error) {
	day = day.UTC()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT target, row_key, category, start_at, end_at, day, month, year, version
		FROM incidents
		WHERE target = $1 AND day = $2 AND month = $3 AND year = $4 AND row_key > $5
		ORDER BY row_key ASC
		LIMIT $6
	`

	rows, err := r.pool.Query(ctx, query, target, day.Day(), int(day.Month()), day.Year(), opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		var incident Incident
		err := rows.Scan(
			&incident.Target,
			&incident.RowKey,
			&incident.Category,
			&incident.Start,
			&incident.End,
			&incident.Day,
			&incident.Month,
			&incident.Year,
			&incident.Version,
		)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, &incident)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &IncidentPage{Items: incidents}
	if len(incidents) > limit {
		page.Items = incidents[:limit]
		page.NextCursor = incidents[limit-1].RowKey
	}

	return page, nil
}

// Upsert persists the incident with a conditional write. New incidents
// (Version zero) insert-or-fail; extensions update only while the stored
// version still matches what the caller read.
func (r *PostgresRepository) Upsert(ctx context.Context, incident *Incident) error {
	if incident.Version == 0 {
		query := `
			INSERT INTO incidents (target, row_key, category, start_at, end_at, day, month, year, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (target, row_key) DO NOTHING
		`

		result, err := r.pool.Exec(ctx, query,
			incident.Target,
			incident.RowKey,
			incident.Category,
			incident.Start,
			incident.End,
			incident.Day,
			incident.Month,
			incident.Year,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrVersionConflict
		}

		incident.Version = 1
		return nil
	}

	query := `
		UPDATE incidents
		SET category = $3, end_at = $4, version = version + 1
		WHERE target = $1 AND row_key = $2 AND version = $5
	`

	result, err := r.pool.Exec(ctx, query,
		incident.Target,
		incident.RowKey,
		incident.Category,
		incident.End,
		incident.Version,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	incident.Version++
	return nil
}

// Insert stores a new daily report.
func (r *PostgresRepository) Insert(ctx context.Context, report *DailyStatusReport) error {
	query := `
		INSERT INTO daily_status_reports (target, row_key, uptime_ms, downtime_ms, maintenance_ms, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (target, row_key) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		report.Target,
		report.RowKey,
		report.UptimeMs,
		report.DowntimeMs,
		report.MaintenanceMs,
		report.GeneratedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReportExists
	}

	return nil
}

// GetByDay retrieves the report for the target and day.
func (r *PostgresRepository) GetByDay(ctx context.Context, target string, day time.Time) (*DailyStatusReport, error) {
	query := `
		SELECT target, row_key, uptime_ms, downtime_ms, maintenance_ms, generated_at
		FROM daily_status_reports
		WHERE target = $1 AND row_key = $2
	`

	var report DailyStatusReport
	err := r.pool.QueryRow(ctx, query, target, DayKey(day)).Scan(
		&report.Target,
		&report.RowKey,
		&report.UptimeMs,
		&report.DowntimeMs,
		&report.MaintenanceMs,
		&report.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	return &report, nil
}

// InsertBatch stores one probe cycle's component results in a single batch.
func (r *PostgresRepository) InsertBatch(ctx context.Context, components []*ComponentHealth) error {
	if len(components) == 0 {
		return nil
	}

	query := `
		INSERT INTO component_health (observed_at, test_type, test_detail, service_available, time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, c := range components {
		batch.Queue(query, c.ObservedAt, c.TestType, c.TestDetail, c.ServiceAvailable, c.TimeMs)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range components {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// Ensure PostgresRepository implements the repository interfaces.
var (
	_ IncidentRepository        = (*PostgresRepository)(nil)
	_ ReportRepository          = (*PostgresRepository)(nil)
	_ ComponentHealthRepository = (*PostgresRepository)(nil)
)
