package models

import "github.com/pulsewatch/pulsewatch/internal/status"

// DailyReport represents an aggregated day of uptime figures for a target.
type DailyReport struct {
	Target        string    `json:"target"`
	Day           string    `json:"day"`
	UptimeMs      int64     `json:"uptimeMs"`
	DowntimeMs    int64     `json:"downtimeMs"`
	MaintenanceMs int64     `json:"maintenanceMs"`
	GeneratedAt   Timestamp `json:"generatedAt"`
}

// NewDailyReport converts a stored report into its API representation.
func NewDailyReport(r *status.DailyStatusReport) DailyReport {
	return DailyReport{
		Target:        r.Target,
		Day:           r.RowKey,
		UptimeMs:      r.UptimeMs,
		DowntimeMs:    r.DowntimeMs,
		MaintenanceMs: r.MaintenanceMs,
		GeneratedAt:   Timestamp(r.GeneratedAt),
	}
}
