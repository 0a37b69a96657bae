package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/api/models"
	"github.com/pulsewatch/pulsewatch/internal/api/response"
	"github.com/pulsewatch/pulsewatch/internal/status"
)

// ReportStore reads generated daily reports.
type ReportStore interface {
	GetByDay(ctx context.Context, target string, day time.Time) (*status.DailyStatusReport, error)
}

// ReportGenerator aggregates one day's incidents into a report.
type ReportGenerator interface {
	Aggregate(ctx context.Context, target string, day time.Time) (*status.DailyStatusReport, error)
}

// ReportHandler handles daily report endpoints.
type ReportHandler struct {
	target    string
	store     ReportStore
	generator ReportGenerator
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(target string, store ReportStore, generator ReportGenerator) *ReportHandler {
	return &ReportHandler{
		target:    target,
		store:     store,
		generator: generator,
	}
}

// GetDailyReport handles GET /v1/reports/daily?date=YYYY-MM-DD.
// The date defaults to the current UTC day.
func (h *ReportHandler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r, time.Now().UTC())
	if !ok {
		return
	}

	report, err := h.store.GetByDay(r.Context(), h.target, day)
	if err != nil {
		if errors.Is(err, status.ErrReportNotFound) {
			response.NotFound(w, r, "no report generated for "+status.DayKey(day))
			return
		}
		response.InternalError(w, r, "failed to load report")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewDailyReport(report))
}

// GenerateDailyReport handles POST /v1/reports/daily?date=YYYY-MM-DD.
// The date defaults to the previous UTC day, matching the scheduled job.
func (h *ReportHandler) GenerateDailyReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r, time.Now().UTC().AddDate(0, 0, -1))
	if !ok {
		return
	}

	report, err := h.generator.Aggregate(r.Context(), h.target, day)
	if err != nil {
		if errors.Is(err, status.ErrReportExists) {
			response.Conflict(w, r, "report for "+status.DayKey(day)+" already generated")
			return
		}
		response.ServiceUnavailable(w, r, "report generation failed")
		return
	}

	response.Created(w, r, "/v1/reports/daily?date="+day.Format("2006-01-02"), models.NewDailyReport(report))
}

// parseDate reads the optional date query parameter. A write has already
// happened when ok is false.
func (h *ReportHandler) parseDate(w http.ResponseWriter, r *http.Request, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return fallback, true
	}

	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		response.BadRequest(w, r, "invalid date", []models.FieldError{
			{Field: "date", Message: "must be formatted as YYYY-MM-DD", Code: "format"},
		})
		return time.Time{}, false
	}
	return day, true
}
