// Package handler provides HTTP handlers for the PulseWatch API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/api/models"
	"github.com/pulsewatch/pulsewatch/internal/api/response"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
}

// NewOpsHandler creates a new OpsHandler. The pinger may be nil, in which
// case readiness reports only the process itself.
func NewOpsHandler(version, buildTime string, db Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Reports 503 when the database is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		subsystem := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			subsystem.Status = models.HealthStatusFail
			subsystem.Detail = &detail
			ready.Status = models.HealthStatusFail
		}
		ready.Subsystems = append(ready.Subsystems, subsystem)
	}

	code := http.StatusOK
	if ready.Status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, ready)
}
