// Package monitor orchestrates one probe cycle: probe the target, classify
// the outcome, record per-component telemetry and consolidate the incident
// ledger.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pulsewatch/pulsewatch/internal/resilience"
	"github.com/pulsewatch/pulsewatch/internal/status"
)

// Prober abstracts the outbound health check.
type Prober interface {
	Check(ctx context.Context) (status.Outcome, []*status.ComponentHealth)
}

// Config holds configuration for the monitor.
type Config struct {
	// Target identifies the monitored entity, e.g. "ENGINE".
	Target string

	Prober     Prober
	Ledger     *status.Ledger
	Components status.ComponentHealthRepository
	Logger     zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Monitor runs probe cycles. Each cycle is a short-lived, self-contained
// invocation: no state survives between cycles except what the store holds.
type Monitor struct {
	target     string
	prober     Prober
	ledger     *status.Ledger
	components status.ComponentHealthRepository
	breaker    *gobreaker.CircuitBreaker[struct{}]
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a new monitor.
func New(cfg Config) *Monitor {
	logger := cfg.Logger.With().Str("component", "monitor").Logger()

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	// Component detail is write-only telemetry. The breaker keeps a down
	// store from adding write latency to every cycle; dropped detail rows
	// are acceptable, a delayed consolidation is not.
	breakerCfg := resilience.DefaultCircuitBreakerConfig("component-health")
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("component telemetry breaker state changed")
	}

	return &Monitor{
		target:     cfg.Target,
		prober:     cfg.Prober,
		ledger:     cfg.Ledger,
		components: cfg.Components,
		breaker:    resilience.NewCircuitBreaker[struct{}](breakerCfg),
		logger:     logger,
		now:        now,
	}
}

// RunCycle performs one probe-and-consolidate cycle. A returned error means
// the observation could not be persisted and is dropped; there is no retry
// queue, the next scheduled cycle starts from whatever the store holds then.
func (m *Monitor) RunCycle(ctx context.Context) error {
	observedAt := m.now().UTC()

	outcome, components := m.prober.Check(ctx)
	category := status.Classify(outcome)

	m.recordComponents(ctx, observedAt, components)

	incident, err := m.ledger.Consolidate(ctx, m.target, category, observedAt)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("target", m.target).
			Str("category", string(category)).
			Time("observed_at", observedAt).
			Msg("observation dropped, consolidation failed")
		return fmt.Errorf("run probe cycle: %w", err)
	}

	m.logger.Debug().
		Str("target", m.target).
		Str("category", string(category)).
		Str("row_key", incident.RowKey).
		Msg("probe cycle completed")

	return nil
}

// recordComponents stores the cycle's sub-check detail, best effort.
func (m *Monitor) recordComponents(ctx context.Context, observedAt time.Time, components []*status.ComponentHealth) {
	if len(components) == 0 {
		return
	}

	for _, c := range components {
		c.ObservedAt = observedAt
	}

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.components.InsertBatch(ctx, components)
	})
	if err != nil {
		m.logger.Warn().
			Err(err).
			Int("components", len(components)).
			Msg("component telemetry dropped")
	}
}
