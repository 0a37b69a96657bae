package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// LedgerConfig holds configuration for the incident ledger.
type LedgerConfig struct {
	Incidents IncidentRepository
	Logger    zerolog.Logger

	// MaxRetries bounds how often a consolidation step is re-run after a
	// version conflict with a concurrent probe cycle. Default: 3.
	MaxRetries uint64

	// InitialInterval is the initial conflict-retry backoff interval.
	// Default: 50ms.
	InitialInterval time.Duration
}

// Ledger owns the incident consolidation logic: it decides, per observation,
// whether to extend the day's latest incident or open a new one, and persists
// the result with a conditional write. It is the sole writer of incidents.
type Ledger struct {
	incidents       IncidentRepository
	logger          zerolog.Logger
	maxRetries      uint64
	initialInterval time.Duration
}

// NewLedger creates a new incident ledger.
func NewLedger(cfg LedgerConfig) *Ledger {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	initialInterval := cfg.InitialInterval
	if initialInterval == 0 {
		initialInterval = 50 * time.Millisecond
	}

	return &Ledger{
		incidents:       cfg.Incidents,
		logger:          cfg.Logger.With().Str("component", "ledger").Logger(),
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
	}
}

// Consolidate records one observation for the target. When the latest
// incident on the observation's UTC calendar day holds the same category its
// End is advanced to observedAt; otherwise a fresh zero-length incident is
// opened. The whole read-decide-write step is retried with exponential
// backoff when the conditional write loses against a concurrent cycle, so at
// most one open incident exists per target and day.
func (l *Ledger) Consolidate(ctx context.Context, target string, category Category, observedAt time.Time) (*Incident, error) {
	observedAt = observedAt.UTC()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.initialInterval
	bo.MaxElapsedTime = 0

	var incident *Incident

	operation := func() error {
		var err error
		incident, err = l.consolidateOnce(ctx, target, category, observedAt)
		if err != nil {
			if errors.Is(err, ErrVersionConflict) {
				l.logger.Debug().
					Str("target", target).
					Time("observed_at", observedAt).
					Msg("consolidation lost conditional write, retrying")
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, l.maxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("consolidate %s at %s: %w", target, observedAt.Format(time.RFC3339), err)
	}

	return incident, nil
}

// consolidateOnce performs a single read-decide-write pass.
func (l *Ledger) consolidateOnce(ctx context.Context, target string, category Category, observedAt time.Time) (*Incident, error) {
	latest, err := l.incidents.LatestForDay(ctx, target, observedAt)
	if err != nil && !errors.Is(err, ErrIncidentNotFound) {
		return nil, err
	}

	var incident *Incident
	if latest != nil && latest.Category == category {
		// Same status run continues: keep the identity, advance the end
		// boundary only.
		incident = latest
		incident.End = observedAt
	} else {
		incident = NewIncident(target, category, observedAt)
	}

	if err := l.incidents.Upsert(ctx, incident); err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("target", target).
		Str("category", string(category)).
		Str("row_key", incident.RowKey).
		Time("start", incident.Start).
		Time("end", incident.End).
		Msg("incident consolidated")

	return incident, nil
}
