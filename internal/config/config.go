// Package config loads worker and probe configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration errors. Missing required settings are startup errors, never
// runtime failures of the core logic.
var (
	ErrMissingHealthCheckURL = errors.New("healthCheckUrl is required")
	ErrInvalidHealthCheckURL = errors.New("healthCheckUrl must be an absolute URL")
	ErrInvalidProbeTimeout   = errors.New("probeTimeoutSeconds must be a positive number")
)

// Config holds the monitoring pipeline configuration.
type Config struct {
	// Target identifies the monitored entity.
	Target string `yaml:"target"`

	// HealthCheckURL is the absolute URL of the monitored health endpoint.
	// Required.
	HealthCheckURL string `yaml:"healthCheckUrl"`

	// ProbeTimeoutSeconds bounds a single probe. Required.
	ProbeTimeoutSeconds int `yaml:"probeTimeoutSeconds"`

	// ProbeIntervalSeconds is the probe cadence.
	ProbeIntervalSeconds int `yaml:"probeIntervalSeconds"`

	// ReportSchedule is the cron spec for daily report generation, in UTC.
	ReportSchedule string `yaml:"reportSchedule"`
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment variable overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Target:               "ENGINE",
		ProbeIntervalSeconds: 15,
		ReportSchedule:       "0 0 * * *",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TARGET"); v != "" {
		c.Target = v
	}
	if v := os.Getenv("HEALTHCHECK_URL"); v != "" {
		c.HealthCheckURL = v
	}
	if v, err := strconv.Atoi(os.Getenv("PROBE_TIMEOUT_SECONDS")); err == nil {
		c.ProbeTimeoutSeconds = v
	}
	if v, err := strconv.Atoi(os.Getenv("PROBE_INTERVAL_SECONDS")); err == nil {
		c.ProbeIntervalSeconds = v
	}
	if v := os.Getenv("REPORT_SCHEDULE"); v != "" {
		c.ReportSchedule = v
	}
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.HealthCheckURL == "" {
		return ErrMissingHealthCheckURL
	}
	u, err := url.Parse(c.HealthCheckURL)
	if err != nil || !u.IsAbs() {
		return ErrInvalidHealthCheckURL
	}
	if c.ProbeTimeoutSeconds <= 0 {
		return ErrInvalidProbeTimeout
	}
	if c.ProbeIntervalSeconds <= 0 {
		return errors.New("probeIntervalSeconds must be a positive number")
	}
	return nil
}

// ProbeTimeout returns the probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// ProbeInterval returns the probe cadence as a duration.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}
