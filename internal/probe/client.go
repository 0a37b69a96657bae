// Package probe provides the outbound health-check client for the monitored
// target. A probe never fails: every way the request can conclude maps to a
// status outcome that the caller classifies.
package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pulsewatch/pulsewatch/internal/status"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the health-check client.
type ClientConfig struct {
	// URL is the absolute health-check URL. Required.
	URL string

	// Timeout bounds a single probe; exceeding it is a TIMEOUT outcome,
	// not a failure. Default: 10s.
	Timeout time.Duration

	// HTTPClient is the HTTP client to use. If nil, a plain net/http
	// client is created. Probes are deliberately not retried: a failed
	// call is the signal being measured.
	HTTPClient HTTPDoer

	Logger zerolog.Logger
}

// Client probes the monitored target's health endpoint.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new health-check client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		url:        cfg.URL,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("component", "probe").Logger(),
	}
}

// Wire types returned by the health endpoint.

type healthCheckBody struct {
	Result string                 `json:"result"`
	Data   []healthCheckComponent `json:"data"`
}

type healthCheckComponent struct {
	TestType         string  `json:"TestType"`
	TestDetail       string  `json:"TestDetail"`
	ServiceAvailable bool    `json:"ServiceAvailable"`
	Time             float64 `json:"Time"`
}

// Check performs one probe. The outcome is total: timeouts and transport
// faults are encoded rather than returned as errors. On a successful
// response the per-component detail is decoded as well; a malformed body
// only costs the detail, never the outcome.
func (c *Client) Check(ctx context.Context) (status.Outcome, []*status.ComponentHealth) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.url).Msg("failed to build probe request")
		return status.Outcome{Kind: status.OutcomeFault}, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return status.Outcome{Kind: status.OutcomeTimeout}, nil
		}
		c.logger.Debug().Err(err).Msg("probe transport fault")
		return status.Outcome{Kind: status.OutcomeFault}, nil
	}
	defer resp.Body.Close()

	outcome := status.Outcome{Kind: status.OutcomeResponse, StatusCode: resp.StatusCode}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return outcome, nil
	}

	var body healthCheckBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn().Err(err).Msg("health response body unparsable, skipping component detail")
		return outcome, nil
	}

	components := make([]*status.ComponentHealth, 0, len(body.Data))
	for _, comp := range body.Data {
		components = append(components, &status.ComponentHealth{
			TestType:         comp.TestType,
			TestDetail:       comp.TestDetail,
			ServiceAvailable: comp.ServiceAvailable,
			TimeMs:           comp.Time,
		})
	}

	return outcome, components
}

// isTimeout reports whether the request error is a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
