package status

import "net/http"

// OutcomeKind describes how a probe concluded.
type OutcomeKind string

const (
	// OutcomeResponse means an HTTP response was received.
	OutcomeResponse OutcomeKind = "RESPONSE"

	// OutcomeTimeout means the probe exceeded its configured deadline.
	OutcomeTimeout OutcomeKind = "TIMEOUT"

	// OutcomeFault means the request failed before a response arrived
	// (connection refused, DNS failure, and similar transport errors).
	OutcomeFault OutcomeKind = "FAULT"
)

// Outcome is the raw result of a single probe.
type Outcome struct {
	Kind OutcomeKind

	// StatusCode is set only when Kind is OutcomeResponse.
	StatusCode int
}

// Classify maps a probe outcome to a status category. It is total: every
// outcome resolves to a category, including unknown kinds.
func Classify(o Outcome) Category {
	switch o.Kind {
	case OutcomeTimeout:
		return CategoryTimeout
	case OutcomeFault:
		return CategoryError
	case OutcomeResponse:
		if o.StatusCode >= http.StatusOK && o.StatusCode < http.StatusMultipleChoices {
			return CategoryOK
		}
		return CategoryError
	default:
		return CategoryError
	}
}
