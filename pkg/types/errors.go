package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrderParams is returned when an order request names its target
// ambiguously or incompletely.
var ErrInvalidOrderParams = errors.New("invalid order params")

// TransportError is a failure talking to the sidecar once it is healthy.
type TransportError struct {
	Method     string // sidecar method, e.g. "fetchMarkets"
	StatusCode int    // 0 when no HTTP response was received
	Message    string // server-provided message when available
	Err        error  // underlying transport error, if any
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Method, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError means no record matched a free-text query.
type NotFoundError struct {
	Kind  string // "markets" or "events"
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matching '%s'", e.Kind, e.Query)
}

// AmbiguousMatchError means more than one record matched a free-text query.
// Labels holds the display label of every match, in input order.
type AmbiguousMatchError struct {
	Kind   string
	Query  string
	Labels []string
}

func (e *AmbiguousMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "multiple %s matching '%s' (%d matches):", e.Kind, e.Query, len(e.Labels))
	for i, label := range e.Labels {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, label)
	}
	b.WriteString("\n\nplease refine your search")
	return b.String()
}
