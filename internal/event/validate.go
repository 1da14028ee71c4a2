package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports a malformed or incomplete event payload.
// It carries the offending field so callers can tell bad input apart
// from internal faults.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// Parse decodes a JSON payload into a FailureEvent and validates it.
// The required fields event_id, service, and message must be present
// and non-empty; an event that fails this check never enters the
// pipeline. Unknown severity strings are accepted as-is.
func Parse(data []byte) (*FailureEvent, error) {
	var ev FailureEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, &ValidationError{Field: "payload", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Validate checks the required-field invariants on an already-decoded
// event.
func (ev *FailureEvent) Validate() error {
	if strings.TrimSpace(ev.EventID) == "" {
		return &ValidationError{Field: "event_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(ev.Service) == "" {
		return &ValidationError{Field: "service", Reason: "must not be empty"}
	}
	if strings.TrimSpace(ev.Message) == "" {
		return &ValidationError{Field: "message", Reason: "must not be empty"}
	}
	return nil
}
