package event

import (
	"errors"
	"testing"
)

func TestParseValidEvent(t *testing.T) {
	payload := []byte(`{
		"event_id": "sig_001",
		"timestamp": "2025-06-08T10:30:00Z",
		"service": "auth-svc",
		"severity": "critical",
		"message": "PostgreSQL connection pool exhausted",
		"details": {"error_code": "POOL_EXHAUSTED"}
	}`)

	ev, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if ev.EventID != "sig_001" {
		t.Errorf("EventID = %q, want %q", ev.EventID, "sig_001")
	}
	if ev.Service != "auth-svc" {
		t.Errorf("Service = %q", ev.Service)
	}
	if ev.Severity != "critical" {
		t.Errorf("Severity = %q", ev.Severity)
	}
	if ev.Details["error_code"] != "POOL_EXHAUSTED" {
		t.Errorf("Details = %v", ev.Details)
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{
			name:    "missing event_id",
			payload: `{"service": "svc", "message": "it broke"}`,
			field:   "event_id",
		},
		{
			name:    "blank event_id",
			payload: `{"event_id": "  ", "service": "svc", "message": "it broke"}`,
			field:   "event_id",
		},
		{
			name:    "missing service",
			payload: `{"event_id": "e1", "message": "it broke"}`,
			field:   "service",
		},
		{
			name:    "empty message",
			payload: `{"event_id": "e1", "service": "svc", "message": ""}`,
			field:   "message",
		},
		{
			name:    "malformed json",
			payload: `{"event_id": `,
			field:   "payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.payload))
			if ev != nil {
				t.Fatalf("expected nil event, got %+v", ev)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestParseAcceptsUnknownSeverity(t *testing.T) {
	payload := []byte(`{
		"event_id": "e1",
		"service": "svc",
		"severity": "catastrophic",
		"message": "all is well"
	}`)

	ev, err := Parse(payload)
	if err != nil {
		t.Fatalf("unknown severity should be accepted, got %v", err)
	}
	if ev.Severity != "catastrophic" {
		t.Errorf("Severity = %q, want it preserved verbatim", ev.Severity)
	}
}

func TestParseDetailsOptional(t *testing.T) {
	ev, err := Parse([]byte(`{"event_id": "e1", "service": "svc", "message": "m"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ev.Details) != 0 {
		t.Errorf("Details = %v, want empty", ev.Details)
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CatSecurity, "Security"},
		{CatServiceFailure, "Service Failure"},
		{CatUnknown, "Unknown"},
		{Category("bogus"), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.cat.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "message", Reason: "must not be empty"}
	want := "invalid event: message: must not be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
