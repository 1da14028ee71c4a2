// Package event defines the core data model for failure events and
// their analysis results.
package event

// Severity indicates the urgency of a failure event.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
	SevInfo     Severity = "info"
)

// Levels lists all severities in descending order of criticality.
// Severity recalculation tie-breaks depend on this order.
var Levels = []Severity{SevCritical, SevHigh, SevMedium, SevLow, SevInfo}

// Label returns a human-readable label for the severity.
func (s Severity) Label() string {
	return string(s)
}

// Category classifies a failure event into an operational domain.
type Category string

const (
	CatSecurity       Category = "security"
	CatDatabase       Category = "database"
	CatNetwork        Category = "network"
	CatResource       Category = "resource"
	CatServiceFailure Category = "service_failure"
	CatUnknown        Category = "unknown"
)

// Categories lists categories in classification priority order.
// Security and data-integrity matches must never be masked by a more
// generic network/resource match.
var Categories = []Category{CatSecurity, CatDatabase, CatNetwork, CatResource, CatServiceFailure}

// Label returns a human-readable label for the category.
func (c Category) Label() string {
	switch c {
	case CatSecurity:
		return "Security"
	case CatDatabase:
		return "Database"
	case CatNetwork:
		return "Network"
	case CatResource:
		return "Resource"
	case CatServiceFailure:
		return "Service Failure"
	default:
		return "Unknown"
	}
}

// Status reports whether an event made it through the pipeline.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusRejected  Status = "rejected"
)

// FailureEvent is the validated in-memory representation of one
// reported failure. Immutable after validation. Severity holds the
// caller's own assessment and is never trusted as final; unrecognized
// values are preserved as-is.
type FailureEvent struct {
	EventID   string         `json:"event_id"`
	Timestamp string         `json:"timestamp"`
	Service   string         `json:"service"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// AnalysisResult is the verdict for one event. The JSON field names
// are a wire contract: downstream tooling matches these keys literally.
type AnalysisResult struct {
	EventID            string   `json:"event_id"`
	OriginalSeverity   string   `json:"original_severity"`
	CalculatedSeverity Severity `json:"calculated_severity,omitempty"`
	Classification     Category `json:"classification,omitempty"`
	Recommendation     string   `json:"recommendation,omitempty"`
	HumanReadable      string   `json:"human_readable,omitempty"`
	Status             Status   `json:"status"`
	Reason             string   `json:"reason,omitempty"`
}
