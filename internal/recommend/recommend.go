// Package recommend maps (severity, category) pairs to operational
// response recommendations via a fixed decision table.
package recommend

import "github.com/ekovan/sigserver/internal/event"

// baseActions is the severity-keyed primary axis of the decision
// table. Every severity the analyzer can produce has an entry.
var baseActions = map[event.Severity]string{
	event.SevCritical: "Immediate attention required - escalate to on-call engineer.",
	event.SevHigh:     "Prioritize investigation within the hour.",
	event.SevMedium:   "Schedule investigation during business hours.",
	event.SevLow:      "Log for trend analysis; no immediate action needed.",
	event.SevInfo:     "Log for trend analysis; no immediate action needed.",
}

// qualifiers refines the base action with category-specific guidance.
// Applied only to critical and high events, where the next step is
// concrete; lower tiers keep the generic action.
var qualifiers = map[event.Category]string{
	event.CatSecurity:       "Rotate exposed credentials and engage incident response.",
	event.CatDatabase:       "Check connection pool saturation and replica health.",
	event.CatNetwork:        "Verify DNS resolution and upstream connectivity.",
	event.CatResource:       "Review capacity headroom and scale out if load is sustained.",
	event.CatServiceFailure: "Inspect recent deploys and restart the failing service if needed.",
}

// For returns the recommendation for a severity/category pair. Total:
// every pair yields a non-empty string, including severities and
// categories outside the known sets.
func For(sev event.Severity, cat event.Category) string {
	action, ok := baseActions[sev]
	if !ok {
		action = "Review and assess; severity could not be determined."
	}

	if sev == event.SevCritical || sev == event.SevHigh {
		if q, ok := qualifiers[cat]; ok {
			action += " " + q
		}
	}
	return action
}
