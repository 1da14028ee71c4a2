// Package analyzer recalculates event severity from message content.
//
// The caller-asserted severity on an event is never used here: the
// whole point of recalculation is to catch misreported severities.
package analyzer

import (
	"strings"

	"github.com/ekovan/sigserver/internal/event"
)

// Analyzer derives a severity from event text using ordered keyword
// tiers. Safe for concurrent use; the keyword tables are fixed at
// construction.
type Analyzer struct {
	keywords map[event.Severity][]string
}

// New creates an Analyzer. extra holds per-severity keywords appended
// after the built-in tables (from configuration); a nil map means
// defaults only.
func New(extra map[event.Severity][]string) *Analyzer {
	kw := make(map[event.Severity][]string, len(severityKeywords))
	for sev, words := range severityKeywords {
		kw[sev] = append(append([]string(nil), words...), extra[sev]...)
	}
	return &Analyzer{keywords: kw}
}

// Calculate scans the event message and service name for severity
// keywords and returns the most critical tier with a match. Tiers are
// checked in descending criticality, so conflicting signals resolve
// conservatively. No match yields SevInfo; there is no error case.
func (a *Analyzer) Calculate(ev *event.FailureEvent) event.Severity {
	text := strings.ToLower(ev.Message + " " + ev.Service)

	for _, sev := range event.Levels {
		for _, kw := range a.keywords[sev] {
			if strings.Contains(text, kw) {
				return sev
			}
		}
	}
	return event.SevInfo
}
