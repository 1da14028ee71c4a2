// Package report renders analysis verdicts into human-readable text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ekovan/sigserver/internal/event"
)

// Summary builds the one-string human-readable rendering of an
// analyzed event. The template is fixed and the output deterministic
// for identical inputs; it is meant for direct display, not parsing.
func Summary(ev *event.FailureEvent, sev event.Severity, cat event.Category, recommendation string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Signal Alert: %s\n", ev.EventID)
	fmt.Fprintf(&b, "Service: %s\n", ev.Service)
	fmt.Fprintf(&b, "Severity: %s\n", sev.Label())
	fmt.Fprintf(&b, "Type: %s\n", cat.Label())
	fmt.Fprintf(&b, "Message: %s\n", ev.Message)
	fmt.Fprintf(&b, "Action: %s\n", recommendation)
	fmt.Fprintf(&b, "Time: %s", formatTimestamp(ev.Timestamp))

	if len(ev.Details) > 0 {
		b.WriteString("\nDetails: ")
		b.WriteString(formatDetails(ev.Details))
	}

	return b.String()
}

// formatTimestamp reformats an ISO-8601 timestamp for display. The
// raw string is passed through when it does not parse; timestamps are
// display-only data here.
func formatTimestamp(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC().Format("2006-01-02 15:04:05 MST")
	}
	return ts
}

// formatDetails renders the details map as "k=v" pairs with sorted
// keys so repeated calls produce identical output.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}
