// Package classifier assigns failure events to operational categories
// using keyword matching over message text and service name.
package classifier

import (
	"strings"

	"github.com/ekovan/sigserver/internal/event"
)

// Classifier assigns exactly one category per event. Safe for
// concurrent use; the keyword tables are fixed at construction.
type Classifier struct {
	keywords map[event.Category][]string
}

// New creates a Classifier. extra holds per-category keywords appended
// after the built-in tables (from configuration); a nil map means
// defaults only.
func New(extra map[event.Category][]string) *Classifier {
	kw := make(map[event.Category][]string, len(categoryKeywords))
	for cat, words := range categoryKeywords {
		kw[cat] = append(append([]string(nil), words...), extra[cat]...)
	}
	return &Classifier{keywords: kw}
}

// Classify scans the event for category keywords in fixed priority
// order (security → database → network → resource → service_failure)
// and returns the first category with a match. An event matching no
// set classifies as CatUnknown; there is no error case.
func (c *Classifier) Classify(ev *event.FailureEvent) event.Category {
	text := strings.ToLower(ev.Message + " " + ev.Service)

	for _, cat := range event.Categories {
		for _, kw := range c.keywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return event.CatUnknown
}
