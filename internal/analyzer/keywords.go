package analyzer

import "github.com/ekovan/sigserver/internal/event"

// severityKeywords maps each severity tier to the substrings that
// indicate it. Matching is case-insensitive containment over the
// event message and service name; tiers are checked in descending
// criticality (event.Levels order), first tier with a hit wins, so a
// message matching both a critical and a low keyword comes out
// critical. These tables are the contract under test.
var severityKeywords = map[event.Severity][]string{
	event.SevCritical: {
		"down",
		"outage",
		"crash",
		"panic",
		"exhausted",
		"corrupt",
		"unavailable",
		"data loss",
		"fatal",
	},
	event.SevHigh: {
		"failed",
		"failure",
		"timeout",
		"unreachable",
		"exception",
		"refused",
		"breach",
		"unauthorized",
	},
	event.SevMedium: {
		"degraded",
		"slow",
		"retrying",
		"elevated",
		"throttl",
		"saturat",
	},
	event.SevLow: {
		"warning",
		"deprecated",
		"notice",
	},
}
