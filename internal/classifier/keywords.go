package classifier

import "github.com/ekovan/sigserver/internal/event"

// categoryKeywords maps each operational category to the substrings
// that indicate it. Categories are evaluated in event.Categories
// priority order (security first), first category with a hit wins.
// These tables are the contract under test.
//
// The security set deliberately avoids short substrings that occur in
// common service names ("auth-svc" must not read as a security event
// on its own), since classification scans the service name too.
var categoryKeywords = map[event.Category][]string{
	event.CatSecurity: {
		"unauthorized",
		"access denied",
		"permission denied",
		"authentication fail",
		"breach",
		"credential",
		"suspicious",
		"intrusion",
		"forbidden",
	},
	event.CatDatabase: {
		"database",
		"postgres",
		"mysql",
		"sql",
		"connection pool",
		"deadlock",
		"replication lag",
		"transaction",
	},
	event.CatNetwork: {
		"network",
		"dns",
		"unreachable",
		"timeout",
		"connection refused",
		"circuit breaker",
		"packet loss",
	},
	event.CatResource: {
		"memory",
		"disk",
		"cpu",
		"storage",
		"quota",
		"capacity",
		"exhausted",
		"rate limit",
	},
	event.CatServiceFailure: {
		"service",
		"endpoint",
		"api",
		"health check",
		"unavailable",
		"degradation",
		"5xx",
	},
}
