package simulate

import "github.com/ekovan/sigserver/internal/event"

// Scenario is a template for generating one kind of failure event.
// Templates may contain %d placeholders filled with random values.
type Scenario struct {
	ID        string
	Category  event.Category
	Severity  event.Severity
	Services  []string
	Templates []string
	Weight    float64
}

// Service pools with realistic names, grouped by role.
var services = map[string][]string{
	"data":     {"user-db", "order-db", "analytics-db", "cache-redis", "search-elastic"},
	"api":      {"user-api", "order-api", "payment-api", "notification-api", "auth-service"},
	"infra":    {"load-balancer", "api-gateway", "message-queue", "file-storage", "cdn"},
	"external": {"payment-processor", "email-service", "sms-gateway", "monitoring-api"},
}

// scenarios is the built-in failure scenario library. Weights skew
// generation toward the failure modes most common in practice.
var scenarios = []Scenario{
	{
		ID:       "db_connection_pool",
		Category: event.CatDatabase,
		Severity: event.SevCritical,
		Services: services["data"],
		Templates: []string{
			"Connection pool exhausted - %d active of %d max connections",
			"Database connection timeout after %dms - pool saturated",
			"Connection leak detected - %d unclosed connections",
		},
		Weight: 2.5,
	},
	{
		ID:       "db_performance",
		Category: event.CatDatabase,
		Severity: event.SevMedium,
		Services: services["data"],
		Templates: []string{
			"Query execution time %dms exceeds threshold %dms",
			"Slow query scanning %d rows on primary",
			"Lock contention detected - %d blocked transactions",
		},
		Weight: 2.0,
	},
	{
		ID:       "service_connectivity",
		Category: event.CatNetwork,
		Severity: event.SevCritical,
		Services: append(services["api"], services["external"]...),
		Templates: []string{
			"Upstream unreachable - %d consecutive failures",
			"Circuit breaker opened after %d%% error rate",
			"DNS lookup timeout after %dms, retrying",
		},
		Weight: 2.2,
	},
	{
		ID:       "resource_exhaustion",
		Category: event.CatResource,
		Severity: event.SevMedium,
		Services: append(services["api"], services["infra"]...),
		Templates: []string{
			"Memory usage elevated - %d%% of %d GB allocated",
			"CPU throttling active - %d%% sustained load",
			"Disk usage at %d%% of quota",
		},
		Weight: 1.8,
	},
	{
		ID:       "security_events",
		Category: event.CatSecurity,
		Severity: event.SevCritical,
		Services: services["api"],
		Templates: []string{
			"Unauthorized access attempt spike - %d%% increase",
			"Suspicious activity detected - %d failed logins from one source",
			"Credential stuffing suspected - %d attempts blocked",
		},
		Weight: 1.3,
	},
	{
		ID:       "application_errors",
		Category: event.CatServiceFailure,
		Severity: event.SevMedium,
		Services: services["api"],
		Templates: []string{
			"Unhandled exception rate elevated - %d errors/min",
			"Health check failed for %d consecutive attempts",
			"Service degradation - %d%% success rate",
		},
		Weight: 2.0,
	},
	{
		ID:       "integration_issues",
		Category: event.CatServiceFailure,
		Severity: event.SevLow,
		Services: append(services["external"], services["infra"]...),
		Templates: []string{
			"Warning: external endpoint returning HTTP %d errors",
			"Warning: message queue at %d%% capacity",
			"Warning: webhook delivery failed after %d retries",
		},
		Weight: 1.5,
	},
}
