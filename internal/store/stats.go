package store

import (
	"fmt"
	"time"
)

// ServiceCount pairs a service name with its event count.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"event_count"`
}

// Stats summarizes stored events over a window.
type Stats struct {
	TotalEvents      int            `json:"total_events"`
	BySeverity       map[string]int `json:"by_severity"`
	AffectedServices int            `json:"affected_services"`
	TopServices      []ServiceCount `json:"top_services"`
}

// Summarize returns aggregate statistics for events ingested since
// the given time. A zero since covers the whole table.
func (d *DB) Summarize(since time.Time) (*Stats, error) {
	where := ""
	var args []interface{}
	if !since.IsZero() {
		where = " WHERE created_at >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}

	stats := &Stats{BySeverity: make(map[string]int)}

	err := d.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT service) FROM events`+where, args...).
		Scan(&stats.TotalEvents, &stats.AffectedServices)
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	rows, err := d.db.Query(`SELECT calculated_severity, COUNT(*) FROM events`+where+
		` GROUP BY calculated_severity`, args...)
	if err != nil {
		return nil, fmt.Errorf("counting by severity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("scanning severity count: %w", err)
		}
		stats.BySeverity[sev] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	top, err := d.db.Query(`SELECT service, COUNT(*) AS n FROM events`+where+
		` GROUP BY service ORDER BY n DESC LIMIT 5`, args...)
	if err != nil {
		return nil, fmt.Errorf("ranking services: %w", err)
	}
	defer top.Close()
	for top.Next() {
		var sc ServiceCount
		if err := top.Scan(&sc.Service, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning service count: %w", err)
		}
		stats.TopServices = append(stats.TopServices, sc)
	}
	return stats, top.Err()
}
