// Package store provides SQLite-backed history of processed events.
//
// The analysis pipeline itself is stateless; the store is server-layer
// plumbing that records each event together with its verdict for later
// querying.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ekovan/sigserver/internal/event"
)

// DB wraps an SQLite connection for event history storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// StoredEvent is one history row: the original event fields plus the
// analysis verdict.
type StoredEvent struct {
	EventID            string         `json:"event_id"`
	Timestamp          string         `json:"timestamp"`
	Service            string         `json:"service"`
	Severity           string         `json:"severity"`
	Message            string         `json:"message"`
	Details            map[string]any `json:"details,omitempty"`
	Classification     event.Category `json:"classification"`
	CalculatedSeverity event.Severity `json:"calculated_severity"`
	Recommendation     string         `json:"recommendation"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Insert stores a processed event and its analysis result. Re-sending
// an event_id replaces the previous row, matching at-least-once
// delivery from the ingest side.
func (d *DB) Insert(ev *event.FailureEvent, res *event.AnalysisResult) error {
	detailsJSON, err := json.Marshal(ev.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO events
		(event_id, timestamp, service, severity, message, details_json,
		 classification, calculated_severity, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID,
		ev.Timestamp,
		ev.Service,
		ev.Severity,
		ev.Message,
		string(detailsJSON),
		string(res.Classification),
		string(res.CalculatedSeverity),
		res.Recommendation,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// QueryFilter controls which events are returned by Query.
type QueryFilter struct {
	Since    time.Time
	Until    time.Time
	Service  string
	Severity string // calculated severity
	Category string
	Limit    int
}

// Query returns stored events matching the filter, ordered by ingest
// time descending.
func (d *DB) Query(f QueryFilter) ([]*StoredEvent, error) {
	query := `SELECT event_id, timestamp, service, severity, message, details_json,
		classification, calculated_severity, recommendation, created_at
		FROM events WHERE 1=1`
	var args []interface{}

	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	if !f.Until.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, f.Until.UTC().Format(time.RFC3339Nano))
	}
	if f.Service != "" {
		query += " AND service = ?"
		args = append(args, f.Service)
	}
	if f.Severity != "" {
		query += " AND calculated_severity = ?"
		args = append(args, f.Severity)
	}
	if f.Category != "" {
		query += " AND classification = ?"
		args = append(args, f.Category)
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*StoredEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the total number of stored events.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Purge deletes events ingested before the retention cutoff.
func (d *DB) Purge(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format(time.RFC3339Nano)
	result, err := d.db.Exec(`DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old events: %w", err)
	}
	return result.RowsAffected()
}

func scanEvent(rows *sql.Rows) (*StoredEvent, error) {
	var ev StoredEvent
	var detailsJSON, createdAt string

	err := rows.Scan(
		&ev.EventID,
		&ev.Timestamp,
		&ev.Service,
		&ev.Severity,
		&ev.Message,
		&detailsJSON,
		&ev.Classification,
		&ev.CalculatedSeverity,
		&ev.Recommendation,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning event row: %w", err)
	}

	ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if detailsJSON != "" && detailsJSON != "null" {
		_ = json.Unmarshal([]byte(detailsJSON), &ev.Details)
	}

	return &ev, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id            TEXT PRIMARY KEY,
			timestamp           TEXT NOT NULL,
			service             TEXT NOT NULL,
			severity            TEXT NOT NULL,
			message             TEXT NOT NULL,
			details_json        TEXT,
			classification      TEXT NOT NULL,
			calculated_severity TEXT NOT NULL,
			recommendation      TEXT NOT NULL,
			created_at          TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_service ON events(service, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_severity ON events(calculated_severity, created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("database schema up to date")
	return nil
}
