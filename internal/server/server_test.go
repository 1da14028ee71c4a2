package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ekovan/sigserver/internal/event"
	"github.com/ekovan/sigserver/internal/pipeline"
	"github.com/ekovan/sigserver/internal/store"
)

func testServer(t *testing.T, withDB bool) (*Server, *store.DB) {
	t.Helper()

	var db *store.DB
	if withDB {
		var err error
		db, err = store.Open(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("opening test db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
	}

	return New(pipeline.New(pipeline.Rules{}), db), db
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestPostEvent(t *testing.T) {
	srv, db := testServer(t, true)

	payload := `{
		"event_id": "sig_001",
		"timestamp": "2025-06-08T10:30:00Z",
		"service": "auth-svc",
		"severity": "critical",
		"message": "PostgreSQL connection pool exhausted"
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var res event.AnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Status != event.StatusProcessed {
		t.Errorf("Status = %q", res.Status)
	}
	if res.CalculatedSeverity != event.SevCritical {
		t.Errorf("CalculatedSeverity = %q", res.CalculatedSeverity)
	}
	if res.Classification != event.CatDatabase {
		t.Errorf("Classification = %q", res.Classification)
	}

	// The processed event lands in the history store.
	stored, err := db.Query(store.QueryFilter{Since: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].EventID != "sig_001" {
		t.Errorf("stored events = %+v, want sig_001", stored)
	}
}

func TestPostEventRejected(t *testing.T) {
	srv, db := testServer(t, true)

	payload := `{"event_id": "sig_002", "service": "auth-svc", "message": ""}`

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var res event.AnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Status != event.StatusRejected {
		t.Errorf("Status = %q", res.Status)
	}
	if !strings.Contains(res.Reason, "message") {
		t.Errorf("Reason = %q, want the field named", res.Reason)
	}

	// Rejected events are not stored.
	stored, err := db.Query(store.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 0 {
		t.Errorf("rejected event was stored: %+v", stored)
	}
}

func TestPostEventMethodCheck(t *testing.T) {
	srv, _ := testServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRecentEndpoint(t *testing.T) {
	srv, _ := testServer(t, true)

	// Ingest two events, then read them back.
	for _, payload := range []string{
		`{"event_id": "r1", "service": "user-db", "severity": "high", "message": "Deadlock detected"}`,
		`{"event_id": "r2", "service": "edge-proxy", "severity": "low", "message": "DNS lookup timeout, retrying"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ingest status = %d, body: %s", rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/events/recent?last=1h&category=database", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count  int `json:"count"`
		Events []struct {
			EventID string `json:"event_id"`
		} `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1 database event", body.Count)
	}
}

func TestRecentEndpointBadWindow(t *testing.T) {
	srv, _ := testServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/recent?last=soon", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecentEndpointNoDB(t *testing.T) {
	srv, _ := testServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/recent", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := testServer(t, true)

	payload := `{"event_id": "st1", "service": "user-db", "severity": "high", "message": "Database replica down"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/stats?last=7d", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var stats store.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 1 {
		t.Errorf("TotalEvents = %d, want 1", stats.TotalEvents)
	}
	if stats.BySeverity["critical"] != 1 {
		t.Errorf("BySeverity = %v, want one critical", stats.BySeverity)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 24 * time.Hour, false},
		{"1h", time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"soon", 0, true},
		{"xd", 0, true},
	}

	for _, tt := range tests {
		got, err := parseWindow(tt.in, 24*time.Hour)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseWindow(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseWindow(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseWindow(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
