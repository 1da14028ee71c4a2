// Package server exposes the analysis pipeline over a small HTTP API.
//
// This is thin glue: validation and all decision logic live in the
// pipeline, and the handlers only translate HTTP to pipeline calls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ekovan/sigserver/internal/event"
	"github.com/ekovan/sigserver/internal/pipeline"
	"github.com/ekovan/sigserver/internal/store"
)

// maxBodyBytes caps event payload size.
const maxBodyBytes = 1 << 20

// Server handles event ingestion and history queries.
type Server struct {
	pipe *pipeline.Pipeline
	db   *store.DB // nil disables history endpoints
	mux  *http.ServeMux
}

// New creates a Server around a pipeline and an optional history
// store.
func New(pipe *pipeline.Pipeline, db *store.DB) *Server {
	s := &Server{pipe: pipe, db: db, mux: http.NewServeMux()}
	s.mux.HandleFunc("/v1/events", s.handleEvents)
	s.mux.HandleFunc("/v1/events/recent", s.handleRecent)
	s.mux.HandleFunc("/v1/stats", s.handleStats)
	s.mux.HandleFunc("/v1/health", s.handleHealth)
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("http api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body failed")
		return
	}

	res, err := s.pipe.Process(body)
	if err != nil {
		// Internal fault, not a per-event validation problem.
		slog.Error("event processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "event processing failed")
		return
	}

	if res.Status == event.StatusRejected {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	if s.db != nil {
		if ev, perr := event.Parse(body); perr == nil {
			if ierr := s.db.Insert(ev, res); ierr != nil {
				slog.Error("failed to store event", "event_id", res.EventID, "error", ierr)
			}
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "event history disabled")
		return
	}

	q := r.URL.Query()
	window, err := parseWindow(q.Get("last"), 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid last parameter: %v", err))
		return
	}

	limit := 50
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
	}

	events, err := s.db.Query(store.QueryFilter{
		Since:    time.Now().Add(-window),
		Service:  q.Get("service"),
		Severity: q.Get("severity"),
		Category: q.Get("category"),
		Limit:    limit,
	})
	if err != nil {
		slog.Error("event query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "event history disabled")
		return
	}

	window, err := parseWindow(r.URL.Query().Get("last"), 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid last parameter: %v", err))
		return
	}

	stats, err := s.db.Summarize(time.Now().Add(-window))
	if err != nil {
		slog.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "sigserver",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error":  msg,
		"status": "failed",
	})
}

// parseWindow parses a time window like "24h" or "7d", falling back
// to def when the value is empty.
func parseWindow(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, errors.New("invalid days format")
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
