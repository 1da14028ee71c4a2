package simulate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ekovan/sigserver/internal/event"
	"github.com/ekovan/sigserver/internal/pipeline"
)

func TestGenerateProducesValidEvents(t *testing.T) {
	g := NewGenerator(42)

	for i := 0; i < 100; i++ {
		ev := g.Generate()
		if err := ev.Validate(); err != nil {
			t.Fatalf("generated event %d invalid: %v (%+v)", i, err, ev)
		}
		if !strings.HasPrefix(ev.EventID, "sig_") {
			t.Errorf("EventID = %q, want sig_ prefix", ev.EventID)
		}
		if strings.Contains(ev.Message, "%d") {
			t.Errorf("unfilled placeholder in message %q", ev.Message)
		}
		if ev.Details["scenario_type"] == "" {
			t.Errorf("missing scenario_type detail: %v", ev.Details)
		}
	}
}

func TestGenerateReproducibleWithSeed(t *testing.T) {
	g1 := NewGenerator(7)
	g2 := NewGenerator(7)

	for i := 0; i < 20; i++ {
		a, b := g1.Generate(), g2.Generate()
		if a.Service != b.Service || a.Message != b.Message {
			t.Fatalf("same seed diverged at %d: %q/%q vs %q/%q",
				i, a.Service, a.Message, b.Service, b.Message)
		}
	}
}

func TestGeneratedEventsProcessCleanly(t *testing.T) {
	g := NewGenerator(11)
	p := pipeline.New(pipeline.Rules{})

	for i := 0; i < 50; i++ {
		ev := g.Generate()
		res, err := p.ProcessEvent(ev)
		if err != nil {
			t.Fatalf("ProcessEvent: %v", err)
		}
		if res.Status != event.StatusProcessed {
			t.Fatalf("generated event rejected: %s (%+v)", res.Reason, ev)
		}
	}
}

func TestSenderPostsEvent(t *testing.T) {
	var gotPath string
	var gotEvent event.FailureEvent

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotEvent); err != nil {
			t.Errorf("decoding posted event: %v", err)
		}
		json.NewEncoder(w).Encode(event.AnalysisResult{
			EventID: gotEvent.EventID,
			Status:  event.StatusProcessed,
		})
	}))
	defer server.Close()

	sender := NewSender(server.URL)
	ev := NewGenerator(3).Generate()

	res, err := sender.Send(context.Background(), ev)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v1/events" {
		t.Errorf("path = %q, want /v1/events", gotPath)
	}
	if gotEvent.EventID != ev.EventID {
		t.Errorf("posted EventID = %q, want %q", gotEvent.EventID, ev.EventID)
	}
	if res.Status != event.StatusProcessed {
		t.Errorf("Status = %q", res.Status)
	}
}

func TestSenderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewSender(server.URL)
	if _, err := sender.Send(context.Background(), NewGenerator(3).Generate()); err == nil {
		t.Error("expected error for 500 response")
	}
}
