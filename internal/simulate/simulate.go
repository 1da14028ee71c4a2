// Package simulate generates realistic failure events for exercising
// the analysis pipeline or a running ingest server.
package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekovan/sigserver/internal/event"
)

// Generator produces failure events from the weighted scenario
// library. Not safe for concurrent use; each goroutine should own its
// own Generator.
type Generator struct {
	rng         *rand.Rand
	scenarios   []Scenario
	totalWeight float64
}

// NewGenerator creates a Generator seeded for reproducible runs.
func NewGenerator(seed int64) *Generator {
	g := &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		scenarios: scenarios,
	}
	for _, sc := range g.scenarios {
		g.totalWeight += sc.Weight
	}
	return g
}

// Generate produces one failure event from a weighted random scenario.
func (g *Generator) Generate() *event.FailureEvent {
	sc := g.pick()
	template := sc.Templates[g.rng.Intn(len(sc.Templates))]

	return &event.FailureEvent{
		EventID:   "sig_" + uuid.NewString()[:8],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   sc.Services[g.rng.Intn(len(sc.Services))],
		Severity:  string(sc.Severity),
		Message:   g.fill(template),
		Details: map[string]any{
			"scenario_type":    sc.ID,
			"failure_category": string(sc.Category),
		},
	}
}

// pick selects a scenario by probability weight.
func (g *Generator) pick() Scenario {
	r := g.rng.Float64() * g.totalWeight
	for _, sc := range g.scenarios {
		r -= sc.Weight
		if r <= 0 {
			return sc
		}
	}
	return g.scenarios[len(g.scenarios)-1]
}

// fill substitutes each %d placeholder with a random value.
func (g *Generator) fill(template string) string {
	n := strings.Count(template, "%d")
	if n == 0 {
		return template
	}
	args := make([]any, n)
	for i := range args {
		args[i] = g.rng.Intn(9000) + 10
	}
	return fmt.Sprintf(template, args...)
}

// Sender posts generated events to a running ingest server.
type Sender struct {
	url    string
	client *http.Client
}

// NewSender creates a Sender for the given server base URL.
func NewSender(baseURL string) *Sender {
	return &Sender{
		url: strings.TrimRight(baseURL, "/") + "/v1/events",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Send posts one event and decodes the analysis result. The server's
// rejection responses decode the same way as successes.
func (s *Sender) Send(ctx context.Context, ev *event.FailureEvent) (*event.AnalysisResult, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var res event.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &res, nil
}
