// Package pipeline sequences the event analysis stages: validation,
// severity recalculation, classification, recommendation, and summary
// formatting.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ekovan/sigserver/internal/analyzer"
	"github.com/ekovan/sigserver/internal/classifier"
	"github.com/ekovan/sigserver/internal/event"
	"github.com/ekovan/sigserver/internal/recommend"
	"github.com/ekovan/sigserver/internal/report"
)

// Pipeline runs failure events through the analysis stages. It holds
// no per-call state: the only shared data is the immutable keyword
// tables, so concurrent Process calls never interfere.
type Pipeline struct {
	analyzer   *analyzer.Analyzer
	classifier *classifier.Classifier
}

// Rules carries keyword-table extensions loaded from configuration.
type Rules struct {
	Severity map[event.Severity][]string
	Category map[event.Category][]string
}

// New creates a Pipeline with the given rule extensions. A zero Rules
// value yields the built-in tables.
func New(rules Rules) *Pipeline {
	return &Pipeline{
		analyzer:   analyzer.New(rules.Severity),
		classifier: classifier.New(rules.Category),
	}
}

// Process validates a raw JSON payload and runs it through the
// pipeline, producing exactly one AnalysisResult.
//
// A payload that fails validation yields a result with status
// "rejected", the failure reason, and no calculated fields; the error
// return is nil because bad input is an anticipated outcome. A
// non-nil error marks an internal fault and is distinguishable from
// validation: errors.As against *event.ValidationError reports false.
func (p *Pipeline) Process(payload []byte) (*event.AnalysisResult, error) {
	ev, err := event.Parse(payload)
	if err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			slog.Debug("event rejected", "field", verr.Field, "reason", verr.Reason)
			return rejected(payload, verr), nil
		}
		return nil, fmt.Errorf("parsing event payload: %w", err)
	}

	return p.analyze(ev), nil
}

// ProcessEvent runs an in-memory event through validation and the
// analysis stages. Used by callers that construct events directly
// instead of decoding JSON.
func (p *Pipeline) ProcessEvent(ev *event.FailureEvent) (*event.AnalysisResult, error) {
	if err := ev.Validate(); err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			slog.Debug("event rejected", "field", verr.Field, "reason", verr.Reason)
			return &event.AnalysisResult{
				EventID:          ev.EventID,
				OriginalSeverity: ev.Severity,
				Status:           event.StatusRejected,
				Reason:           verr.Error(),
			}, nil
		}
		return nil, fmt.Errorf("validating event: %w", err)
	}

	return p.analyze(ev), nil
}

// analyze runs the post-validation stages. Every stage is a total
// function, so this cannot fail.
func (p *Pipeline) analyze(ev *event.FailureEvent) *event.AnalysisResult {
	severity := p.analyzer.Calculate(ev)
	category := p.classifier.Classify(ev)
	recommendation := recommend.For(severity, category)
	summary := report.Summary(ev, severity, category, recommendation)

	slog.Info("event processed",
		"event_id", ev.EventID,
		"service", ev.Service,
		"calculated_severity", severity,
		"classification", category,
	)

	return &event.AnalysisResult{
		EventID:            ev.EventID,
		OriginalSeverity:   ev.Severity,
		CalculatedSeverity: severity,
		Classification:     category,
		Recommendation:     recommendation,
		HumanReadable:      summary,
		Status:             event.StatusProcessed,
	}
}

// rejected builds the rejection result for an invalid payload. The
// event id and caller severity are echoed back when the payload
// decodes at all, so the caller can correlate the rejection.
func rejected(payload []byte, verr *event.ValidationError) *event.AnalysisResult {
	var partial struct {
		EventID  string `json:"event_id"`
		Severity string `json:"severity"`
	}
	_ = json.Unmarshal(payload, &partial)

	return &event.AnalysisResult{
		EventID:          partial.EventID,
		OriginalSeverity: partial.Severity,
		Status:           event.StatusRejected,
		Reason:           verr.Error(),
	}
}
