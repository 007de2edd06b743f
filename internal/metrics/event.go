package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
	"github.com/Nikolay-Shirokov/va-ai/internal/semantic"
)

// Event types.
const (
	EventStepNotFound = "step_not_found"
	EventValidation   = "validation_run"
)

// Event is one recorded occurrence. Payload fields hold raw JSON objects.
type Event struct {
	ID           string          `json:"id,omitempty"`
	Timestamp    string          `json:"timestamp"`
	EventType    string          `json:"event_type"`
	Details      json.RawMessage `json:"details"`
	AIDecision   json.RawMessage `json:"ai_decision"`
	UserFeedback json.RawMessage `json:"user_feedback"`
}

// StepNotFoundDetails describes an unresolved scenario step.
type StepNotFoundDetails struct {
	File        string              `json:"file,omitempty"`
	Line        int                 `json:"line"`
	Step        string              `json:"step"`
	Canonical   string              `json:"canonical,omitempty"`
	Suggestions []SuggestionDetails `json:"suggestions"`
}

// ValidationRunDetails summarizes one validated scenario file.
type ValidationRunDetails struct {
	File         string `json:"file"`
	Valid        bool   `json:"valid"`
	Errors       int    `json:"errors"`
	Warnings     int    `json:"warnings"`
	TotalSteps   int    `json:"total_steps"`
	ValidSteps   int    `json:"valid_steps"`
	InvalidSteps int    `json:"invalid_steps"`
}

// SuggestionDetails is a suggestion as it is stored in an event.
type SuggestionDetails struct {
	Text            string          `json:"text"`
	Ratio           float64         `json:"ratio"`
	SemanticMatch   *semantic.Match `json:"semantic_match,omitempty"`
	ConfidenceLevel string          `json:"confidence_level,omitempty"`
}

// NewStepNotFound builds event details from a resolution.
func NewStepNotFound(file string, line int, res resolve.Resolution) StepNotFoundDetails {
	d := StepNotFoundDetails{
		File:        file,
		Line:        line,
		Step:        res.Step,
		Canonical:   res.Canonical,
		Suggestions: make([]SuggestionDetails, 0, len(res.Suggestions)),
	}
	for _, s := range res.Suggestions {
		d.Suggestions = append(d.Suggestions, SuggestionDetails{
			Text:            s.Text,
			Ratio:           s.Ratio,
			SemanticMatch:   s.Semantic,
			ConfidenceLevel: s.Level,
		})
	}
	return d
}

// Sink persists events.
type Sink interface {
	WriteEvent(ctx context.Context, e Event) error
	Close() error
}

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies event ids.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// UUIDv7Generator generates time-ordered UUIDv7 ids.
type UUIDv7Generator struct{}

// NewID returns a fresh UUIDv7.
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Recorder stamps and writes events to a sink.
type Recorder struct {
	sink  Sink
	clock Clock
	ids   IDGenerator
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(c Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// WithIDGenerator overrides the event id source.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) { r.ids = g }
}

// NewRecorder returns a Recorder writing to sink.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{sink: sink, clock: systemClock{}, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes one event. Details are marshaled to JSON; decision and
// feedback start out as empty objects.
func (r *Recorder) Record(ctx context.Context, eventType string, details any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal %s details: %w", eventType, err)
	}
	e := Event{
		ID:           r.ids.NewID(),
		Timestamp:    r.clock.Now().UTC().Format(time.RFC3339Nano),
		EventType:    eventType,
		Details:      raw,
		AIDecision:   json.RawMessage(`{}`),
		UserFeedback: json.RawMessage(`{}`),
	}
	return r.sink.WriteEvent(ctx, e)
}

// Close closes the underlying sink.
func (r *Recorder) Close() error {
	return r.sink.Close()
}
