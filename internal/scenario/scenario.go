package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

// ErrEncoding is returned for input that is neither UTF-8 nor BOM-marked
// UTF-16.
var ErrEncoding = errors.New("scenario is not valid UTF-8; save it as UTF-8")

// Issue kinds.
const (
	KindHeader    = "header"
	KindStructure = "structure"
	KindFeature   = "feature"
	KindStep      = "step"
	KindVariable  = "variable"
	KindSyntax    = "syntax"
)

// Issue is one error or warning, anchored to a 1-based line. Line 0 means
// the whole file.
type Issue struct {
	Line       int    `json:"line"`
	Kind       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`

	// Set for step issues.
	Step        string               `json:"step,omitempty"`
	Suggestions []resolve.Suggestion `json:"similar_steps,omitempty"`
}

// Stats counts what a run saw.
type Stats struct {
	Features     int `json:"features"`
	Scenarios    int `json:"scenarios"`
	TotalSteps   int `json:"total_steps"`
	ValidSteps   int `json:"valid_steps"`
	InvalidSteps int `json:"invalid_steps"`
}

// Result is the outcome of validating one file.
type Result struct {
	File     string  `json:"file"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Stats    Stats   `json:"stats"`
}

// Valid reports whether the run found no errors. Warnings do not count.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// StepErrors returns the unresolved-step errors.
func (r *Result) StepErrors() []Issue {
	var out []Issue
	for _, e := range r.Errors {
		if e.Kind == KindStep {
			out = append(out, e)
		}
	}
	return out
}

// Validator checks scenarios with one resolver.
type Validator struct {
	resolver *resolve.Resolver
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithRecorder records a step_not_found event for every unresolved step.
func WithRecorder(r *metrics.Recorder) Option {
	return func(v *Validator) { v.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New returns a Validator.
func New(r *resolve.Resolver, opts ...Option) *Validator {
	v := &Validator{resolver: r}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// ValidateFile reads and validates the scenario at path.
func (v *Validator) ValidateFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return v.Validate(ctx, path, f)
}

// Validate validates a scenario read from r. name labels the result and
// recorded events.
func (v *Validator) Validate(ctx context.Context, name string, r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	run := &run{
		v:   v,
		ctx: ctx,
		res: &Result{File: name, Errors: []Issue{}, Warnings: []Issue{}},
	}
	lines := splitLines(text)
	run.checkHeaders(lines)
	run.checkFeatures(lines)
	run.checkSteps(lines)
	run.checkVariables(lines)
	run.checkQuotes(lines)

	run.record(metrics.EventValidation, metrics.ValidationRunDetails{
		File:         name,
		Valid:        run.res.Valid(),
		Errors:       len(run.res.Errors),
		Warnings:     len(run.res.Warnings),
		TotalSteps:   run.res.Stats.TotalSteps,
		ValidSteps:   run.res.Stats.ValidSteps,
		InvalidSteps: run.res.Stats.InvalidSteps,
	})

	v.logger.Debug("scenario validated",
		"file", name,
		"steps", run.res.Stats.TotalSteps,
		"errors", len(run.res.Errors),
		"warnings", len(run.res.Warnings),
	)
	return run.res, nil
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decode returns the scenario text. UTF-16 input must carry a BOM.
func decode(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, utf16LEBOM) || bytes.HasPrefix(raw, utf16BEBOM) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return string(out), nil
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", ErrEncoding
	}
	return string(raw), nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// run accumulates one validation.
type run struct {
	v   *Validator
	ctx context.Context
	res *Result
}

func (r *run) errorf(line int, kind, suggestion, format string, args ...any) {
	r.res.Errors = append(r.res.Errors, Issue{
		Line:       line,
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	})
}

func (r *run) warnf(line int, kind, suggestion, format string, args ...any) {
	r.res.Warnings = append(r.res.Warnings, Issue{
		Line:       line,
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	})
}

const (
	headerLines   = 5
	featurePrefix = "Функционал:"
	scenarioStart = "Сценарий:"
	contextStart  = "Контекст:"
)

func (r *run) checkHeaders(lines []string) {
	head := strings.Join(lines[:min(headerLines, len(lines))], "\n")

	if !strings.Contains(head, "# encoding:") && !strings.Contains(head, "# -*- coding:") {
		r.errorf(1, KindHeader, "Добавьте в начало файла: # encoding: utf-8",
			"Отсутствует строка с кодировкой")
	}
	if !strings.Contains(head, "# language:") {
		r.errorf(1, KindHeader, "Добавьте в начало файла: # language: ru",
			"Отсутствует строка с языком")
	}
}

func (r *run) checkFeatures(lines []string) {
	untitledLen := utf8.RuneCountInString(featurePrefix) + 1
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, featurePrefix) {
			r.res.Stats.Features++
			if utf8.RuneCountInString(s) <= untitledLen {
				r.warnf(i+1, KindFeature, `Добавьте название после "Функционал:"`,
					"Функционал без названия")
			}
		}
		if strings.HasPrefix(s, scenarioStart) {
			r.res.Stats.Scenarios++
		}
	}
	if r.res.Stats.Features == 0 {
		r.errorf(0, KindStructure, `Добавьте блок "Функционал:" перед сценариями`,
			`Отсутствует блок "Функционал:"`)
	}
}

// checkSteps resolves each step line of a Сценарий or Контекст block. A
// block ends at a blank line or at the next Функционал/Сценарий header.
func (r *run) checkSteps(lines []string) {
	inBlock := false
	for i, line := range lines {
		s := strings.TrimSpace(line)

		if strings.HasPrefix(s, scenarioStart) || strings.HasPrefix(s, contextStart) {
			inBlock = true
			continue
		}
		if inBlock && (s == "" || strings.HasPrefix(s, featurePrefix)) {
			inBlock = false
			continue
		}
		if inBlock && canon.HasKeyword(s) {
			r.res.Stats.TotalSteps++
			r.checkStep(i+1, s)
		}
	}
}

func (r *run) checkStep(line int, step string) {
	res := r.v.resolver.Resolve(step)
	if res.Matched {
		r.res.Stats.ValidSteps++
		return
	}
	r.res.Stats.InvalidSteps++

	issue := Issue{
		Line:       line,
		Kind:       KindStep,
		Step:       step,
		Message:    "Шаг не найден в библиотеке",
		Suggestion: "Проверьте правильность написания шага или используйте другой шаг из библиотеки",
	}
	if len(res.Suggestions) > 0 {
		issue.Suggestions = res.Suggestions
		issue.Suggestion = "Возможно, вы имели в виду один из этих шагов"
	}
	r.res.Errors = append(r.res.Errors, issue)

	r.record(metrics.EventStepNotFound, metrics.NewStepNotFound(r.res.File, line, res))
}

// record emits an event when a recorder is configured. Failures are logged
// and never affect the result.
func (r *run) record(eventType string, details any) {
	if r.v.recorder == nil {
		return
	}
	if err := r.v.recorder.Record(r.ctx, eventType, details); err != nil {
		r.v.logger.Warn("failed to record metrics event", "file", r.res.File, "type", eventType, "error", err)
	}
}

var (
	variableUse = regexp.MustCompile(`\$([^$]+)\$`)
	variableDef = regexp.MustCompile(`(?:переменную|как) "([^"]+)"`)
)

// checkVariables warns about $name$ references that no line defines through
// `переменную "name"` or `как "name"`. Definitions anywhere in the file
// count.
func (r *run) checkVariables(lines []string) {
	defined := map[string]bool{}
	for _, line := range lines {
		for _, m := range variableDef.FindAllStringSubmatch(line, -1) {
			defined[m[1]] = true
		}
	}

	for i, line := range lines {
		seen := map[string]bool{}
		for _, m := range variableUse.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if defined[name] || seen[name] {
				continue
			}
			seen[name] = true
			r.warnf(i+1, KindVariable,
				fmt.Sprintf("Добавьте шаг для определения переменной \"%s\" перед её использованием", name),
				"Переменная \"$%s$\" используется, но не определена", name)
		}
	}
}

func (r *run) checkQuotes(lines []string) {
	for i, line := range lines {
		if strings.Contains(line, "'") && canon.HasKeyword(strings.TrimSpace(line)) {
			r.errorf(i+1, KindSyntax, `Замените одинарные кавычки ' на двойные "`,
				"Использованы одинарные кавычки вместо двойных")
		}
	}
}
