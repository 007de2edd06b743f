package resolve

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
	"github.com/Nikolay-Shirokov/va-ai/internal/lexical"
	"github.com/Nikolay-Shirokov/va-ai/internal/library"
	"github.com/Nikolay-Shirokov/va-ai/internal/semantic"
	"github.com/Nikolay-Shirokov/va-ai/internal/stepparse"
)

// Mode selects whether suggestions are annotated with semantic detail.
type Mode int

const (
	ModeBasic Mode = iota
	ModeEnhanced
)

func (m Mode) String() string {
	if m == ModeEnhanced {
		return "enhanced"
	}
	return "basic"
}

// Comparator compares the features of an original step with a suggestion.
type Comparator func(orig, sugg stepparse.ParsedStep) semantic.Match

// Suggestion is a ranked substitute for an unmatched step.
type Suggestion struct {
	Template library.StepTemplate `json:"template"`
	Text     string               `json:"text"`
	Ratio    float64              `json:"ratio"`

	// Set in ModeEnhanced when the comparison succeeded.
	Parsed   *stepparse.ParsedStep `json:"parsed,omitempty"`
	Semantic *semantic.Match       `json:"semantic_match,omitempty"`
	Level    string                `json:"confidence_level,omitempty"`
}

// Resolution is the outcome of resolving one step.
type Resolution struct {
	Step      string `json:"step"`
	Canonical string `json:"canonical"`
	Matched   bool   `json:"matched"`

	// Match is the exactly matching template when Matched is true.
	Match *library.StepTemplate `json:"match,omitempty"`

	// Parsed holds the step's own features in ModeEnhanced.
	Parsed *stepparse.ParsedStep `json:"parsed,omitempty"`

	Suggestions []Suggestion `json:"suggestions"`
}

// Resolver resolves and searches steps against one library.
type Resolver struct {
	lib        *library.Library
	mode       Mode
	threshold  float64
	limit      int
	categories map[string][]int
	compare    Comparator
	logger     *slog.Logger

	features sync.Map // template position -> stepparse.ParsedStep
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMode sets the resolution mode. The default is ModeEnhanced.
func WithMode(m Mode) Option {
	return func(r *Resolver) {
		r.mode = m
	}
}

// WithValidation sets the similarity threshold and suggestion cap used by
// Resolve.
func WithValidation(threshold float64, limit int) Option {
	return func(r *Resolver) {
		r.threshold = threshold
		r.limit = limit
	}
}

// WithCategoryIndex makes category-scoped searches use an externally built
// index instead of the library's own. The caller is responsible for the
// index describing the same library.
func WithCategoryIndex(idx map[string][]int) Option {
	return func(r *Resolver) {
		r.categories = idx
	}
}

// WithComparator replaces the semantic comparison.
func WithComparator(c Comparator) Option {
	return func(r *Resolver) {
		r.compare = c
	}
}

// WithLogger sets the logger for per-candidate failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New returns a Resolver over lib.
func New(lib *library.Library, opts ...Option) *Resolver {
	r := &Resolver{
		lib:       lib,
		mode:      ModeEnhanced,
		threshold: lexical.ValidationThreshold,
		limit:     lexical.ValidationLimit,
		compare:   semantic.CompareParsed,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Library returns the library the resolver serves.
func (r *Resolver) Library() *library.Library { return r.lib }

// Mode returns the resolver's mode.
func (r *Resolver) Mode() Mode { return r.mode }

// Resolve checks step against the library. It never fails: a comparison
// that fails for one suggestion leaves that suggestion unannotated and the
// rest are still compared.
func (r *Resolver) Resolve(step string) Resolution {
	form := canon.Canonicalize(step)
	res := Resolution{
		Step:        step,
		Canonical:   form,
		Suggestions: []Suggestion{},
	}

	if tmpl, ok := lexical.FindExact(r.lib, form); ok {
		res.Matched = true
		res.Match = &tmpl
		return res
	}

	var orig stepparse.ParsedStep
	if r.mode == ModeEnhanced {
		orig = stepparse.ParseCanonical(form, canon.StripKeyword(canon.FirstLine(step)))
		res.Parsed = &orig
	}

	for _, c := range lexical.FindSimilar(r.lib, form, library.Pool{}, r.threshold, r.limit) {
		s := Suggestion{
			Template: c.Template,
			Text:     c.Template.Text,
			Ratio:    c.Ratio,
		}
		if r.mode == ModeEnhanced {
			if err := r.annotate(&s, orig); err != nil {
				r.logger.Warn("semantic comparison failed",
					"step", step,
					"suggestion", c.Template.Text,
					"error", err,
				)
			}
		}
		res.Suggestions = append(res.Suggestions, s)
	}

	return res
}

func (r *Resolver) annotate(s *Suggestion, orig stepparse.ParsedStep) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	parsed := r.templateFeatures(s.Template)
	m := r.compare(orig, parsed)

	s.Parsed = &parsed
	s.Semantic = &m
	s.Level = m.Level()
	return nil
}

// templateFeatures parses a template once per resolver.
func (r *Resolver) templateFeatures(t library.StepTemplate) stepparse.ParsedStep {
	if v, ok := r.features.Load(t.Position); ok {
		return v.(stepparse.ParsedStep)
	}
	p := stepparse.ParseCanonical(r.lib.Canonical(t.Position), canon.StripKeyword(canon.FirstLine(t.Text)))
	r.features.Store(t.Position, p)
	return p
}

// pool returns the search pool for a category filter.
func (r *Resolver) pool(category, subcategory string) library.Pool {
	if r.categories == nil {
		return r.lib.Pool(category, subcategory)
	}
	key := library.FilterKey(category, subcategory)
	if key == "" {
		return library.Pool{}
	}
	return library.NewPool(r.categories[key])
}
