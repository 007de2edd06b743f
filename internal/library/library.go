package library

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
)

// StepTemplate is one library entry. Templates are created at load time and
// never mutated.
type StepTemplate struct {
	// Position is the template's index in load order.
	Position int `json:"position"`

	// Text is the raw step text. Multi-line templates carry their signature
	// on the first line.
	Text string `json:"step"`

	// FullType is the dot-separated category path, e.g. "UI.Кнопки".
	FullType string `json:"full_type"`

	Description string `json:"description,omitempty"`

	// Category is the first segment of FullType.
	Category string `json:"category"`

	// Subcategory is the remainder of FullType after the first dot, or "".
	Subcategory string `json:"subcategory,omitempty"`
}

// CollisionPolicy decides which template owns a shared canonical form.
type CollisionPolicy string

const (
	CollisionLast   CollisionPolicy = "last"
	CollisionFirst  CollisionPolicy = "first"
	CollisionReject CollisionPolicy = "reject"
)

// ParseCollisionPolicy converts a configuration string to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CollisionLast, CollisionFirst, CollisionReject:
		return p, nil
	case "":
		return CollisionLast, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want first, last or reject)", s)
	}
}

// Collision records two templates that canonicalize to the same form.
type Collision struct {
	Canonical string `json:"canonical"`

	// Existing is the position that owned the form when Incoming arrived.
	Existing int `json:"existing"`
	Incoming int `json:"incoming"`
}

// Entry is a distinct canonical form and the template that owns it.
type Entry struct {
	Canonical string
	Owner     int
}

// Library is an immutable, loaded set of step templates.
type Library struct {
	source string
	policy CollisionPolicy

	templates []StepTemplate
	canonical []string // by template position

	// entries holds distinct canonical forms in first-occurrence order.
	entries     []Entry
	byCanonical map[string]int

	categories map[string][]int
	collisions []Collision
}

// Option configures library construction.
type Option func(*options)

type options struct {
	policy CollisionPolicy
	logger *slog.Logger
	source string
}

// WithCollisionPolicy sets the canonical collision policy. The default is
// CollisionLast.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger used to report load statistics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{policy: CollisionLast}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New builds a library from in-memory records. Records with an empty text
// are skipped.
func New(records []Record, opts ...Option) (*Library, error) {
	return build(records, buildOptions(opts))
}

func build(records []Record, o options) (*Library, error) {
	lib := &Library{
		source:      o.source,
		policy:      o.policy,
		byCanonical: make(map[string]int),
		categories:  make(map[string][]int),
	}

	for _, rec := range records {
		if rec.Text == "" {
			continue
		}

		pos := len(lib.templates)
		category, subcategory, _ := strings.Cut(rec.Type, ".")
		lib.templates = append(lib.templates, StepTemplate{
			Position:    pos,
			Text:        rec.Text,
			FullType:    rec.Type,
			Description: rec.Description,
			Category:    category,
			Subcategory: subcategory,
		})

		form := canon.Canonicalize(rec.Text)
		lib.canonical = append(lib.canonical, form)

		if category != "" {
			lib.categories[category] = append(lib.categories[category], pos)
			if subcategory != "" {
				key := category + "." + subcategory
				lib.categories[key] = append(lib.categories[key], pos)
			}
		}

		idx, seen := lib.byCanonical[form]
		if !seen {
			lib.byCanonical[form] = len(lib.entries)
			lib.entries = append(lib.entries, Entry{Canonical: form, Owner: pos})
			continue
		}

		entry := &lib.entries[idx]
		lib.collisions = append(lib.collisions, Collision{
			Canonical: form,
			Existing:  entry.Owner,
			Incoming:  pos,
		})
		switch lib.policy {
		case CollisionReject:
			return nil, &LoadError{
				Code:    ErrCodeCollision,
				Path:    o.source,
				Message: fmt.Sprintf("templates %d and %d share canonical form %q", entry.Owner, pos, form),
			}
		case CollisionFirst:
		default:
			entry.Owner = pos
		}
	}

	o.logger.Info("step library loaded",
		"source", lib.source,
		"templates", len(lib.templates),
		"canonical_forms", len(lib.entries),
		"categories", len(lib.categories),
	)
	if len(lib.collisions) > 0 {
		o.logger.Warn("canonical collisions in step library",
			"count", len(lib.collisions),
			"policy", string(lib.policy),
		)
	}

	return lib, nil
}

// Source returns the path or name the library was parsed from.
func (l *Library) Source() string { return l.source }

// Policy returns the collision policy the library was built with.
func (l *Library) Policy() CollisionPolicy { return l.policy }

// Len returns the number of templates.
func (l *Library) Len() int { return len(l.templates) }

// Template returns the template at pos.
func (l *Library) Template(pos int) StepTemplate { return l.templates[pos] }

// Templates returns a copy of all templates in load order.
func (l *Library) Templates() []StepTemplate {
	out := make([]StepTemplate, len(l.templates))
	copy(out, l.templates)
	return out
}

// Canonical returns the canonical form of the template at pos.
func (l *Library) Canonical(pos int) string { return l.canonical[pos] }

// Entries returns the distinct canonical forms in first-occurrence order.
// The returned slice is shared and must not be modified.
func (l *Library) Entries() []Entry { return l.entries }

// FindExact returns the template owning the canonical form, if any.
func (l *Library) FindExact(form string) (StepTemplate, bool) {
	idx, ok := l.byCanonical[form]
	if !ok {
		return StepTemplate{}, false
	}
	return l.templates[l.entries[idx].Owner], true
}

// Collisions returns every canonical collision seen while loading.
func (l *Library) Collisions() []Collision {
	out := make([]Collision, len(l.collisions))
	copy(out, l.collisions)
	return out
}

// Categories returns the sorted category index keys. Keys are categories
// and category.subcategory paths.
func (l *Library) Categories() []string {
	keys := make([]string, 0, len(l.categories))
	for k := range l.categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CategoryIndex returns a copy of the category index.
func (l *Library) CategoryIndex() map[string][]int {
	out := make(map[string][]int, len(l.categories))
	for k, v := range l.categories {
		out[k] = append([]int(nil), v...)
	}
	return out
}

// Pool returns the templates eligible for a category-scoped search. An empty
// category selects the whole library; the subcategory only narrows a
// non-empty category.
func (l *Library) Pool(category, subcategory string) Pool {
	key := FilterKey(category, subcategory)
	if key == "" {
		return Pool{}
	}
	return NewPool(l.categories[key])
}

// FilterKey returns the category index key for a filter.
func FilterKey(category, subcategory string) string {
	if category == "" {
		return ""
	}
	if subcategory == "" {
		return category
	}
	return category + "." + subcategory
}
