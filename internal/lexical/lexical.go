package lexical

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Nikolay-Shirokov/va-ai/internal/library"
)

// Thresholds and result caps for the two lookup contexts. Validation is
// conservative because a wrong suggestion there looks like an approved
// substitute; search favours recall since a person reviews the results.
const (
	ValidationThreshold = 0.7
	ValidationLimit     = 5

	SearchThreshold = 0.3
	SearchLimit     = 10
)

// Candidate is a template scored against a query.
type Candidate struct {
	Template  library.StepTemplate
	Canonical string
	Ratio     float64
}

// Ratio returns the matching-blocks similarity of a and b in [0, 1].
// It is 1 for identical strings (including two empty ones) and symmetric:
// the pair is always scored in lexical order.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if b < a {
		a, b = b, a
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// FindExact returns the template whose canonical form equals form.
func FindExact(lib *library.Library, form string) (library.StepTemplate, bool) {
	return lib.FindExact(form)
}

// FindSimilar scores every distinct canonical form whose owning template is
// in pool and returns those scoring strictly above threshold, best first,
// at most topN of them. A topN of zero or less means no cap.
func FindSimilar(lib *library.Library, form string, pool library.Pool, threshold float64, topN int) []Candidate {
	if pool.Empty() {
		return nil
	}

	q := runes(form)
	var out []Candidate
	for _, e := range lib.Entries() {
		if !pool.Contains(e.Owner) {
			continue
		}
		r := score(form, q, e.Canonical, threshold)
		if r <= threshold {
			continue
		}
		out = append(out, Candidate{
			Template:  lib.Template(e.Owner),
			Canonical: e.Canonical,
			Ratio:     r,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ratio > out[j].Ratio
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// score is Ratio with the cheap upper bounds checked first. It returns an
// upper bound (not the ratio) when that bound already rules the pair out.
func score(a string, ar []string, b string, threshold float64) float64 {
	if a == b {
		return 1
	}
	br := runes(b)

	la, lb := len(ar), len(br)
	if bound := 2 * float64(min(la, lb)) / float64(la+lb); bound <= threshold {
		return bound
	}

	x, y := ar, br
	if b < a {
		x, y = br, ar
	}
	m := difflib.NewMatcher(x, y)
	if bound := m.QuickRatio(); bound <= threshold {
		return bound
	}
	return m.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
