package semantic

import (
	"fmt"
	"math"
	"strings"

	"github.com/Nikolay-Shirokov/va-ai/internal/stepparse"
)

// Feature weights. They sum to 1.
const (
	WeightAction  = 0.40
	WeightElement = 0.40
	WeightContext = 0.15
	WeightParams  = 0.05
)

// Confidence levels.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Warning prefixes. A warning starting with either critical prefix makes a
// substitution unsafe.
const (
	warnAction  = "Different action type"
	warnElement = "Different UI element type"
	warnContext = "Different context"
	warnParams  = "Different number of parameters"
)

var criticalWarnings = []string{warnAction, warnElement}

// Match is the outcome of comparing an original step with a suggestion.
type Match struct {
	Action     bool     `json:"action"`
	Element    bool     `json:"element"`
	Context    bool     `json:"context"`
	Params     bool     `json:"params"`
	Confidence float64  `json:"confidence"`
	Safe       bool     `json:"is_safe"`
	Warnings   []string `json:"warnings"`
}

// Compare parses both steps and compares their features.
func Compare(original, suggested string) Match {
	return CompareParsed(stepparse.Parse(original), stepparse.Parse(suggested))
}

// CompareParsed compares two already parsed steps.
func CompareParsed(orig, sugg stepparse.ParsedStep) Match {
	m := Match{
		Action:   actionsAgree(orig.Action, sugg.Action),
		Element:  elementsAgree(orig.Element, sugg.Element),
		Context:  contextsAgree(orig.Context, sugg.Context),
		Params:   paramsAgree(orig.Params, sugg.Params),
		Warnings: []string{},
	}

	if !m.Action {
		m.Warnings = append(m.Warnings, fmt.Sprintf("%s: '%s' vs '%s'", warnAction, orig.Action, sugg.Action))
	}
	if !m.Element {
		m.Warnings = append(m.Warnings, fmt.Sprintf("%s: '%s' vs '%s'", warnElement, orig.Element, sugg.Element))
	}
	if !m.Context {
		m.Warnings = append(m.Warnings, fmt.Sprintf("%s: '%s' vs '%s'", warnContext, orig.Context, sugg.Context))
	}
	if !m.Params {
		m.Warnings = append(m.Warnings, fmt.Sprintf("%s: %d vs %d", warnParams, len(orig.Params), len(sugg.Params)))
	}

	m.Confidence = Confidence(m.Action, m.Element, m.Context, m.Params)
	m.Safe = safe(m)
	return m
}

// Confidence returns the weighted agreement score rounded to two decimals.
func Confidence(action, element, context, params bool) float64 {
	var score float64
	if action {
		score += WeightAction
	}
	if element {
		score += WeightElement
	}
	if context {
		score += WeightContext
	}
	if params {
		score += WeightParams
	}
	return math.Round(score*100) / 100
}

// Level buckets a confidence score. Bounds are exclusive: 0.8 is medium and
// 0.6 is low.
func Level(confidence float64) string {
	switch {
	case confidence > 0.8:
		return LevelHigh
	case confidence > 0.6:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Level returns the confidence level of m.
func (m Match) Level() string {
	return Level(m.Confidence)
}

// A missing action or element never counts against a suggestion.
func actionsAgree(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return stepparse.ActionsCompatible(a, b)
}

func elementsAgree(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return stepparse.ElementsCompatible(a, b)
}

// Dropping the original's context generalizes the step and is accepted;
// introducing one the original lacks is not.
func contextsAgree(orig, sugg string) bool {
	switch {
	case orig == "" && sugg == "":
		return true
	case orig == "":
		return false
	case sugg == "":
		return true
	default:
		return stepparse.ContextsEquivalent(orig, sugg)
	}
}

// Library templates use placeholders for parameters, so only a count
// difference above one is treated as disagreement.
func paramsAgree(a, b []string) bool {
	d := len(a) - len(b)
	return d >= -1 && d <= 1
}

func safe(m Match) bool {
	if !m.Action || !m.Element {
		return false
	}
	for _, w := range m.Warnings {
		for _, c := range criticalWarnings {
			if strings.Contains(w, c) {
				return false
			}
		}
	}
	return true
}
