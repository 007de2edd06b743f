package stepparse

import (
	"regexp"
	"strings"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
)

// ParsedStep holds the features extracted from one step. Any field may be
// empty when extraction finds nothing.
type ParsedStep struct {
	Action  string   `json:"action"`
	Element string   `json:"element_type"`
	Context string   `json:"context"`
	Params  []string `json:"params"`
}

var (
	doubleQuotedParam = regexp.MustCompile(`"([^"]*)"`)
	singleQuotedParam = regexp.MustCompile(`'([^']*)'`)
	variableParam     = regexp.MustCompile(`\$([^$]+)\$`)
)

// Parse extracts the features of a raw step. Action, element and context
// are scanned on the canonical form, so text inside quoted literals never
// triggers a keyword. Parameters are taken from the step's first line with
// the dialect keyword removed, before any placeholder substitution.
func Parse(step string) ParsedStep {
	return ParseCanonical(canon.Canonicalize(step), canon.StripKeyword(canon.FirstLine(step)))
}

// ParseCanonical extracts features from an already canonicalized form and
// the literal-bearing line its parameters come from.
func ParseCanonical(form, line string) ParsedStep {
	return ParsedStep{
		Action:  extractAction(form),
		Element: extractElement(form),
		Context: extractContext(form),
		Params:  extractParams(line),
	}
}

func extractAction(form string) string {
	for _, rule := range actionTable {
		for _, trigger := range rule.triggers {
			if strings.Contains(form, trigger) {
				return trigger
			}
		}
	}

	first, _, _ := strings.Cut(form, " ")
	if first == "" || actionStopWords[first] {
		return ""
	}
	return first
}

func extractElement(form string) string {
	for _, rule := range elementTable {
		for _, trigger := range rule.triggers {
			if !strings.Contains(form, trigger) {
				continue
			}
			for _, q := range rule.qualifiers {
				if strings.Contains(form, q) {
					return rule.qualifiedLabel
				}
			}
			return rule.label
		}
	}
	return ""
}

func extractContext(form string) string {
	for _, c := range contextPhrases {
		if strings.Contains(form, c) {
			return c
		}
	}
	return ""
}

// extractParams returns double-quoted contents, then single-quoted contents,
// then variables re-wrapped as $name$. Order within each group follows the
// text and duplicates are kept.
func extractParams(line string) []string {
	params := []string{}
	for _, m := range doubleQuotedParam.FindAllStringSubmatch(line, -1) {
		params = append(params, m[1])
	}
	for _, m := range singleQuotedParam.FindAllStringSubmatch(line, -1) {
		params = append(params, m[1])
	}
	for _, m := range variableParam.FindAllStringSubmatch(line, -1) {
		params = append(params, "$"+m[1]+"$")
	}
	return params
}

// ActionCategory returns the category an action keyword belongs to by exact
// (case-insensitive) membership in the action table.
func ActionCategory(action string) ActionKind {
	a := strings.ToLower(action)
	for _, rule := range actionTable {
		for _, trigger := range rule.triggers {
			if a == trigger {
				return rule.kind
			}
		}
	}
	return ActionUnknown
}

// ElementCategory returns the category of an element. Containment in either
// direction counts, so both normalized labels and literal phrases resolve.
// An empty element is unknown.
func ElementCategory(element string) ElementKind {
	e := strings.ToLower(element)
	if e == "" {
		return ElementUnknown
	}
	for _, rule := range elementTable {
		for _, trigger := range rule.triggers {
			if strings.Contains(e, trigger) || strings.Contains(trigger, e) {
				return rule.kind
			}
		}
	}
	return ElementUnknown
}

// ActionsCompatible reports whether two actions share a known category.
func ActionsCompatible(a, b string) bool {
	ka := ActionCategory(a)
	return ka != ActionUnknown && ka == ActionCategory(b)
}

// ElementsCompatible reports whether two elements share a known category.
func ElementsCompatible(a, b string) bool {
	ka := ElementCategory(a)
	return ka != ElementUnknown && ka == ElementCategory(b)
}

// ContextsEquivalent reports whether two non-empty contexts are equal or a
// known synonym pair.
func ContextsEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	for _, pair := range contextSynonyms {
		if (a == pair[0] && b == pair[1]) || (a == pair[1] && b == pair[0]) {
			return true
		}
	}
	return false
}
