package canon

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Placeholder tokens substituted for step literals.
const (
	LiteralPlaceholder  = `"{}"`
	VariablePlaceholder = "${}$"
	NumberPlaceholder   = "#"
)

// Keywords are the dialect keywords a step line may start with.
var Keywords = []string{"Дано", "Когда", "Тогда", "И", "Также", "Затем", "Но"}

var (
	// The separator class mirrors unicode.IsSpace so that keyword stripping
	// and whitespace collapsing agree on what a space is.
	keywordPrefix = regexp.MustCompile(`(?i)^(?:Дано|Когда|Тогда|И|Также|Затем|Но)[\s\x{0B}\x{85}\p{Z}]+`)
	doubleQuoted  = regexp.MustCompile(`"[^"]*"`)
	singleQuoted  = regexp.MustCompile(`'[^']*'`)
	variableRef   = regexp.MustCompile(`\$[^$]+\$`)
)

// Canonicalize returns the canonical form of a step.
//
// The normalization pass is repeated until the text stops changing. A single
// pass is not idempotent for stacked keywords ("И и ..."), repeated trailing
// colons, escaped quotes or unbalanced quoting, because each of those can
// expose new input for an earlier step of the pass.
func Canonicalize(text string) string {
	s := FirstLine(norm.NFC.String(text))
	limit := minPasses + strings.Count(s, `\`)
	for i := 0; i < limit; i++ {
		next := normalize(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

const minPasses = 8

// FirstLine returns the first line of a (possibly multi-line) step, trimmed.
// Multi-line library templates carry their signature on the first line and
// a table or doc-string below it.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}

// StripKeyword removes one leading dialect keyword and the whitespace after
// it. Matching is case-insensitive. Text without a keyword is returned as is.
func StripKeyword(line string) string {
	loc := keywordPrefix.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[loc[1]:]
}

// HasKeyword reports whether line starts with a dialect keyword followed by
// whitespace.
func HasKeyword(line string) bool {
	return keywordPrefix.MatchString(line)
}

// normalize is one canonicalization pass. Order matters: quoted literals are
// replaced before numbers so digits inside literals never become "#", and the
// keyword is removed before the trailing colon check.
func normalize(s string) string {
	s = StripKeyword(strings.TrimSpace(s))
	s = strings.ToLower(s)
	for strings.HasSuffix(s, ":") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ":"))
	}
	s = doubleQuoted.ReplaceAllLiteralString(s, LiteralPlaceholder)
	s = singleQuoted.ReplaceAllLiteralString(s, LiteralPlaceholder)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = variableRef.ReplaceAllLiteralString(s, VariablePlaceholder)
	s = replaceNumbers(s)
	return strings.Join(strings.Fields(s), " ")
}

// replaceNumbers substitutes every standalone run of digits. A run is
// standalone when it is not glued to a letter, digit or underscore on either
// side, which is the Unicode-aware reading of \b\d+\b ("шаг1" keeps its digit).
func replaceNumbers(s string) string {
	if strings.IndexFunc(s, unicode.IsDigit) < 0 {
		return s
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); {
		if !unicode.IsDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsDigit(runes[j]) {
			j++
		}
		leftOpen := i == 0 || !isWordRune(runes[i-1])
		rightOpen := j == len(runes) || !isWordRune(runes[j])
		if leftOpen && rightOpen {
			b.WriteString(NumberPlaceholder)
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}

	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
