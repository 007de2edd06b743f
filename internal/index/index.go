package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
	"github.com/Nikolay-Shirokov/va-ai/internal/library"
)

// Version is the artifact format version.
const Version = "1.0"

// Artifact file names.
const (
	MetadataFile  = "index.json"
	KeywordsFile  = "by-keywords.json"
	CategoryFile  = "by-category.json"
	FrequencyFile = "frequency.json"
)

// Metadata describes an index.
type Metadata struct {
	Version         string `json:"version"`
	CreatedAt       string `json:"created_at"`
	TotalSteps      int    `json:"total_steps"`
	TotalKeywords   int    `json:"total_keywords"`
	TotalCategories int    `json:"total_categories"`
	LibraryPath     string `json:"library_path"`
	LibraryDigest   string `json:"library_digest"`
}

// Index holds every artifact in memory.
type Index struct {
	Metadata   Metadata
	Keywords   map[string][]int
	Categories map[string][]int
	Frequency  map[int]int
}

var (
	quotedSpan = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	word       = regexp.MustCompile(`[а-яёa-z]+`)
)

var stopWords = map[string]bool{
	"я": true, "в": true, "из": true, "на": true, "и": true, "с": true,
	"у": true, "к": true, "по": true, "от": true, "до": true, "за": true,
}

// Tokenize returns the distinct search tokens of a step in first-seen order:
// words of the keyword-stripped first line, lower-cased, with quoted
// literals, single letters and stop words removed.
func Tokenize(step string) []string {
	line := strings.ToLower(canon.StripKeyword(canon.FirstLine(step)))
	line = quotedSpan.ReplaceAllString(line, "")

	seen := map[string]bool{}
	var out []string
	for _, w := range word.FindAllString(line, -1) {
		if len([]rune(w)) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Build computes the index of lib. suggested lists, per unmatched step, the
// texts of the templates that were suggested for it; each text counts once
// per occurrence toward the first template carrying it.
func Build(lib *library.Library, libraryPath string, suggested [][]string, now time.Time) *Index {
	idx := &Index{
		Keywords:   map[string][]int{},
		Categories: lib.CategoryIndex(),
		Frequency:  map[int]int{},
	}

	byText := map[string]int{}
	for _, t := range lib.Templates() {
		for _, tok := range Tokenize(t.Text) {
			idx.Keywords[tok] = append(idx.Keywords[tok], t.Position)
		}
		if _, ok := byText[t.Text]; !ok {
			byText[t.Text] = t.Position
		}
	}

	for _, texts := range suggested {
		for _, text := range texts {
			if pos, ok := byText[text]; ok {
				idx.Frequency[pos]++
			}
		}
	}

	idx.Metadata = Metadata{
		Version:         Version,
		CreatedAt:       now.Format(time.RFC3339),
		TotalSteps:      lib.Len(),
		TotalKeywords:   len(idx.Keywords),
		TotalCategories: len(idx.Categories),
		LibraryPath:     libraryPath,
		LibraryDigest:   Digest(lib),
	}
	return idx
}

// digestDomain separates library digests from other SHA-256 uses.
const digestDomain = "vastep/library/v1"

// Digest identifies the content of lib: the ordered text and type of every
// template.
func Digest(lib *library.Library) string {
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	for _, t := range lib.Templates() {
		h.Write([]byte(t.Text))
		h.Write([]byte{0x00})
		h.Write([]byte(t.FullType))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the positions of templates containing every token of the
// query, in ascending order. A query without tokens matches nothing.
func (idx *Index) Lookup(query string) []int {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	counts := map[int]int{}
	for _, tok := range tokens {
		for _, pos := range idx.Keywords[tok] {
			counts[pos]++
		}
	}
	var out []int
	for pos, n := range counts {
		if n == len(tokens) {
			out = append(out, pos)
		}
	}
	sort.Ints(out)
	return out
}

// MostSuggested returns up to n template positions ordered by descending
// suggestion count, ties by position.
func (idx *Index) MostSuggested(n int) []int {
	out := make([]int, 0, len(idx.Frequency))
	for pos := range idx.Frequency {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := idx.Frequency[out[i]], idx.Frequency[out[j]]
		if fi != fj {
			return fi > fj
		}
		return out[i] < out[j]
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Write stores every artifact in dir, creating it if needed.
func (idx *Index) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Path: dir, Err: err}
	}
	files := []struct {
		name string
		v    any
	}{
		{MetadataFile, idx.Metadata},
		{KeywordsFile, idx.Keywords},
		{CategoryFile, idx.Categories},
		{FrequencyFile, idx.Frequency},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every artifact from dir.
func Load(dir string) (*Index, error) {
	idx := &Index{}
	targets := []struct {
		name string
		v    any
	}{
		{MetadataFile, &idx.Metadata},
		{KeywordsFile, &idx.Keywords},
		{CategoryFile, &idx.Categories},
		{FrequencyFile, &idx.Frequency},
	}
	for _, t := range targets {
		if err := readJSON(filepath.Join(dir, t.name), t.v); err != nil {
			return nil, err
		}
	}
	if idx.Keywords == nil {
		idx.Keywords = map[string][]int{}
	}
	if idx.Categories == nil {
		idx.Categories = map[string][]int{}
	}
	if idx.Frequency == nil {
		idx.Frequency = map[int]int{}
	}
	return idx, nil
}

// LoadCategories returns the category map stored in dir when it was built
// from lib's exact content and equals the map lib derives itself. Any other
// index is reported as ErrStale.
func LoadCategories(dir string, lib *library.Library) (map[string][]int, error) {
	var meta Metadata
	metaPath := filepath.Join(dir, MetadataFile)
	if err := readJSON(metaPath, &meta); err != nil {
		return nil, err
	}
	if meta.TotalSteps != lib.Len() {
		return nil, &Error{
			Path: metaPath,
			Err:  fmt.Errorf("%w: total_steps %d, library has %d", ErrStale, meta.TotalSteps, lib.Len()),
		}
	}
	if meta.LibraryDigest != Digest(lib) {
		return nil, &Error{
			Path: metaPath,
			Err:  fmt.Errorf("%w: library content changed since the index was built", ErrStale),
		}
	}

	var cats map[string][]int
	catPath := filepath.Join(dir, CategoryFile)
	if err := readJSON(catPath, &cats); err != nil {
		return nil, err
	}
	if !maps.EqualFunc(cats, lib.CategoryIndex(), slices.Equal[[]int]) {
		return nil, &Error{
			Path: catPath,
			Err:  fmt.Errorf("%w: category map differs from the library's", ErrStale),
		}
	}
	return cats, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
