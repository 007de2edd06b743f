package metrics

import (
	"encoding/json"
	"sort"
)

const (
	topUnmatched       = 5
	topLowConfidence   = 5
	lowConfidenceBelow = 0.8
)

// TypeCount is the number of events of one type.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// StepCount is how often a step went unmatched.
type StepCount struct {
	Step  string `json:"step"`
	Count int    `json:"count"`
}

// LowConfidence is an unmatched step whose best suggestion is a weak
// semantic fit.
type LowConfidence struct {
	Step       string  `json:"step"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Analysis summarizes an event log.
type Analysis struct {
	Total         int             `json:"total"`
	ByType        []TypeCount     `json:"by_type"`
	TopUnmatched  []StepCount     `json:"top_unmatched"`
	LowConfidence []LowConfidence `json:"low_confidence"`
}

// storedSuggestion decodes a suggestion leniently; logs written by older
// tools carry only text and semantic_match.
type storedSuggestion struct {
	Text          string `json:"text"`
	SemanticMatch *struct {
		Confidence *float64 `json:"confidence"`
	} `json:"semantic_match"`
}

type storedDetails struct {
	Step        string             `json:"step"`
	Suggestions []storedSuggestion `json:"suggestions"`
}

// Analyze computes type distribution, the most frequent unmatched steps and
// the lowest-confidence best suggestions. Events with undecodable details
// count toward the totals only.
func Analyze(events []Event) Analysis {
	a := Analysis{
		Total:         len(events),
		ByType:        []TypeCount{},
		TopUnmatched:  []StepCount{},
		LowConfidence: []LowConfidence{},
	}

	byType := map[string]int{}
	stepCounts := map[string]int{}
	var stepOrder []string

	for _, e := range events {
		byType[e.EventType]++
		if e.EventType != EventStepNotFound {
			continue
		}

		var d storedDetails
		if err := json.Unmarshal(e.Details, &d); err != nil {
			continue
		}
		if _, seen := stepCounts[d.Step]; !seen {
			stepOrder = append(stepOrder, d.Step)
		}
		stepCounts[d.Step]++

		if len(d.Suggestions) == 0 || d.Suggestions[0].SemanticMatch == nil {
			continue
		}
		best := d.Suggestions[0]
		conf := 1.0
		if best.SemanticMatch.Confidence != nil {
			conf = *best.SemanticMatch.Confidence
		}
		if conf < lowConfidenceBelow {
			a.LowConfidence = append(a.LowConfidence, LowConfidence{
				Step:       d.Step,
				Suggestion: best.Text,
				Confidence: conf,
			})
		}
	}

	for t, n := range byType {
		a.ByType = append(a.ByType, TypeCount{EventType: t, Count: n})
	}
	sort.Slice(a.ByType, func(i, j int) bool {
		if a.ByType[i].Count != a.ByType[j].Count {
			return a.ByType[i].Count > a.ByType[j].Count
		}
		return a.ByType[i].EventType < a.ByType[j].EventType
	})

	for _, step := range stepOrder {
		a.TopUnmatched = append(a.TopUnmatched, StepCount{Step: step, Count: stepCounts[step]})
	}
	sort.SliceStable(a.TopUnmatched, func(i, j int) bool {
		return a.TopUnmatched[i].Count > a.TopUnmatched[j].Count
	})
	if len(a.TopUnmatched) > topUnmatched {
		a.TopUnmatched = a.TopUnmatched[:topUnmatched]
	}

	sort.SliceStable(a.LowConfidence, func(i, j int) bool {
		return a.LowConfidence[i].Confidence < a.LowConfidence[j].Confidence
	})
	if len(a.LowConfidence) > topLowConfidence {
		a.LowConfidence = a.LowConfidence[:topLowConfidence]
	}
	return a
}

// SuggestedTexts returns, for every step_not_found event, the texts of its
// suggestions in order.
func SuggestedTexts(events []Event) [][]string {
	var out [][]string
	for _, e := range events {
		if e.EventType != EventStepNotFound {
			continue
		}
		var d storedDetails
		if err := json.Unmarshal(e.Details, &d); err != nil {
			continue
		}
		texts := make([]string, 0, len(d.Suggestions))
		for _, s := range d.Suggestions {
			texts = append(texts, s.Text)
		}
		out = append(out, texts)
	}
	return out
}
