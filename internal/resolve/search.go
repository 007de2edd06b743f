package resolve

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Nikolay-Shirokov/va-ai/internal/canon"
	"github.com/Nikolay-Shirokov/va-ai/internal/lexical"
)

// SearchOptions controls a library search.
type SearchOptions struct {
	// TopN caps the results; zero or less means no cap.
	TopN int

	// Threshold is the exclusive lower bound on similarity.
	Threshold float64

	Category    string
	Subcategory string
}

// DefaultSearchOptions returns the permissive search defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopN:      lexical.SearchLimit,
		Threshold: lexical.SearchThreshold,
	}
}

// SearchResult is one ranked template for a query.
type SearchResult struct {
	Position    int     `json:"-"`
	Step        string  `json:"step"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Relevance   float64 `json:"relevance"`
}

// BatchResult groups the results of several queries.
type BatchResult struct {
	TotalQueries int                       `json:"total_queries"`
	TotalResults int                       `json:"total_results"`
	Results      map[string][]SearchResult `json:"results"`
}

// Search ranks library templates against a free-text query. An unknown
// category filter yields no results, not an error.
func (r *Resolver) Search(query string, opts SearchOptions) []SearchResult {
	form := canon.Canonicalize(query)
	pool := r.pool(opts.Category, opts.Subcategory)

	candidates := lexical.FindSimilar(r.lib, form, pool, opts.Threshold, opts.TopN)
	out := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, SearchResult{
			Position:    c.Template.Position,
			Step:        c.Template.Text,
			Category:    c.Template.Category,
			Subcategory: c.Template.Subcategory,
			Relevance:   math.Round(c.Ratio*100) / 100,
		})
	}
	return out
}

// BatchSearch runs Search for every query concurrently. Repeated queries
// share one entry in the result map.
func (r *Resolver) BatchSearch(ctx context.Context, queries []string, opts SearchOptions) (BatchResult, error) {
	var mu sync.Mutex
	results := make(map[string][]SearchResult, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, q := range queries {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			found := r.Search(q, opts)

			mu.Lock()
			results[q] = found
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	total := 0
	for _, found := range results {
		total += len(found)
	}
	return BatchResult{
		TotalQueries: len(queries),
		TotalResults: total,
		Results:      results,
	}, nil
}
