package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Nikolay-Shirokov/va-ai/internal/library"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

type resolveRequest struct {
	Step string `json:"step"`
}

type searchRequest struct {
	Query       string   `json:"query"`
	Queries     []string `json:"queries"`
	Top         *int     `json:"top"`
	Threshold   *float64 `json:"threshold"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
}

// SearchResponse is the single-query search reply.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Found   int                    `json:"found"`
	Results []resolve.SearchResult `json:"results"`
}

// LibraryResponse summarizes the served library.
type LibraryResponse struct {
	Source         string              `json:"source"`
	Templates      int                 `json:"templates"`
	CanonicalForms int                 `json:"canonical_forms"`
	Policy         string              `json:"collision_policy"`
	Categories     []string            `json:"categories"`
	Collisions     []library.Collision `json:"collisions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Step) == "" {
		writeError(w, http.StatusBadRequest, "step is required")
		return
	}

	start := time.Now()
	res := s.Resolver().Resolve(req.Step)
	s.stats.ResolutionSeconds.Observe(time.Since(start).Seconds())

	switch {
	case res.Matched:
		s.stats.Resolutions.WithLabelValues(outcomeMatched).Inc()
	case len(res.Suggestions) > 0:
		s.stats.Resolutions.WithLabelValues(outcomeSuggested).Inc()
	default:
		s.stats.Resolutions.WithLabelValues(outcomeUnmatched).Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	opts := s.search
	opts.Category = req.Category
	opts.Subcategory = req.Subcategory
	if req.Top != nil {
		if *req.Top < 1 {
			writeError(w, http.StatusBadRequest, "top must be at least 1")
			return
		}
		opts.TopN = *req.Top
	}
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be within [0, 1]")
			return
		}
		opts.Threshold = *req.Threshold
	}

	resolver := s.Resolver()
	if len(req.Queries) > 0 {
		batch, err := resolver.BatchSearch(r.Context(), req.Queries, opts)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.stats.Searches.Add(float64(len(req.Queries)))
		writeJSON(w, http.StatusOK, batch)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query or queries is required")
		return
	}
	results := resolver.Search(req.Query, opts)
	s.stats.Searches.Inc()
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Found:   len(results),
		Results: results,
	})
}

func (s *Server) handleLibrary(w http.ResponseWriter, _ *http.Request) {
	lib := s.Resolver().Library()
	writeJSON(w, http.StatusOK, LibraryResponse{
		Source:         lib.Source(),
		Templates:      lib.Len(),
		CanonicalForms: len(lib.Entries()),
		Policy:         string(lib.Policy()),
		Categories:     lib.Categories(),
		Collisions:     lib.Collisions(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
