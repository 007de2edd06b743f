// Package server exposes the resolver over HTTP.
//
// Routes:
//
//	POST /v1/resolve  {"step": "..."}                      -> resolve.Resolution
//	POST /v1/search   {"query": "...", "top": 10, ...}     -> search results
//	POST /v1/search   {"queries": ["...", "..."], ...}     -> resolve.BatchResult
//	GET  /v1/library                                       -> library summary
//	GET  /healthz
//	GET  /metrics                                          -> Prometheus exposition
//
// The served library sits behind an atomic pointer. Reload swaps in a newly
// loaded library; requests in flight keep the one they started with. A
// failed reload leaves the current library in place.
package server
