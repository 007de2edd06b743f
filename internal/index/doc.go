// Package index builds and reads the precomputed search artifacts written
// next to a step library:
//
//	index.json        metadata (version, created_at, totals, library_path)
//	by-keywords.json  token -> template positions
//	by-category.json  category and category.subcategory -> template positions
//	frequency.json    template position -> times suggested in the metrics log
//
// The artifacts only accelerate category-scoped search. An index that is
// missing or describes a different library is ignored.
package index
