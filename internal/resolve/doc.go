// Package resolve composes canonicalization, lexical lookup and semantic
// comparison into the two end-to-end operations of the engine.
//
// Resolve checks a scenario step against the library. An exact canonical
// match ends resolution; otherwise similar templates above the validation
// threshold become ranked suggestions. In ModeEnhanced every suggestion is
// also parsed and compared with the step, and carries a confidence level.
//
// Search ranks templates for a free-text query by lexical similarity only.
// It is a recall tool and never runs the semantic comparison.
//
// A Resolver holds no mutable state besides a memo of parsed template
// features, so one Resolver may serve concurrent callers.
package resolve
