// Package stepparse decomposes a step into the features used for semantic
// comparison: action, UI element type, execution context and parameters.
//
// Actions, elements and contexts come from fixed keyword tables. The tables
// are ordered and the order decides which category wins when a step matches
// several, so new triggers must be added with care. Anything outside the
// tables is an opaque token.
package stepparse
