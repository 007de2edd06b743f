// Package semantic decides whether a library template may stand in for an
// unmatched step.
//
// Four features are compared (see package stepparse). Action and element
// carry most of the weight and both must agree for a substitution to be
// safe; context and parameters only adjust confidence.
package semantic
