// Package scenario validates Vanessa Automation .feature files against a
// step library.
//
// A validation run checks the file header, the Функционал block, every step
// inside Сценарий and Контекст blocks, variable usage and quoting. Steps that
// do not resolve exactly become errors carrying ranked replacement
// suggestions and, when a metrics recorder is configured, step_not_found
// events.
package scenario
