package library

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes library load failures.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the source could not be read.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeParse indicates the source is not well-formed JSON or YAML.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeFormat indicates well-formed data of the wrong shape.
	ErrCodeFormat ErrorCode = "FORMAT_ERROR"

	// ErrCodeCollision indicates a canonical collision under CollisionReject.
	ErrCodeCollision ErrorCode = "CANONICAL_COLLISION"
)

// LoadError is returned when a library cannot be constructed.
// Every LoadError is fatal: no partial library is ever returned.
type LoadError struct {
	Code    ErrorCode
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsNotFound reports whether err is an unreadable-source LoadError.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsParseError reports whether err is a malformed-data LoadError.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParse)
}

// IsFormatError reports whether err is a wrong-shape LoadError.
func IsFormatError(err error) bool {
	return hasCode(err, ErrCodeFormat)
}

// IsCollisionError reports whether err is a rejected canonical collision.
func IsCollisionError(err error) bool {
	return hasCode(err, ErrCodeCollision)
}
