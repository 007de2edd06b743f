package index

import (
	"errors"
	"fmt"
)

// ErrStale reports an index built for different library content.
var ErrStale = errors.New("index does not match library")

// Error describes an unreadable or inconsistent index artifact.
type Error struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("index %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsStale reports whether err is an index/library mismatch.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}
