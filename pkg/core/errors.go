// Package core provides the FIRe engine client: configuration, review
// processing with graph propagation, due scans, and session building on top
// of a progress store.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownProvider indicates an unrecognized storage provider name.
	ErrUnknownProvider = errors.New("unknown storage provider")

	// ErrNoStore indicates that the client was built without a progress store.
	ErrNoStore = errors.New("no progress store configured")
)

// EngineError wraps errors with operation context.
//
// Example:
//
//	err := NewEngineError("ProcessReview", ErrNoStore)
//	// Error() returns: "fire: ProcessReview: no progress store configured"
type EngineError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
func (e *EngineError) Error() string {
	return fmt.Sprintf("fire: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps err with the operation name, returning nil when err
// is nil so call sites can wrap unconditionally.
func NewEngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
