package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Engine error codes, grouped by recovery policy.
const (
	// ErrNotReady marks a transient condition: an element or frame is not
	// yet present or clickable. Recovered by re-waiting or loop re-entry.
	ErrNotReady ErrorCode = "TRANSIENT_NOT_READY"
	// ErrStaleElement marks a previously located node that became detached
	// after the widget re-rendered. Recovered by re-locating fresh elements.
	ErrStaleElement ErrorCode = "STALE_ELEMENT"
	// ErrUnrecognizedTarget marks instruction text that matched no known
	// term. Recovered by reloading the challenge.
	ErrUnrecognizedTarget ErrorCode = "UNRECOGNIZED_TARGET"
	// ErrUnsolvableGrid marks a solver result below the confidence floor.
	// Recovered by reloading the challenge.
	ErrUnsolvableGrid ErrorCode = "UNSOLVABLE_GRID"
	// ErrFrameNotFound marks a missing root challenge surface. Fatal for
	// the current solve attempt.
	ErrFrameNotFound ErrorCode = "FRAME_NOT_FOUND"
	// ErrRetryExhausted marks a bounded retry budget that ran out.
	ErrRetryExhausted ErrorCode = "RETRY_EXHAUSTED"
	// ErrFetchFailed marks a failed image byte retrieval.
	ErrFetchFailed ErrorCode = "FETCH_FAILED"
	// ErrDetector marks an object-detector failure.
	ErrDetector ErrorCode = "DETECTOR_FAILURE"
	// ErrInvalidConfig marks a configuration that failed validation.
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" when the error
// carries no code.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code anywhere in its
// unwrap chain.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
