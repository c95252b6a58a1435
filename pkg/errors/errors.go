package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeUIMismatch means an expected element was missing from the page
	ErrorTypeUIMismatch ErrorType = "ui_mismatch"
	// ErrorTypeStalled means the list produced no new content
	ErrorTypeStalled ErrorType = "stalled"
	// ErrorTypeTransport means a control message could not be delivered or decoded
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypePage means a browser or page operation failed
	ErrorTypePage ErrorType = "page"
	// ErrorTypeTimeout means a page operation ran out of time
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeStore means the persistent state could not be read or written
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeAuth means session cookies are missing or rejected
	ErrorTypeAuth    ErrorType = "auth"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed error carrying an optional cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around err. It returns nil when err is nil
func Wrap(t ErrorType, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first typed error in err's chain
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypePage, ErrorTypeTimeout, ErrorTypeStalled:
		return true
	case ErrorTypeAuth, ErrorTypeUIMismatch, ErrorTypeTransport, ErrorTypeStore:
		return false
	default:
		return false
	}
}
