// ABOUTME: Error types and handling for the linkparse library
// ABOUTME: Maps core pipeline errors to structured library errors

package linkparse

import (
	stderrors "errors"
	"fmt"

	"linkparse-api/core/errors"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates the URL was malformed
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeSecurity indicates the URL points at a non-public address
	ErrorTypeSecurity ErrorType = "security"

	// ErrorTypeOverloaded indicates the destination domain is saturated
	ErrorTypeOverloaded ErrorType = "overloaded"

	// ErrorTypeTimeout indicates the request exhausted its budget
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "internal"

	// ErrorTypeConfiguration indicates a configuration error
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error represents a structured error from the library
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error with the given type and message
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrClientClosed is returned when operations are attempted on a closed client
var ErrClientClosed = NewError(ErrorTypeInternal, "client is closed")

func wrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.IsInvalidURL(err):
		return NewError(ErrorTypeValidation, "invalid url").WithCause(err)
	case errors.IsSecurityRejected(err):
		return NewError(ErrorTypeSecurity, "url could not be fetched").WithCause(err)
	case errors.IsOverloaded(err):
		return NewError(ErrorTypeOverloaded, "destination is busy").WithCause(err)
	case errors.IsTimeout(err):
		return NewError(ErrorTypeTimeout, "parse timed out").WithCause(err)
	}
	return NewError(ErrorTypeInternal, "parse failed").WithCause(err)
}

func isType(err error, t ErrorType) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsSecurityError checks if the URL was rejected by the SSRF guard
func IsSecurityError(err error) bool {
	return isType(err, ErrorTypeSecurity)
}

// IsOverloadedError checks if the destination was saturated
func IsOverloadedError(err error) bool {
	return isType(err, ErrorTypeOverloaded)
}

// IsTimeoutError checks if the request ran out of time
func IsTimeoutError(err error) bool {
	return isType(err, ErrorTypeTimeout)
}
