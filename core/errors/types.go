// ABOUTME: Custom error types for the core business logic
// ABOUTME: Classifies parse failures so the pipeline can degrade or reject them

package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// InvalidURLError is returned when input is not an absolute http(s) URL
type InvalidURLError struct {
	URL    string
	Reason string
}

// Error implements the error interface
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

// SecurityRejectedError is returned when a URL resolves to a forbidden address.
// Detail is for logs only and must not be shown to callers.
type SecurityRejectedError struct {
	Host   string
	Detail string
}

// Error implements the error interface
func (e *SecurityRejectedError) Error() string {
	return fmt.Sprintf("url rejected for host %s: %s", e.Host, e.Detail)
}

// FetchError is an upstream failure: transport error or non-success status
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: upstream status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// TooLargeError is returned when a response body exceeds the size cap
type TooLargeError struct {
	URL   string
	Limit int64
}

// Error implements the error interface
func (e *TooLargeError) Error() string {
	return fmt.Sprintf("response from %s exceeds %d bytes", e.URL, e.Limit)
}

// Media classes of an unsupported content type
const (
	MediaImage = "image"
	MediaAudio = "audio"
	MediaVideo = "video"
	MediaPDF   = "pdf"
	MediaOther = "other"
)

// UnsupportedContentTypeError is returned when the upstream is not a document
type UnsupportedContentTypeError struct {
	URL         string
	ContentType string
	// MediaType is the coarse class of ContentType, one of the Media* constants
	MediaType string
}

// NewUnsupportedContentTypeError builds the error and classifies contentType
func NewUnsupportedContentTypeError(url, contentType string) *UnsupportedContentTypeError {
	return &UnsupportedContentTypeError{URL: url, ContentType: contentType, MediaType: MediaClass(contentType)}
}

// MediaClass maps a media type such as "image/png" to its media class
func MediaClass(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaImage
	case strings.HasPrefix(ct, "audio/"), ct == "application/ogg":
		return MediaAudio
	case strings.HasPrefix(ct, "video/"), ct == "application/x-mpegurl", ct == "application/vnd.apple.mpegurl":
		return MediaVideo
	case ct == "application/pdf":
		return MediaPDF
	}
	return MediaOther
}

// Error implements the error interface
func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q for %s", e.ContentType, e.URL)
}

// TimeoutError is returned when a request exceeds its overall time budget
type TimeoutError struct {
	Operation string
	Budget    time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s exceeded budget of %s", e.Operation, e.Budget)
}

// OverloadedError is returned when per-domain capacity is exhausted
type OverloadedError struct {
	Domain     string
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *OverloadedError) Error() string {
	return fmt.Sprintf("too many in-flight requests for %s", e.Domain)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsInvalidURL checks if an error is an InvalidURLError
func IsInvalidURL(err error) bool {
	var target *InvalidURLError
	return errors.As(err, &target)
}

// IsSecurityRejected checks if an error is a SecurityRejectedError
func IsSecurityRejected(err error) bool {
	var target *SecurityRejectedError
	return errors.As(err, &target)
}

// IsFetch checks if an error is a FetchError
func IsFetch(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// IsTooLarge checks if an error is a TooLargeError
func IsTooLarge(err error) bool {
	var target *TooLargeError
	return errors.As(err, &target)
}

// IsUnsupportedContentType checks if an error is an UnsupportedContentTypeError
func IsUnsupportedContentType(err error) bool {
	var target *UnsupportedContentTypeError
	return errors.As(err, &target)
}

// MediaTypeOf returns the media class carried by an UnsupportedContentTypeError
// in err's chain, or an empty string
func MediaTypeOf(err error) string {
	var target *UnsupportedContentTypeError
	if !errors.As(err, &target) {
		return ""
	}
	if target.MediaType == "" {
		return MediaClass(target.ContentType)
	}
	return target.MediaType
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsOverloaded checks if an error is an OverloadedError
func IsOverloaded(err error) bool {
	var target *OverloadedError
	return errors.As(err, &target)
}

// StatusCode extracts the upstream status code from a FetchError, or 0
func StatusCode(err error) int {
	var target *FetchError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
