package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatNetwork    ErrorCategory = "network"    // Connection-level failure
	ErrCatHTTP       ErrorCategory = "http"       // Non-2xx when success was required
	ErrCatTimeout    ErrorCategory = "timeout"    // Per-attempt deadline exceeded
	ErrCatCanceled   ErrorCategory = "canceled"   // Caller abandoned the operation
	ErrCatMalformed  ErrorCategory = "malformed"  // Response payload not decodable
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource absent upstream
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the pipeline.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ResponseBody returns the captured response body, if any. Transport
// errors attach the best-available body text so callers can surface the
// server's own message.
func (e *DomainError) ResponseBody() string {
	if e.Details == nil {
		return ""
	}
	if body, ok := e.Details["body"].(string); ok {
		return body
	}
	return ""
}

// ErrNetwork creates a connection-level transport error.
func ErrNetwork(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatNetwork,
		Code:      CodeConnectionFailed,
		Message:   message,
		Retryable: true,
	}
}

// ErrHTTPStatus creates an error for a non-2xx response when a success
// status was required. The body is the best-available response text.
// Any required-success failure is retryable; the backend returns 4xx
// for transient states (model warm-up, in-flight analysis) as well as
// permanent ones, and the retry budget is small.
func ErrHTTPStatus(status int, body string) *DomainError {
	e := &DomainError{
		Category:  ErrCatHTTP,
		Code:      CodeBadStatus,
		Message:   fmt.Sprintf("unexpected status %d", status),
		Retryable: true,
	}
	e.WithDetail("status", status)
	if body != "" {
		e.WithDetail("body", body)
	}
	return e
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrCanceled creates a cancellation error. It is distinguishable from
// transport failures so callers can stay quiet on intentional aborts.
func ErrCanceled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCanceled,
		Code:      "CANCELED",
		Message:   message,
		Retryable: false,
	}
}

// ErrMalformed creates a malformed-response error. This is the only
// error the normalizer itself raises; individual missing fields are
// defaulted, never failed.
func ErrMalformed(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatMalformed,
		Code:      CodeNotAnObject,
		Message:   message,
		Retryable: false,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// IsCanceled reports whether the error stems from caller cancellation,
// either our own category or a bare context error.
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return IsCategory(err, ErrCatCanceled)
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeBadStatus        = "BAD_STATUS"
	CodeNotAnObject      = "NOT_AN_OBJECT"
	CodeRetryExhausted   = "RETRY_EXHAUSTED"

	// Validation error codes
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeMissingFile   = "MISSING_FILE"
	CodeEmptyDataset  = "EMPTY_DATASET"
)
