// Package resilience implements the cross-cutting outbound-call policy:
// vendor error classification, retry with exponential backoff, and a
// per-configuration circuit breaker.
package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Category is the closed set of normalized vendor error categories
type Category string

const (
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategoryNotFound       Category = "NOT_FOUND"
	CategoryValidation     Category = "VALIDATION"
	CategoryConflict       Category = "CONFLICT"
	CategoryBusinessRule   Category = "BUSINESS_RULE"
	CategoryRateLimit      Category = "RATE_LIMIT"
	CategoryTimeout        Category = "TIMEOUT"
	CategoryNetwork        Category = "NETWORK"
	CategorySystem         Category = "SYSTEM"
	CategoryUnknown        Category = "UNKNOWN"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Retryable reports whether errors in this category are worth retrying
func (c Category) Retryable() bool {
	switch c {
	case CategoryNetwork, CategoryTimeout, CategorySystem, CategoryRateLimit, CategoryConflict:
		return true
	default:
		return false
	}
}

// ConnectorError is a vendor failure normalized into the shared taxonomy.
// The raw vendor message is preserved for audit; user-facing text is derived
// per category by UserMessage.
type ConnectorError struct {
	// Category is the normalized error category
	Category Category
	// Message is the raw vendor or transport error message
	Message string
	// HTTPStatus is the vendor HTTP status, 0 when the failure never reached HTTP
	HTTPStatus int
	// RetryAfter is the vendor-provided retry hint, if any
	RetryAfter time.Duration
	// FieldErrors carries per-field validation messages, if the vendor provided them
	FieldErrors map[string]string
	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface
func (e *ConnectorError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Category, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *ConnectorError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether this error is worth retrying
func (e *ConnectorError) Retryable() bool {
	return e.Category.Retryable()
}

// UserMessage derives the user-safe message for this error. Validation errors
// surface the underlying field message; business-rule errors surface the
// vendor message verbatim; transport-level categories use generic templates.
func (e *ConnectorError) UserMessage() string {
	switch e.Category {
	case CategoryAuthentication:
		return "Authentication with the external system failed. Please check the configured credentials."
	case CategoryAuthorization:
		return "The external system denied access to this operation."
	case CategoryNotFound:
		return "The requested record was not found in the external system."
	case CategoryValidation:
		if len(e.FieldErrors) > 0 {
			parts := make([]string, 0, len(e.FieldErrors))
			for field, msg := range e.FieldErrors {
				parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
			}
			return "The external system rejected the request: " + strings.Join(parts, "; ")
		}
		return "The external system rejected the request: " + e.Message
	case CategoryConflict:
		return "The record was modified concurrently in the external system. Please retry."
	case CategoryBusinessRule:
		return e.Message
	case CategoryRateLimit:
		return "The external system is throttling requests. The operation will be retried."
	case CategoryTimeout:
		return "The external system did not respond in time."
	case CategoryNetwork:
		return "The external system is currently unreachable."
	case CategorySystem:
		return "The external system reported an internal error."
	default:
		return "An unexpected error occurred while calling the external system."
	}
}

// statusCategories is the explicit HTTP status mapping; it takes precedence
// over message heuristics.
var statusCategories = map[int]Category{
	http.StatusUnauthorized:        CategoryAuthentication,
	http.StatusForbidden:           CategoryAuthorization,
	http.StatusNotFound:            CategoryNotFound,
	http.StatusBadRequest:          CategoryValidation,
	http.StatusUnprocessableEntity: CategoryValidation,
	http.StatusConflict:            CategoryConflict,
	http.StatusTooManyRequests:     CategoryRateLimit,
	http.StatusRequestTimeout:      CategoryTimeout,
	http.StatusGatewayTimeout:      CategoryTimeout,
	http.StatusInternalServerError: CategorySystem,
	http.StatusBadGateway:          CategorySystem,
	http.StatusServiceUnavailable:  CategorySystem,
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"eof",
}

var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

// Classify normalizes an arbitrary error into a ConnectorError. Status 0
// means the failure never produced an HTTP response; classification then
// falls back to message heuristics.
func Classify(err error, httpStatus int) *ConnectorError {
	if err == nil {
		return nil
	}

	var connErr *ConnectorError
	if errors.As(err, &connErr) {
		return connErr
	}

	message := err.Error()

	if httpStatus > 0 {
		category, ok := statusCategories[httpStatus]
		if !ok {
			category = CategorySystem
		}
		return &ConnectorError{
			Category:   category,
			Message:    message,
			HTTPStatus: httpStatus,
			Cause:      err,
		}
	}

	lower := strings.ToLower(message)
	for _, pattern := range timeoutPatterns {
		if strings.Contains(lower, pattern) {
			return &ConnectorError{Category: CategoryTimeout, Message: message, Cause: err}
		}
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(lower, pattern) {
			return &ConnectorError{Category: CategoryNetwork, Message: message, Cause: err}
		}
	}

	return &ConnectorError{Category: CategoryUnknown, Message: message, Cause: err}
}
