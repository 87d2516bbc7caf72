package apibind

import (
	"errors"
	"fmt"
	"time"
)

// InvalidDefinitionError reports a malformed entry in a definition table.
// It is raised eagerly at factory time, never lazily at call time.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid definition %q: %s", e.Name, e.Reason)
}

// IllegalMethodError reports an HTTP method outside the allowed set.
type IllegalMethodError struct {
	Method string
}

func (e *IllegalMethodError) Error() string {
	return fmt.Sprintf("illegal HTTP method %q", e.Method)
}

// APIError represents a non-2xx response from the server. The transport
// surfaces it unchanged so callers can inspect status codes and payloads.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// RateLimitError is returned when the server reports 429 and retries are
// exhausted or not applicable.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// CircuitBreakerError indicates the transport's circuit breaker is open.
type CircuitBreakerError struct{}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker is open, too many recent failures"
}

// IsInvalidDefinition checks if the error is an invalid definition error.
func IsInvalidDefinition(err error) bool {
	var e *InvalidDefinitionError
	return errors.As(err, &e)
}

// IsIllegalMethod checks if the error is an illegal method error.
func IsIllegalMethod(err error) bool {
	var e *IllegalMethodError
	return errors.As(err, &e)
}

// IsAPIError checks if the error is a server-reported API error.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsRateLimitError checks if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}

// IsCircuitBreakerError checks if the error is a circuit breaker error.
func IsCircuitBreakerError(err error) bool {
	var e *CircuitBreakerError
	return errors.As(err, &e)
}

// IsNotFound checks if the error indicates a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
