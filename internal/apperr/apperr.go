// Package apperr defines the error taxonomy shared by all Maestro components.
// Every error that can reach the HTTP boundary carries a stable code, a
// human-readable message, an actionable hint, and an HTTP-equivalent status.
// Handlers translate anything else to a generic internal error.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced in the response envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeIdempotencyKey    = "IDEMPOTENCY_KEY_INVALID"
	CodePlanNotFound      = "PLAN_NOT_FOUND"
	CodeToolExecution     = "TOOL_EXECUTION_FAILED"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// Error is a user-translatable error with a stable code and HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Status  int    `json:"-"`

	// RetryAfter is set for rate-limit errors (seconds).
	RetryAfter int `json:"retryAfter,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches two apperr.Errors by code, so sentinel-style comparisons work:
//
//	errors.Is(err, apperr.PlanNotFound("", ""))
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy carrying the underlying error.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

// Validation is a 400-equivalent bad-input error.
func Validation(message, hint string) *Error {
	if message == "" {
		message = "Invalid request format"
	}
	if hint == "" {
		hint = "Check the request fields and try again"
	}
	return &Error{Code: CodeValidation, Message: message, Hint: hint, Status: http.StatusBadRequest}
}

// IdempotencyKeyInvalid is a 400-equivalent caller bug: malformed Idempotency-Key.
func IdempotencyKeyInvalid(key string) *Error {
	return &Error{
		Code:    CodeIdempotencyKey,
		Message: "Invalid idempotency key format",
		Hint:    "Keys must be at least 10 characters of [A-Za-z0-9_-]",
		Status:  http.StatusBadRequest,
	}
}

// PlanNotFound is a 404-equivalent: the plan expired or was already executed.
func PlanNotFound(planID, hint string) *Error {
	if hint == "" {
		hint = "Please try your request again"
	}
	return &Error{
		Code:    CodePlanNotFound,
		Message: "Plan not found or expired",
		Hint:    hint,
		Status:  http.StatusNotFound,
	}
}

// RateLimited is a 429-equivalent carrying the retry hint.
func RateLimited(bucket string, retryAfter int, hint string) *Error {
	if hint == "" {
		hint = fmt.Sprintf("Try again in %d seconds", retryAfter)
	}
	return &Error{
		Code:       CodeRateLimit,
		Message:    fmt.Sprintf("Rate limit exceeded for %s", bucket),
		Hint:       hint,
		Status:     http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// ToolExecutionFailed is a per-step soft failure. The registry folds it into
// a ToolResult rather than aborting the whole request, so its status never
// reaches the HTTP boundary directly.
func ToolExecutionFailed(action string, err error) *Error {
	return &Error{
		Code:    CodeToolExecution,
		Message: fmt.Sprintf("%s failed: %v", action, err),
		Status:  http.StatusInternalServerError,
		cause:   err,
	}
}

// StoreUnavailable marks shared-store outages. It triggers fallback and is
// logged, never surfaced to end users directly.
func StoreUnavailable(err error) *Error {
	return &Error{
		Code:    CodeStoreUnavailable,
		Message: "Shared store unavailable",
		Status:  http.StatusInternalServerError,
		cause:   err,
	}
}

// Internal is the catch-all for unexpected failures.
func Internal(err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Hint:    "Please try again later",
		Status:  http.StatusInternalServerError,
		cause:   err,
	}
}

// FromErr translates any error into an *Error suitable for the envelope.
// Typed errors pass through; everything else becomes a generic internal error
// so no raw failure detail leaks to the client.
func FromErr(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
