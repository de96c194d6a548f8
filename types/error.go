package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every error surfaced by llmbridge.
type ErrorCode string

// Caller-side errors.
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrEmptyResponse  ErrorCode = "EMPTY_RESPONSE"
)

// Provider errors, derived from the HTTP status of a non-2xx reply.
const (
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrModelNotFound      ErrorCode = "MODEL_NOT_FOUND"
	ErrContentFiltered    ErrorCode = "CONTENT_FILTERED"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Transport, codec and store errors.
const (
	ErrTransport ErrorCode = "TRANSPORT_ERROR"
	ErrDecode    ErrorCode = "DECODE_ERROR"
	ErrStore     ErrorCode = "STORE_ERROR"
)

// EmptyResponseMessage is the message carried by every empty-response error.
const EmptyResponseMessage = "response is empty"

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
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

// Is matches another *Error by code so that errors.Is(err, ErrEmpty) works
// regardless of provider or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
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

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// ErrEmpty is the comparison target for empty-response errors.
var ErrEmpty = &Error{Code: ErrEmptyResponse}

// NewContractError reports a violated precondition. It is raised before any
// network call is made.
func NewContractError(format string, args ...any) *Error {
	return NewError(ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// NewEmptyResponseError reports a transport-level success without a usable result.
func NewEmptyResponseError(provider string) *Error {
	return NewError(ErrEmptyResponse, EmptyResponseMessage).WithProvider(provider)
}

// IsContractViolation reports whether err, or anything it wraps, is a contract
// error. A provider's own 400 reply carries the same code but also an HTTP
// status, and is not a contract violation.
func IsContractViolation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrInvalidRequest && e.HTTPStatus == 0
}

// IsEmptyResponse reports whether err, or anything it wraps, is an empty-response error.
func IsEmptyResponse(err error) bool {
	return GetErrorCode(err) == ErrEmptyResponse
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
