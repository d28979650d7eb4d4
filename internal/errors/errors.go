// Package errors provides custom error types for the Elec-Mate router client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNoSession       = errors.New("no session found")
	ErrNoUserMessage   = errors.New("no user message in transcript")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrTimedOut        = errors.New("request timed out")
	ErrUnavailable     = errors.New("router unavailable")
)

// Messages surfaced to the user for the fixed failure classes. The chat UI
// shows these verbatim, so the wording is part of the contract.
const (
	MsgTimeout           = "Request timed out after 5 minutes. The agents may be busy - please try again."
	MsgRouterUnavailable = "Router unavailable. Please wait a moment and try again."
	MsgRateLimited       = "Rate limit exceeded. Please try again in a moment."
	MsgCreditsExhausted  = "AI credits exhausted. Please add credits to continue."
)

// TimeoutError reports the 5 minute hard abort firing.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return MsgTimeout }

// Is allows comparison with the ErrTimedOut sentinel
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimedOut {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError() *TimeoutError { return &TimeoutError{} }

// UnavailableError reports a network-level failure reaching the router.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string { return MsgRouterUnavailable }

// Unwrap exposes the transport error for logging
func (e *UnavailableError) Unwrap() error { return e.Cause }

// Is allows comparison with the ErrUnavailable sentinel
func (e *UnavailableError) Is(target error) bool {
	if target == ErrUnavailable {
		return true
	}
	_, ok := target.(*UnavailableError)
	return ok
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(cause error) *UnavailableError {
	return &UnavailableError{Cause: cause}
}

// RateLimitError reports an HTTP 429 from the router.
type RateLimitError struct{}

func (e *RateLimitError) Error() string { return MsgRateLimited }

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError() *RateLimitError { return &RateLimitError{} }

// CreditsError reports an HTTP 402 from the router.
type CreditsError struct{}

func (e *CreditsError) Error() string { return MsgCreditsExhausted }

// NewCreditsError creates a new CreditsError
func NewCreditsError() *CreditsError { return &CreditsError{} }

// APIError represents any other non-2xx router response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("router error [%d]", e.StatusCode)
	}
	return fmt.Sprintf("router error [%d]: %s", e.StatusCode, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// RouterError is a fatal error reported by the router inside the stream.
type RouterError struct {
	Message string
}

func (e *RouterError) Error() string {
	if e.Message == "" {
		return "router reported an error"
	}
	return fmt.Sprintf("router error: %s", e.Message)
}

// NewRouterError creates a new RouterError
func NewRouterError(message string) *RouterError {
	return &RouterError{Message: message}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message string) *ParseError {
	return &ParseError{Message: message}
}
