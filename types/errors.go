package types

import (
	"fmt"
	"time"
)

// APIError is the error body returned by the HTTP surface
type APIError struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%s]: %s", e.Code, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, recoverable bool) *APIError {
	return &APIError{
		Code:        code,
		Message:     message,
		Recoverable: recoverable,
		Timestamp:   time.Now(),
	}
}

// WithDetails returns a copy carrying details
func (e *APIError) WithDetails(details string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// API error codes
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeChannelNotOpen      = "CHANNEL_NOT_OPEN"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidBalance      = "INVALID_BALANCE"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
)
