package domain

import (
	"errors"
	"fmt"
)

// Error is the structured failure returned by the retry coordinator
// after all attempts are exhausted. Callers never see the raw
// underlying error type; it stays reachable through Unwrap.
type Error struct {
	Message  string   `json:"message"`
	Status   int      `json:"status,omitempty"`
	Code     string   `json:"code,omitempty"`
	Category Category `json:"category"`
	Details  any      `json:"details,omitempty"`

	cause error
}

// NewError builds a structured error wrapping cause.
func NewError(message string, status int, code string, category Category, cause error) *Error {
	return &Error{
		Message:  message,
		Status:   status,
		Code:     code,
		Category: category,
		cause:    cause,
	}
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d, category %s)", e.Message, e.Status, e.Category)
	}
	return fmt.Sprintf("%s (category %s)", e.Message, e.Category)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode implements the status carrier convention used by the
// classifier.
func (e *Error) StatusCode() int {
	return e.Status
}

// AsError extracts a structured Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
