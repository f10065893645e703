// Package common holds the errors, retry and logging helpers shared by the rebate
// calculator, the matcher and the sunwise CLI.
package common

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a product or stored record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDatabaseCorrupted marks stored learning state or catalog rows that no longer decode.
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// ErrMissingConfig is returned when a required setting such as database.dsn is empty.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidConfig is returned when a setting has a value sunwise cannot use.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message meant for the person running sunwise alongside
// the underlying cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return e.UserMessage + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message the CLI prints instead of the raw error.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsRetryable reports whether a failed store write is worth another attempt.
// Busy databases and deadline expiry always are; RetryableError decides for itself.
func IsRetryable(err error) bool {
	var marked *RetryableError
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.As(err, &marked):
		return marked.Retryable
	default:
		return false
	}
}

