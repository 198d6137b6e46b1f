// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Rule source errors.
	ErrRuleSourceUnavailable = errors.New("rule source unavailable")
	ErrNotFound              = errors.New("not found")
	ErrDuplicateEntry        = errors.New("duplicate entry")

	// Schema errors.
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")
	ErrMalformedRule            = errors.New("malformed rule")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
