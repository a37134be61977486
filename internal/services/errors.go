package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrJobNotReady  = errors.New("job has not finished yet")
	ErrJobExpired   = errors.New("job output has expired")
)

// ValidationError reports malformed caller input. Its message is safe to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced resource outside the caller's organization or absent altogether.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthorizationError reports a missing permission.
type AuthorizationError struct {
	Permission string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("missing permission %s", e.Permission)
}

// InternalError hides the underlying failure from clients. Err is for logs only.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
