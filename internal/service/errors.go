package service

import (
	"errors"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error is a client-facing failure: Message is safe to show, Kind classifies it.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFoundError(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflictError(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// DependencyError reports a storage or database failure. Message is what the
// client sees; Err keeps the cause for logs.
type DependencyError struct {
	Op      string
	Message string
	Err     error
}

func (e *DependencyError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error { return e.Err }

func dependencyError(op, msg string, err error) error {
	return &DependencyError{Op: op, Message: msg, Err: err}
}

// Kind names the error class for metrics and logs.
func Kind(err error) string {
	var dep *DependencyError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.As(err, &dep):
		return "dependency"
	}
	return "internal"
}

// PublicMessage returns the text that may be sent to clients.
func PublicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	var dep *DependencyError
	if errors.As(err, &dep) && dep.Message != "" {
		return dep.Message
	}
	return "Internal server error"
}
