package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition indicates a submission lifecycle change that is not allowed.
var ErrInvalidTransition = errors.New("invalid submission status transition")

// ValidationError reports malformed domain input. It is never recovered internally.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
