// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandNotFound is returned when a command id is not part of the program
	ErrCommandNotFound = errors.New("command not found")

	// ErrProgramNotFound is returned when no stored program has the given name
	ErrProgramNotFound = errors.New("program not found")
)

// ValidationError reports a disallowed value. Operations failing with it
// apply nothing.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewValidationError creates a validation error
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// FrameLengthError is returned when a settings frame has the wrong size
type FrameLengthError struct {
	Got int
}

func (e *FrameLengthError) Error() string {
	return fmt.Sprintf("settings frame must be %d bytes, got %d", SettingsFrameSize, e.Got)
}
