package state

import (
	"errors"

	"github.com/timmy/memeverse/internal/persist"
	"github.com/timmy/memeverse/internal/remote"
)

// Error kinds surfaced to views. Check them with errors.Is.
var (
	ErrNetwork          = remote.ErrNetwork
	ErrUpload           = remote.ErrUpload
	ErrPersistenceParse = persist.ErrPersistenceParse
	ErrValidation       = errors.New("validation error")
)

// ValidationError is user input rejected before any state changes.
// Its message is meant to be shown as is.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with msg.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
