package xai

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a triage result, session or explanation
	// does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by ExplanationRepository.Create when an
	// explanation for the same triage result has already been stored.
	ErrAlreadyExists = errors.New("already exists")

	ErrSessionNotFound = fmt.Errorf("triage session %w", ErrNotFound)
	ErrResultNotFound  = fmt.Errorf("triage result %w", ErrNotFound)
)

// ValidationError reports malformed input facts.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
