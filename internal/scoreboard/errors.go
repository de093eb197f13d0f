package scoreboard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing events, festivals and team indexes.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write kept losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError rejects caller data before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
