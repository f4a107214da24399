package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Callers branch with errors.Is.
var (
	// ErrNotFound covers any entity missing or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrSourceLocked means the source status forbids posting.
	ErrSourceLocked = errors.New("source is locked for posting")

	// ErrInsufficientFunds means an expense would push the balance below
	// zero and overdraft was not permitted.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict means a concurrent update won the race on the same
	// source; the caller should refresh and retry.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrAlreadyResolved means a prediction was already accepted or
	// dismissed.
	ErrAlreadyResolved = errors.New("prediction already resolved")
)

// ValidationError describes a request rejected before any store write.
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

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
