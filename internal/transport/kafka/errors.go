package kafka

import (
	"errors"

	"food-delivery/internal/apperr"
)

// PermanentError marks a handler failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent returns a permanent error.
func Permanent(err error) error {
	return PermanentError{Err: err}
}

// IsPermanent reports whether err should skip retries and go straight to the
// dead-letter topic. Domain rejections are permanent.
func IsPermanent(err error) bool {
	var pe PermanentError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, apperr.InvalidState) ||
		errors.Is(err, apperr.Invalid) ||
		errors.Is(err, apperr.NotFound) ||
		errors.Is(err, apperr.Forbidden)
}
