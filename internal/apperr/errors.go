package apperr

import (
	"errors"
	"fmt"
)

// ValidationError is a client-side input problem: a missing required field,
// malformed GeoJSON, or a geometry of the wrong type. It is never retried.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// InvalidWrap builds a ValidationError that keeps err reachable through errors.As.
func InvalidWrap(field, msg string, err error) *ValidationError {
	return &ValidationError{Field: field, Msg: msg, Err: err}
}

// IsValidation reports whether err carries a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
