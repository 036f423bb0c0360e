package domain

import (
	"errors"
	"fmt"
)

// ErrMissingOrInvalidField matches every MissingOrInvalidFieldError via errors.Is.
var ErrMissingOrInvalidField = errors.New("missing or invalid field")

// MissingOrInvalidFieldError reports a body-derived value that is absent,
// of the wrong type or unparseable.
type MissingOrInvalidFieldError struct {
	Field string
	Err   error
}

// NewMissingFieldError reports that field is absent or not of the expected type.
func NewMissingFieldError(field string) error {
	return &MissingOrInvalidFieldError{Field: field}
}

// NewInvalidFieldError reports that field is present but could not be interpreted.
func NewInvalidFieldError(field string, err error) error {
	return &MissingOrInvalidFieldError{Field: field, Err: err}
}

func (e *MissingOrInvalidFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q is invalid: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field %q is missing", e.Field)
}

func (e *MissingOrInvalidFieldError) Unwrap() error { return e.Err }

func (e *MissingOrInvalidFieldError) Is(target error) bool {
	return target == ErrMissingOrInvalidField
}
