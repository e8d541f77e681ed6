package data

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrMutationDisabled = errors.New("mutation disabled")
)

// ValidationError describes input that can't be used as provided, it's
// never coerced into something usable
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func NewValidationError(field, value, format string, v ...any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf(format, v...),
	}
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", v.Field, v.Value, v.Reason)
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

func EmployeeNotFound(id int64) error {
	return errors.Wrapf(ErrEmployeeNotFound, "could not find employee %d", id)
}
