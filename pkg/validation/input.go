// Package validation provides the input contract checks shared by the
// calculation packages.
package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is matched by every InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a violated structural precondition on a single field.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s = %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) true for any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds an InvalidInputError.
func Invalid(field string, value any, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

// Finite fails for NaN and infinite values.
func Finite(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Invalid(field, value, "must be a finite number")
	}
	return nil
}

// NonNegative fails for negative or non-finite values.
func NonNegative(field string, value float64) error {
	if err := Finite(field, value); err != nil {
		return err
	}
	if value < 0 {
		return Invalid(field, value, "must not be negative")
	}
	return nil
}

// NonNegativeInt fails for negative integers.
func NonNegativeInt(field string, value int) error {
	if value < 0 {
		return Invalid(field, value, "must not be negative")
	}
	return nil
}

// PositiveInt fails for zero or negative integers.
func PositiveInt(field string, value int) error {
	if value <= 0 {
		return Invalid(field, value, "must be greater than zero")
	}
	return nil
}

// FirstError returns the first non-nil error, in argument order.
func FirstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
