package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means a series is shorter than the requested window.
	// Callers usually skip the instrument or shrink the window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput means a caller precondition was violated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDataUnavailable is returned by data providers when an instrument has
	// no usable observations. It is not an empty series.
	ErrDataUnavailable = errors.New("data unavailable")
)

// InsufficientDataError reports how many observations were available vs. required.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("series has %d months, need at least %d", e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
