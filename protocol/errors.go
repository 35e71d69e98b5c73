package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrUnknownTimeOfDay = errors.New("unknown time of day")

	// ErrNoCustomDays is returned for a custom frequency without weekdays.
	// An empty selection is rejected rather than read as "every day".
	ErrNoCustomDays = errors.New("custom frequency requires at least one weekday")

	ErrInvalidCustomDay = errors.New("custom weekday out of range 0-6")
	ErrDurationTooLong  = fmt.Errorf("duration exceeds %d days", MaxDurationDays)
)

// UnknownValueError names the field and the rejected value.
type UnknownValueError struct {
	Field string
	Value string
	Err   error
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Value)
}

func (e *UnknownValueError) Unwrap() error { return e.Err }

type CustomDayError struct {
	Day int
}

func (e *CustomDayError) Error() string {
	return fmt.Sprintf("custom weekday %d out of range 0-6", e.Day)
}

func (e *CustomDayError) Unwrap() error { return ErrInvalidCustomDay }

// IsClientError returns true if the error is due to an invalid configuration.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownFrequency) ||
		errors.Is(err, ErrUnknownTimeOfDay) ||
		errors.Is(err, ErrNoCustomDays) ||
		errors.Is(err, ErrInvalidCustomDay) ||
		errors.Is(err, ErrDurationTooLong)
}
