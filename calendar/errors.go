package calendar

import (
	"errors"
	"fmt"
)

// ErrInvalidDate is returned for any input that is not a real YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

// ParseError carries the rejected input.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Input)
}

func (e *ParseError) Unwrap() error { return ErrInvalidDate }
