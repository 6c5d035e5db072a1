package recurrence

import (
	"errors"
	"fmt"
)

// ErrorType classifies engine errors. It implements error so callers can
// match with errors.Is(err, recurrence.ErrInvalidRule).
type ErrorType string

const (
	// Validation errors: fix the input
	ErrInvalidRule   ErrorType = "invalid_rule"
	ErrInvalidAnchor ErrorType = "invalid_anchor"
	ErrInvalidWindow ErrorType = "invalid_window"

	// Internal invariant violations: a defect in the calculator
	ErrNonMonotonic     ErrorType = "non_monotonic"
	ErrIterationCeiling ErrorType = "iteration_ceiling"
)

func (t ErrorType) Error() string { return string(t) }

// Error represents a recurrence engine error
type Error struct {
	Type    ErrorType
	Field   string // offending input field, validation errors only
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(ErrorType)
	return ok && t == e.Type
}

func (e *Error) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by bad input
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRule) || errors.Is(err, ErrInvalidAnchor) || errors.Is(err, ErrInvalidWindow)
}

// IsInternal reports whether err is an invariant violation inside the engine
func IsInternal(err error) bool {
	return errors.Is(err, ErrNonMonotonic) || errors.Is(err, ErrIterationCeiling)
}
