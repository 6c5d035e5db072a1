// Package reminder is the read side of the external reminder store: the
// record shape the store supplies and the interface hosts implement over it.
package reminder

import (
	"context"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

func (t ErrorType) Error() string { return string(t) }

// Error represents a store-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(ErrorType)
	return ok && t == e.Type
}

func (e *Error) Unwrap() error { return e.Err }

// Record is a reminder as the document store keeps it
type Record struct {
	ID         string
	Title      string
	Kind       string    // note, task, event, medication, bill
	DueDate    time.Time // calendar date in the user's resolved local zone
	DueTime    string    // "15:04" or "15:04:05", empty when untimed
	Recurrence *RecurrenceFields
	Completed  bool
	Created    time.Time
	Modified   time.Time
}

// RecurrenceFields are the stored rule fields, nil on one-off reminders
type RecurrenceFields struct {
	Pattern         string
	Interval        int
	DaysOfWeek      []int // 0=Sunday … 6=Saturday
	EndDate         *time.Time
	OccurrenceCount *int
}

// Store is the interface that must be implemented by reminder backends.
// The engine's hosts only ever read from it.
type Store interface {
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
}
