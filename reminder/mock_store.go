package reminder

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore implements the Store interface for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) List(ctx context.Context) ([]*Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

// --- Helper methods for creating test data ---

// NewMockRecord creates a one-off record due on date
func NewMockRecord(id, kind string, date time.Time) *Record {
	return &Record{
		ID:      id,
		Title:   "reminder " + id,
		Kind:    kind,
		DueDate: date,
	}
}

// NewMockRecurringRecord creates a record repeating with pattern every interval units
func NewMockRecurringRecord(id, kind string, date time.Time, pattern string, interval int) *Record {
	r := NewMockRecord(id, kind, date)
	r.Recurrence = &RecurrenceFields{Pattern: pattern, Interval: interval}
	return r
}
