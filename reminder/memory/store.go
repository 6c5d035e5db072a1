// memory based implementation for testing purposes
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyp0633/libremind/reminder"
)

// Store implements reminder.Store using an in-memory map
type Store struct {
	mu      sync.RWMutex
	records map[string]*reminder.Record
	now     func() time.Time
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		records: make(map[string]*reminder.Record),
		now:     time.Now,
	}
}

// clone copies a record so callers never share memory with the store
func clone(r *reminder.Record) *reminder.Record {
	out := *r
	if r.Recurrence != nil {
		fields := *r.Recurrence
		fields.DaysOfWeek = append([]int(nil), r.Recurrence.DaysOfWeek...)
		if r.Recurrence.EndDate != nil {
			end := *r.Recurrence.EndDate
			fields.EndDate = &end
		}
		if r.Recurrence.OccurrenceCount != nil {
			count := *r.Recurrence.OccurrenceCount
			fields.OccurrenceCount = &count
		}
		out.Recurrence = &fields
	}
	return &out
}

func (s *Store) Get(_ context.Context, id string) (*reminder.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, &reminder.Error{
			Type:    reminder.ErrNotFound,
			Message: "reminder not found",
		}
	}
	return clone(r), nil
}

// List returns every record ordered by due date, then id
func (s *Store) List(_ context.Context) ([]*reminder.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*reminder.Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, clone(r))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].DueDate.Equal(records[j].DueDate) {
			return records[i].DueDate.Before(records[j].DueDate)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Create stores a new record, assigning a UUID when the id is empty
func (s *Store) Create(_ context.Context, r *reminder.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if _, exists := s.records[r.ID]; exists {
		return &reminder.Error{
			Type:    reminder.ErrAlreadyExists,
			Message: "reminder already exists",
		}
	}

	now := s.now()
	r.Created = now
	r.Modified = now
	s.records[r.ID] = clone(r)
	return nil
}

func (s *Store) Update(_ context.Context, r *reminder.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok {
		return &reminder.Error{
			Type:    reminder.ErrNotFound,
			Message: "reminder not found",
		}
	}

	r.Created = existing.Created
	r.Modified = s.now()
	s.records[r.ID] = clone(r)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return &reminder.Error{
			Type:    reminder.ErrNotFound,
			Message: "reminder not found",
		}
	}
	delete(s.records, id)
	return nil
}
