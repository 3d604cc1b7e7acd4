// store/memory_event_store.go
package store

import (
	"context"
	"sync"
	"time"

	"nearme/api/models"
)

// DefaultMemoryCapacity is the number of events a MemoryEventStore keeps
// when constructed with a non-positive capacity.
const DefaultMemoryCapacity = 1000

// MemoryEventStore is a bounded FIFO of events kept in process memory.
// Once full, each append evicts the oldest event.
type MemoryEventStore struct {
	mu   sync.RWMutex
	buf  []models.EngagementEvent
	head int // index of the oldest event
	size int
}

// NewMemoryEventStore creates an empty store holding at most capacity events.
func NewMemoryEventStore(capacity int) *MemoryEventStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryEventStore{
		buf: make([]models.EngagementEvent, capacity),
	}
}

func (s *MemoryEventStore) Name() string { return "memory" }

func (s *MemoryEventStore) Append(ctx context.Context, event models.EngagementEvent) error {
	if err := ctx.Err(); err != nil {
		return models.NewTransientStoreError(s.Name(), "append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	if s.size < capacity {
		s.buf[(s.head+s.size)%capacity] = event
		s.size++
		return nil
	}
	s.buf[s.head] = event
	s.head = (s.head + 1) % capacity
	return nil
}

func (s *MemoryEventStore) Query(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewTransientStoreError(s.Name(), "query", err)
	}

	window := models.AnalyticsWindow{BusinessID: businessID, StartDate: start, EndDate: end}

	s.mu.RLock()
	results := make([]models.EngagementEvent, 0)
	capacity := len(s.buf)
	for i := 0; i < s.size; i++ {
		event := s.buf[(s.head+i)%capacity]
		if event.BusinessID != window.BusinessID || !window.Contains(event.Timestamp) {
			continue
		}
		results = append(results, event)
	}
	s.mu.RUnlock()

	sortEvents(results)
	return results, nil
}

// Len returns the number of events currently held.
func (s *MemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the maximum number of events held.
func (s *MemoryEventStore) Capacity() int {
	return len(s.buf)
}
