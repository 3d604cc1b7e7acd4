package analytics

import (
	"context"
	"sync"
	"time"

	"nearme/api/models"
)

// mockEventStore is a configurable EventStore for fault injection.
type mockEventStore struct {
	mu sync.Mutex

	AppendFunc func(ctx context.Context, event models.EngagementEvent) error
	QueryFunc  func(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error)

	AppendCalls []models.EngagementEvent
	QueryCalls  int
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{
		AppendFunc: func(ctx context.Context, event models.EngagementEvent) error {
			return nil
		},
		QueryFunc: func(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error) {
			return nil, nil
		},
	}
}

func (m *mockEventStore) Name() string { return "mock" }

func (m *mockEventStore) Append(ctx context.Context, event models.EngagementEvent) error {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, event)
	m.mu.Unlock()

	return m.AppendFunc(ctx, event)
}

func (m *mockEventStore) Query(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error) {
	m.mu.Lock()
	m.QueryCalls++
	m.mu.Unlock()

	return m.QueryFunc(ctx, businessID, start, end)
}

func (m *mockEventStore) appendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AppendCalls)
}

// mockBatchEventStore adds AppendBatch to mockEventStore.
type mockBatchEventStore struct {
	*mockEventStore

	AppendBatchFunc  func(ctx context.Context, events []models.EngagementEvent) error
	AppendBatchCalls [][]models.EngagementEvent
}

func newMockBatchEventStore() *mockBatchEventStore {
	return &mockBatchEventStore{
		mockEventStore: newMockEventStore(),
		AppendBatchFunc: func(ctx context.Context, events []models.EngagementEvent) error {
			return nil
		},
	}
}

func (m *mockBatchEventStore) AppendBatch(ctx context.Context, events []models.EngagementEvent) error {
	m.mu.Lock()
	m.AppendBatchCalls = append(m.AppendBatchCalls, events)
	m.mu.Unlock()

	return m.AppendBatchFunc(ctx, events)
}
