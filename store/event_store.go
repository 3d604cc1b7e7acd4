// store/event_store.go
package store

import (
	"context"
	"sort"
	"time"

	"nearme/api/models"
)

// EventStore persists engagement events and reads them back per business
// and time range. Implementations report failures as errors matching
// models.ErrStoreUnavailable; the analytics service decides how to recover.
type EventStore interface {
	// Name identifies the store in logs.
	Name() string
	// Append records a single event.
	Append(ctx context.Context, event models.EngagementEvent) error
	// Query returns every event of businessID with start <= timestamp <= end,
	// ordered by timestamp then event ID. The slice is owned by the caller.
	Query(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error)
}

// BatchAppender is implemented by stores with a native bulk insert.
type BatchAppender interface {
	AppendBatch(ctx context.Context, events []models.EngagementEvent) error
}

func sortEvents(events []models.EngagementEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].EventID < events[j].EventID
	})
}
