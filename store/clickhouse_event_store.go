// store/clickhouse_event_store.go
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nearme/api/database"
	"nearme/api/logger"
	"nearme/api/models"

	"go.uber.org/zap"
)

const createEngagementEventsTable = `
	CREATE TABLE IF NOT EXISTS engagement_events (
		event_id      String,
		business_id   String,
		business_name String,
		event_type    LowCardinality(String),
		source        String,
		search_query  String,
		device_type   LowCardinality(String),
		session_id    String,
		ip_address    String,
		timestamp     DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (business_id, timestamp, event_id)
`

// engagementEventColumns is the insert and select column order. eventRow and
// scanTargets follow it.
var engagementEventColumns = []string{
	"event_id", "business_id", "business_name", "event_type", "source", "search_query",
	"device_type", "session_id", "ip_address", "timestamp",
}

func eventRow(event models.EngagementEvent) []any {
	return []any{
		event.EventID,
		event.BusinessID,
		event.BusinessName,
		string(event.EventType),
		event.EventData.Source,
		event.EventData.SearchQuery,
		string(event.EventData.DeviceType),
		event.SessionID,
		event.IPAddress,
		event.Timestamp.UTC(),
	}
}

// scannedEvent holds one selected row; string-typed enums are converted by
// event.
type scannedEvent struct {
	event      models.EngagementEvent
	eventType  string
	deviceType string
}

func (r *scannedEvent) scanTargets() []any {
	return []any{
		&r.event.EventID,
		&r.event.BusinessID,
		&r.event.BusinessName,
		&r.eventType,
		&r.event.EventData.Source,
		&r.event.EventData.SearchQuery,
		&r.deviceType,
		&r.event.SessionID,
		&r.event.IPAddress,
		&r.event.Timestamp,
	}
}

func (r *scannedEvent) toEvent() models.EngagementEvent {
	event := r.event
	event.EventType = models.EventType(r.eventType)
	event.EventData.DeviceType = models.DeviceType(r.deviceType)
	return event
}

var (
	insertEngagementEvents = "INSERT INTO engagement_events (" + strings.Join(engagementEventColumns, ", ") + ")"
	selectEngagementEvents = "SELECT " + strings.Join(engagementEventColumns, ", ") + `
		FROM engagement_events
		WHERE business_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, event_id ASC`
)

// ClickHouseEventStore is the durable event store backed by a ClickHouse
// MergeTree table.
type ClickHouseEventStore struct {
	DB *database.ClickHouseClient
}

func NewClickHouseEventStore(chClient *database.ClickHouseClient) *ClickHouseEventStore {
	return &ClickHouseEventStore{
		DB: chClient,
	}
}

func (s *ClickHouseEventStore) Name() string { return "clickhouse" }

// EnsureSchema creates the engagement_events table if it does not exist.
func (s *ClickHouseEventStore) EnsureSchema(ctx context.Context) error {
	if err := s.DB.Conn.Exec(ctx, createEngagementEventsTable); err != nil {
		return fmt.Errorf("failed to create engagement_events table: %w", err)
	}
	return nil
}

func (s *ClickHouseEventStore) Append(ctx context.Context, event models.EngagementEvent) error {
	return s.AppendBatch(ctx, []models.EngagementEvent{event})
}

func (s *ClickHouseEventStore) AppendBatch(ctx context.Context, events []models.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, insertEngagementEvents)
	if err != nil {
		return models.NewTransientStoreError(s.Name(), "append", fmt.Errorf("failed to prepare batch insert: %w", err))
	}

	for _, event := range events {
		if err := batch.Append(eventRow(event)...); err != nil {
			_ = batch.Abort()
			return models.NewTransientStoreError(s.Name(), "append", fmt.Errorf("failed to append event %s to batch: %w", event.EventID, err))
		}
	}

	if err := batch.Send(); err != nil {
		return models.NewTransientStoreError(s.Name(), "append", fmt.Errorf("failed to send batch: %w", err))
	}

	logger.Debug("inserted engagement events", zap.String("store", s.Name()), zap.Int("count", len(events)))
	return nil
}

func (s *ClickHouseEventStore) Query(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error) {
	rows, err := s.DB.Conn.Query(ctx, selectEngagementEvents, businessID, start.UTC(), end.UTC())
	if err != nil {
		return nil, models.NewTransientStoreError(s.Name(), "query", fmt.Errorf("failed to query engagement events: %w", err))
	}
	defer rows.Close()

	results := make([]models.EngagementEvent, 0)
	for rows.Next() {
		var row scannedEvent
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, models.NewTransientStoreError(s.Name(), "query", fmt.Errorf("failed to scan engagement event: %w", err))
		}
		results = append(results, row.toEvent())
	}

	if err := rows.Err(); err != nil {
		return nil, models.NewTransientStoreError(s.Name(), "query", fmt.Errorf("row error during engagement event query: %w", err))
	}

	return results, nil
}
