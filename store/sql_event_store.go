// store/sql_event_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nearme/api/models"
)

// engagementEventRecord is the relational row layout of an event.
type engagementEventRecord struct {
	EventID      string    `gorm:"column:event_id;type:varchar(36);primaryKey"`
	BusinessID   string    `gorm:"column:business_id;type:varchar(191);not null;index:idx_engagement_business_time,priority:1"`
	BusinessName string    `gorm:"column:business_name"`
	EventType    string    `gorm:"column:event_type;type:varchar(32);not null"`
	Source       string    `gorm:"column:source"`
	SearchQuery  string    `gorm:"column:search_query"`
	DeviceType   string    `gorm:"column:device_type;type:varchar(16)"`
	SessionID    string    `gorm:"column:session_id"`
	IPAddress    string    `gorm:"column:ip_address"`
	OccurredAt   time.Time `gorm:"column:occurred_at;not null;index:idx_engagement_business_time,priority:2"`
}

func (engagementEventRecord) TableName() string {
	return "engagement_events"
}

func toRecord(e models.EngagementEvent) engagementEventRecord {
	return engagementEventRecord{
		EventID:      e.EventID,
		BusinessID:   e.BusinessID,
		BusinessName: e.BusinessName,
		EventType:    string(e.EventType),
		Source:       e.EventData.Source,
		SearchQuery:  e.EventData.SearchQuery,
		DeviceType:   string(e.EventData.DeviceType),
		SessionID:    e.SessionID,
		IPAddress:    e.IPAddress,
		// Stored in UTC so text-encoded timestamps (SQLite) compare in order.
		OccurredAt: e.Timestamp.UTC(),
	}
}

func (r engagementEventRecord) toEvent() models.EngagementEvent {
	return models.EngagementEvent{
		EventID:      r.EventID,
		BusinessID:   r.BusinessID,
		BusinessName: r.BusinessName,
		EventType:    models.EventType(r.EventType),
		EventData: models.EventData{
			Source:      r.Source,
			SearchQuery: r.SearchQuery,
			DeviceType:  models.DeviceType(r.DeviceType),
		},
		Timestamp: r.OccurredAt.UTC(),
		SessionID: r.SessionID,
		IPAddress: r.IPAddress,
	}
}

// SQLEventStore is the durable event store on a relational database
// (Postgres in production, SQLite for single-node deployments and tests).
type SQLEventStore struct {
	db      *gorm.DB
	dialect string
}

func NewSQLEventStore(db *gorm.DB) *SQLEventStore {
	return &SQLEventStore{db: db, dialect: db.Dialector.Name()}
}

func (s *SQLEventStore) Name() string { return s.dialect }

// Migrate creates or updates the engagement_events table.
func (s *SQLEventStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&engagementEventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate engagement_events: %w", err)
	}
	return nil
}

func (s *SQLEventStore) Append(ctx context.Context, event models.EngagementEvent) error {
	record := toRecord(event)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return models.NewTransientStoreError(s.Name(), "append", fmt.Errorf("failed to insert event %s: %w", event.EventID, err))
	}
	return nil
}

func (s *SQLEventStore) AppendBatch(ctx context.Context, events []models.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]engagementEventRecord, len(events))
	for i, event := range events {
		records[i] = toRecord(event)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return models.NewTransientStoreError(s.Name(), "append", fmt.Errorf("failed to insert %d events: %w", len(events), err))
	}
	return nil
}

func (s *SQLEventStore) Query(ctx context.Context, businessID string, start, end time.Time) ([]models.EngagementEvent, error) {
	var records []engagementEventRecord
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND occurred_at >= ? AND occurred_at <= ?", businessID, start.UTC(), end.UTC()).
		Order("occurred_at ASC, event_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, models.NewTransientStoreError(s.Name(), "query", fmt.Errorf("failed to query engagement events: %w", err))
	}

	results := make([]models.EngagementEvent, len(records))
	for i, r := range records {
		results[i] = r.toEvent()
	}
	return results, nil
}
