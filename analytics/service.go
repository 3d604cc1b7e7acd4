// Package analytics builds business engagement reports from tracked events.
//
// Service is the entry point: it validates and stores events, preferring a
// durable store and falling back to a bounded in-memory store, and answers
// report queries from whichever store is reachable. Storage failures never
// reach callers; they are logged and counted.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nearme/api/logger"
	"nearme/api/metrics"
	"nearme/api/models"
	"nearme/api/store"
)

// DefaultDurableTimeout bounds each durable store call.
const DefaultDurableTimeout = 3 * time.Second

type Service struct {
	durable  store.EventStore
	fallback store.EventStore
	timeout  time.Duration
	location *time.Location
	now      func() time.Time
}

type Option func(*Service)

// WithDurableTimeout sets the deadline applied to each durable store call.
func WithDurableTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLocation sets the time zone used for hour-of-day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now when resolving windows without an end date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service. durable may be nil, in which case the
// fallback store is the only tier. A nil fallback gets a memory store of
// the default capacity.
func NewService(durable, fallback store.EventStore, opts ...Option) *Service {
	if fallback == nil {
		fallback = store.NewMemoryEventStore(store.DefaultMemoryCapacity)
	}
	s := &Service{
		durable:  durable,
		fallback: fallback,
		timeout:  DefaultDurableTimeout,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track records one event. Invalid events are dropped and storage failures
// are absorbed, so Track never fails its caller.
func (s *Service) Track(ctx context.Context, event models.EngagementEvent) {
	s.TrackBatch(ctx, []models.EngagementEvent{event})
}

// TrackBatch records events with the same contract as Track and returns how
// many passed validation.
func (s *Service) TrackBatch(ctx context.Context, events []models.EngagementEvent) int {
	valid := make([]models.EngagementEvent, 0, len(events))
	for _, event := range events {
		prepared, err := prepare(event)
		if err != nil {
			logger.Warn("dropping invalid engagement event",
				zap.String("business_id", event.BusinessID),
				zap.String("event_type", string(event.EventType)),
				zap.Error(err))
			metrics.EventsDropped.WithLabelValues(metrics.ReasonInvalid).Inc()
			continue
		}
		valid = append(valid, prepared)
	}
	s.persist(ctx, valid)
	return len(valid)
}

// prepare assigns an event ID if missing, normalises the device class,
// drops a traffic source sent with a non-view event and validates the
// result.
func prepare(event models.EngagementEvent) (models.EngagementEvent, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.EventData.DeviceType = models.NormalizeDeviceType(string(event.EventData.DeviceType))
	if err := event.Validate(); err != nil {
		return event, err
	}
	if event.EventData.Source != "" && !event.EventType.IsView() {
		logger.Warn("ignoring traffic source on non-view event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", string(event.EventType)),
			zap.String("source", event.EventData.Source))
		event.EventData.Source = ""
	}
	return event, nil
}

func (s *Service) persist(ctx context.Context, events []models.EngagementEvent) {
	if len(events) == 0 {
		return
	}
	if s.durable == nil {
		s.appendFallback(ctx, events)
		return
	}

	if batcher, ok := s.durable.(store.BatchAppender); ok && len(events) > 1 {
		err := s.callDurable(ctx, "append", func(dctx context.Context) error {
			return batcher.AppendBatch(dctx, events)
		})
		if err != nil {
			s.logFallback("append", err, zap.Int("count", len(events)))
			s.appendFallback(ctx, events)
			return
		}
		metrics.EventsStored.WithLabelValues(metrics.TierDurable).Add(float64(len(events)))
		return
	}

	for _, event := range events {
		err := s.callDurable(ctx, "append", func(dctx context.Context) error {
			return s.durable.Append(dctx, event)
		})
		if err != nil {
			s.logFallback("append", err, zap.String("event_id", event.EventID))
			s.appendFallback(ctx, []models.EngagementEvent{event})
			continue
		}
		metrics.EventsStored.WithLabelValues(metrics.TierDurable).Inc()
	}
}

func (s *Service) appendFallback(ctx context.Context, events []models.EngagementEvent) {
	// Tracking outlives the request that triggered it.
	fctx := context.WithoutCancel(ctx)
	for _, event := range events {
		err := guard(s.fallback.Name(), "append", func() error {
			return s.fallback.Append(fctx, event)
		})
		if err != nil {
			logger.Error("failed to record engagement event in any store",
				zap.String("event_id", event.EventID),
				zap.String("business_id", event.BusinessID),
				zap.Error(err))
			metrics.EventsDropped.WithLabelValues(metrics.ReasonStoreFailed).Inc()
			continue
		}
		metrics.EventsStored.WithLabelValues(metrics.TierMemory).Inc()
	}
}

// GetAnalytics builds the report for businessID over the resolved window.
// Only request validation errors are returned; when both stores fail the
// zeroed report for the window is returned.
func (s *Service) GetAnalytics(ctx context.Context, businessID string, period models.Period, start, end *time.Time) (models.BusinessAnalytics, error) {
	if strings.TrimSpace(businessID) == "" {
		return models.BusinessAnalytics{}, models.NewWindowValidationError("businessId", "is required")
	}
	window, err := ResolveWindow(businessID, period, start, end, s.now())
	if err != nil {
		return models.BusinessAnalytics{}, err
	}

	began := time.Now()

	if s.durable != nil {
		var events []models.EngagementEvent
		err := s.callDurable(ctx, "query", func(dctx context.Context) error {
			var qerr error
			events, qerr = s.durable.Query(dctx, businessID, window.StartDate, window.EndDate)
			return qerr
		})
		if err == nil {
			return s.report(events, window, metrics.TierDurable, began), nil
		}
		s.logFallback("query", err, zap.String("business_id", businessID))
	}

	var events []models.EngagementEvent
	err = guard(s.fallback.Name(), "query", func() error {
		var qerr error
		events, qerr = s.fallback.Query(ctx, businessID, window.StartDate, window.EndDate)
		return qerr
	})
	if err == nil {
		return s.report(events, window, metrics.TierMemory, began), nil
	}

	logger.Error("no event store available, returning empty analytics",
		zap.String("business_id", businessID),
		zap.Error(err))
	metrics.QueryDuration.WithLabelValues(metrics.TierNone).Observe(time.Since(began).Seconds())
	return models.EmptyAnalytics(window), nil
}

func (s *Service) report(events []models.EngagementEvent, window models.AnalyticsWindow, tier string, began time.Time) models.BusinessAnalytics {
	result, skipped := Aggregate(events, window, s.location)
	if skipped > 0 {
		logger.Warn("skipped events with unrecognised type",
			zap.String("business_id", window.BusinessID),
			zap.Int("skipped", skipped))
	}
	metrics.QueryDuration.WithLabelValues(tier).Observe(time.Since(began).Seconds())
	return result
}

// callDurable runs fn against the durable store under the configured
// deadline. Tracking writes are detached from caller cancellation. The
// call fails once the deadline passes, even if fn ignores its context and
// returns later.
func (s *Service) callDurable(ctx context.Context, op string, fn func(context.Context) error) error {
	parent := ctx
	if op == "append" {
		parent = context.WithoutCancel(ctx)
	}
	dctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- guard(s.durable.Name(), op, func() error {
			return fn(dctx)
		})
	}()

	select {
	case err := <-done:
		if err == nil && dctx.Err() != nil {
			return models.NewTransientStoreError(s.durable.Name(), op, dctx.Err())
		}
		return err
	case <-dctx.Done():
		return models.NewTransientStoreError(s.durable.Name(), op, dctx.Err())
	}
}

func (s *Service) logFallback(op string, err error, fields ...zap.Field) {
	metrics.StoreFallbacks.WithLabelValues(op).Inc()
	fields = append(fields,
		zap.String("store", s.durable.Name()),
		zap.String("op", op),
		zap.Error(err))
	logger.Warn("durable event store failed, using memory store", fields...)
}

// guard runs fn, converting panics and bare errors into TransientStoreErrors.
func guard(storeName, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewTransientStoreError(storeName, op, fmt.Errorf("panic: %v", r))
		}
	}()
	if err = fn(); err != nil && !errors.Is(err, models.ErrStoreUnavailable) {
		err = models.NewTransientStoreError(storeName, op, err)
	}
	return err
}
