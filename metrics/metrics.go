// Package metrics exposes Prometheus collectors for event ingest and
// analytics queries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsStored counts events persisted, by store tier ("durable", "memory").
	EventsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearme",
		Subsystem: "engagement",
		Name:      "events_stored_total",
		Help:      "Engagement events persisted, by store tier.",
	}, []string{"tier"})

	// EventsDropped counts events that were not stored, by reason.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearme",
		Subsystem: "engagement",
		Name:      "events_dropped_total",
		Help:      "Engagement events dropped, by reason.",
	}, []string{"reason"})

	// StoreFallbacks counts durable store failures that fell back to memory.
	StoreFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearme",
		Subsystem: "engagement",
		Name:      "store_fallbacks_total",
		Help:      "Durable store failures recovered by the memory store, by operation.",
	}, []string{"op"})

	// QueryDuration observes GetAnalytics latency, by the tier that answered.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nearme",
		Subsystem: "analytics",
		Name:      "query_duration_seconds",
		Help:      "Time to build a business analytics report.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tier"})
)

const (
	TierDurable = "durable"
	TierMemory  = "memory"
	TierNone    = "none"

	ReasonInvalid     = "invalid"
	ReasonStoreFailed = "store_failed"
)
