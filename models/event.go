// models/event.go
package models

import (
	"strings"
	"time"
)

// EventType identifies the interaction a listing visitor performed.
type EventType string

const (
	EventView            EventType = "view"
	EventPhoneClick      EventType = "phone_click"
	EventWebsiteClick    EventType = "website_click"
	EventBookingClick    EventType = "booking_click"
	EventDirectionsClick EventType = "directions_click"
	EventEmailClick      EventType = "email_click"
	EventHoursView       EventType = "hours_view"
	EventServicesExpand  EventType = "services_expand"
	EventPhotoView       EventType = "photo_view"
)

// EventTypes lists every recognised event type, views first.
var EventTypes = []EventType{
	EventView,
	EventPhoneClick,
	EventWebsiteClick,
	EventBookingClick,
	EventDirectionsClick,
	EventEmailClick,
	EventHoursView,
	EventServicesExpand,
	EventPhotoView,
}

// IsValid reports whether t is one of the recognised event types.
func (t EventType) IsValid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsView reports whether t is a listing view (as opposed to an interaction).
func (t EventType) IsView() bool {
	return t == EventView
}

// DeviceType is the coarse device class reported by the tracking client.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// NormalizeDeviceType maps a client-reported device string onto a known
// class. Anything unrecognised, including an empty string, is desktop.
func NormalizeDeviceType(raw string) DeviceType {
	switch DeviceType(strings.ToLower(strings.TrimSpace(raw))) {
	case DeviceMobile:
		return DeviceMobile
	case DeviceTablet:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// DirectSource is the traffic source recorded for views without one.
const DirectSource = "direct"

// EventData is the structured context attached to an event.
// Source is only meaningful for views; SearchQuery is the search the
// visitor came from and may accompany any event type.
type EventData struct {
	Source      string     `json:"source,omitempty"`
	SearchQuery string     `json:"searchQuery,omitempty"`
	DeviceType  DeviceType `json:"deviceType,omitempty"`
}

// SourceOrDefault returns the traffic source, defaulting to "direct".
func (d EventData) SourceOrDefault() string {
	if d.Source == "" {
		return DirectSource
	}
	return d.Source
}

// EngagementEvent is a single recorded interaction with a business listing.
// Events are immutable once recorded.
type EngagementEvent struct {
	EventID      string    `json:"eventId"`
	BusinessID   string    `json:"businessId" validate:"required"`
	BusinessName string    `json:"businessName"`
	EventType    EventType `json:"eventType" validate:"required,event_type"`
	EventData    EventData `json:"eventData"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	SessionID    string    `json:"sessionId,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
}
