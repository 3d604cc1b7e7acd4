// models/analytics.go
package models

import "time"

// Period is the reporting granularity requested by the dashboard.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// IsValid reports whether p is a supported reporting period.
func (p Period) IsValid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// AnalyticsWindow is the inclusive time range a report covers.
type AnalyticsWindow struct {
	BusinessID string    `json:"businessId"`
	Period     Period    `json:"period"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

// Contains reports whether ts falls inside the window, bounds included.
func (w AnalyticsWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.StartDate) && !ts.After(w.EndDate)
}

type Metrics struct {
	TotalViews       int64   `json:"totalViews"`
	PhoneClicks      int64   `json:"phoneClicks"`
	WebsiteClicks    int64   `json:"websiteClicks"`
	BookingClicks    int64   `json:"bookingClicks"`
	DirectionsClicks int64   `json:"directionsClicks"`
	EmailClicks      int64   `json:"emailClicks"`
	HoursViews       int64   `json:"hoursViews"`
	ServicesExpands  int64   `json:"servicesExpands"`
	PhotoViews       int64   `json:"photoViews"`
	UniqueViews      int64   `json:"uniqueViews"`
	ConversionRate   float64 `json:"conversionRate"`
	EngagementRate   float64 `json:"engagementRate"`
}

// Interactions is the sum of every non-view counter.
func (m Metrics) Interactions() int64 {
	return m.PhoneClicks + m.WebsiteClicks + m.BookingClicks + m.DirectionsClicks +
		m.EmailClicks + m.HoursViews + m.ServicesExpands + m.PhotoViews
}

// Conversions is the sum of the primary contact actions.
func (m Metrics) Conversions() int64 {
	return m.PhoneClicks + m.WebsiteClicks + m.BookingClicks
}

type SourceStat struct {
	Source     string  `json:"source"`
	Views      int64   `json:"views"`
	Percentage float64 `json:"percentage"`
}

type SearchQueryStat struct {
	Query  string `json:"query"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}

type DeviceBreakdown struct {
	Mobile  int64 `json:"mobile"`
	Tablet  int64 `json:"tablet"`
	Desktop int64 `json:"desktop"`
}

type HourlyStat struct {
	Hour         int   `json:"hour"`
	Views        int64 `json:"views"`
	Interactions int64 `json:"interactions"`
}

// BusinessAnalytics is the derived engagement report for one business over
// one window. It is recomputed on every request and never persisted.
type BusinessAnalytics struct {
	BusinessID         string            `json:"businessId"`
	Period             Period            `json:"period"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            time.Time         `json:"endDate"`
	Metrics            Metrics           `json:"metrics"`
	TopSources         []SourceStat      `json:"topSources"`
	TopSearchQueries   []SearchQueryStat `json:"topSearchQueries"`
	DeviceBreakdown    DeviceBreakdown   `json:"deviceBreakdown"`
	HourlyDistribution []HourlyStat      `json:"hourlyDistribution"`
}

// EmptyAnalytics returns the zeroed report for a window: all counters zero,
// empty top lists and 24 empty hourly buckets.
func EmptyAnalytics(w AnalyticsWindow) BusinessAnalytics {
	hourly := make([]HourlyStat, 24)
	for hour := range hourly {
		hourly[hour].Hour = hour
	}
	return BusinessAnalytics{
		BusinessID:         w.BusinessID,
		Period:             w.Period,
		StartDate:          w.StartDate,
		EndDate:            w.EndDate,
		TopSources:         []SourceStat{},
		TopSearchQueries:   []SearchQueryStat{},
		HourlyDistribution: hourly,
	}
}
