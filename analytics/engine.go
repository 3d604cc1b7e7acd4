package analytics

import (
	"sort"
	"time"

	"nearme/api/models"
)

// TopN is the length limit of the top sources and top search queries lists.
const TopN = 10

// Aggregate computes the engagement report for events that were already
// filtered to the window's business and time range. It is a pure function
// of its inputs. Events with an unrecognised type are left out of the typed
// counters and search query attribution but still count toward sessions,
// devices and hourly interactions; their number is returned so the caller
// can report it.
//
// Hour-of-day buckets use loc (time.Local when nil).
func Aggregate(events []models.EngagementEvent, window models.AnalyticsWindow, loc *time.Location) (models.BusinessAnalytics, int) {
	if loc == nil {
		loc = time.Local
	}

	report := models.EmptyAnalytics(window)
	m := &report.Metrics

	sessions := make(map[string]struct{})
	sources := newRanking()
	queries := newQueryRanking()
	skipped := 0

	for _, event := range events {
		known := countEventType(m, event.EventType)
		if !known {
			skipped++
		}
		if event.SessionID != "" {
			sessions[event.SessionID] = struct{}{}
		}

		isView := event.EventType.IsView()
		query := event.EventData.SearchQuery
		if isView {
			sources.add(event.EventData.SourceOrDefault())
			if query != "" {
				queries.get(query).Views++
			}
		} else if query != "" && known {
			// Any interaction carrying the visitor's search query is credited
			// to that query, whichever listing element was clicked.
			queries.get(query).Clicks++
		}

		switch models.NormalizeDeviceType(string(event.EventData.DeviceType)) {
		case models.DeviceMobile:
			report.DeviceBreakdown.Mobile++
		case models.DeviceTablet:
			report.DeviceBreakdown.Tablet++
		default:
			report.DeviceBreakdown.Desktop++
		}

		bucket := &report.HourlyDistribution[event.Timestamp.In(loc).Hour()]
		if isView {
			bucket.Views++
		} else {
			bucket.Interactions++
		}
	}

	m.UniqueViews = int64(len(sessions))
	m.ConversionRate = percentage(m.Conversions(), m.TotalViews)
	m.EngagementRate = percentage(m.Interactions(), m.TotalViews)

	report.TopSources = sources.top(TopN, m.TotalViews)
	report.TopSearchQueries = queries.top(TopN)

	return report, skipped
}

// countEventType increments the counter for t and reports whether t is known.
func countEventType(m *models.Metrics, t models.EventType) bool {
	switch t {
	case models.EventView:
		m.TotalViews++
	case models.EventPhoneClick:
		m.PhoneClicks++
	case models.EventWebsiteClick:
		m.WebsiteClicks++
	case models.EventBookingClick:
		m.BookingClicks++
	case models.EventDirectionsClick:
		m.DirectionsClicks++
	case models.EventEmailClick:
		m.EmailClicks++
	case models.EventHoursView:
		m.HoursViews++
	case models.EventServicesExpand:
		m.ServicesExpands++
	case models.EventPhotoView:
		m.PhotoViews++
	default:
		return false
	}
	return true
}

// percentage returns 100*part/whole, or 0 when whole is 0.
func percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// ranking counts keys while remembering the order they were first seen in,
// so equal counts keep a deterministic order.
type ranking struct {
	order  []string
	counts map[string]int64
}

func newRanking() *ranking {
	return &ranking{counts: make(map[string]int64)}
}

func (r *ranking) add(key string) {
	if _, seen := r.counts[key]; !seen {
		r.order = append(r.order, key)
	}
	r.counts[key]++
}

func (r *ranking) top(n int, totalViews int64) []models.SourceStat {
	stats := make([]models.SourceStat, 0, len(r.order))
	for _, key := range r.order {
		stats = append(stats, models.SourceStat{Source: key, Views: r.counts[key]})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Views > stats[j].Views
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	for i := range stats {
		stats[i].Percentage = percentage(stats[i].Views, totalViews)
	}
	return stats
}

type queryRanking struct {
	order []*models.SearchQueryStat
	index map[string]*models.SearchQueryStat
}

func newQueryRanking() *queryRanking {
	return &queryRanking{index: make(map[string]*models.SearchQueryStat)}
}

func (r *queryRanking) get(query string) *models.SearchQueryStat {
	stat, ok := r.index[query]
	if !ok {
		stat = &models.SearchQueryStat{Query: query}
		r.index[query] = stat
		r.order = append(r.order, stat)
	}
	return stat
}

func (r *queryRanking) top(n int) []models.SearchQueryStat {
	stats := make([]models.SearchQueryStat, 0, len(r.order))
	for _, stat := range r.order {
		stats = append(stats, *stat)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Views > stats[j].Views
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
