package analytics

import (
	"fmt"
	"time"

	"nearme/api/models"
)

// ResolveWindow turns a period and optional explicit bounds into a concrete
// window. A missing end defaults to now; a missing start is end minus one
// period. Day and week are fixed 24h and 7×24h spans; month and year use
// calendar arithmetic with the day clamped to the end of the target month.
func ResolveWindow(businessID string, period models.Period, start, end *time.Time, now time.Time) (models.AnalyticsWindow, error) {
	if !period.IsValid() {
		return models.AnalyticsWindow{}, models.NewWindowValidationError("period",
			fmt.Sprintf("unsupported period %q (expected day, week, month or year)", period))
	}

	window := models.AnalyticsWindow{
		BusinessID: businessID,
		Period:     period,
		EndDate:    now,
	}
	if end != nil {
		window.EndDate = *end
	}
	if start != nil {
		window.StartDate = *start
	} else {
		window.StartDate = subtractPeriod(window.EndDate, period)
	}

	if window.StartDate.After(window.EndDate) {
		return models.AnalyticsWindow{}, models.NewWindowValidationError("start",
			fmt.Sprintf("start %s is after end %s", window.StartDate.Format(time.RFC3339), window.EndDate.Format(time.RFC3339)))
	}
	return window, nil
}

func subtractPeriod(end time.Time, period models.Period) time.Time {
	switch period {
	case models.PeriodDay:
		return end.Add(-24 * time.Hour)
	case models.PeriodWeek:
		return end.Add(-7 * 24 * time.Hour)
	case models.PeriodMonth:
		return addMonthsClamped(end, -1)
	case models.PeriodYear:
		return addMonthsClamped(end, -12)
	default:
		return end
	}
}

// addMonthsClamped moves t by the given number of calendar months, keeping
// the time of day. When the target month is shorter, the day becomes its
// last day (Mar 31 - 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
