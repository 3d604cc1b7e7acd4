package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearme/api/models"
)

func date(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 30, 0, 0, time.UTC)
}

func TestResolveWindowDefaults(t *testing.T) {
	now := date(2025, time.March, 31, 15)

	tests := []struct {
		period models.Period
		start  time.Time
	}{
		{models.PeriodDay, date(2025, time.March, 30, 15)},
		{models.PeriodWeek, date(2025, time.March, 24, 15)},
		{models.PeriodMonth, date(2025, time.February, 28, 15)},
		{models.PeriodYear, date(2024, time.March, 31, 15)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			window, err := ResolveWindow("b1", tt.period, nil, nil, now)
			require.NoError(t, err)
			assert.Equal(t, "b1", window.BusinessID)
			assert.Equal(t, tt.period, window.Period)
			assert.Equal(t, now, window.EndDate)
			assert.Equal(t, tt.start, window.StartDate)
		})
	}
}

func TestResolveWindowCalendarClamping(t *testing.T) {
	tests := []struct {
		name   string
		period models.Period
		end    time.Time
		start  time.Time
	}{
		{"month back into leap February", models.PeriodMonth, date(2024, time.March, 31, 9), date(2024, time.February, 29, 9)},
		{"month back into common February", models.PeriodMonth, date(2025, time.March, 31, 9), date(2025, time.February, 28, 9)},
		{"month back across year boundary", models.PeriodMonth, date(2025, time.January, 31, 9), date(2024, time.December, 31, 9)},
		{"month back into 30-day month", models.PeriodMonth, date(2025, time.May, 31, 9), date(2025, time.April, 30, 9)},
		{"month without clamping", models.PeriodMonth, date(2025, time.June, 15, 9), date(2025, time.May, 15, 9)},
		{"year back from leap day", models.PeriodYear, date(2024, time.February, 29, 9), date(2023, time.February, 28, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := tt.end
			window, err := ResolveWindow("b1", tt.period, nil, &end, time.Time{})
			require.NoError(t, err)
			assert.Equal(t, tt.start, window.StartDate)
			assert.Equal(t, tt.end, window.EndDate)
		})
	}
}

func TestResolveWindowExplicitBounds(t *testing.T) {
	start := date(2025, time.January, 1, 0)
	end := date(2025, time.January, 2, 0)

	window, err := ResolveWindow("b1", models.PeriodYear, &start, &end, date(2030, time.January, 1, 0))

	require.NoError(t, err)
	assert.Equal(t, start, window.StartDate)
	assert.Equal(t, end, window.EndDate)
}

func TestResolveWindowErrors(t *testing.T) {
	now := date(2025, time.March, 31, 15)

	_, err := ResolveWindow("b1", "fortnight", nil, nil, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidWindow))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "period", verr.Field)

	start := now.Add(time.Hour)
	_, err = ResolveWindow("b1", models.PeriodDay, &start, nil, now)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start", verr.Field)
	assert.ErrorIs(t, err, models.ErrInvalidWindow)
}

func TestResolveWindowSingleInstant(t *testing.T) {
	instant := date(2025, time.March, 1, 0)

	window, err := ResolveWindow("b1", models.PeriodDay, &instant, &instant, instant)

	require.NoError(t, err)
	assert.True(t, window.Contains(instant))
}
