package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2024-01-05", DateKey(date(2024, time.January, 5)))

	// Instants reduce to their UTC calendar date.
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, time.January, 5, 23, 30, 0, 0, est)
	assert.Equal(t, "2024-01-06", DateKey(late))
}

func TestStartOfWeek(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "monday maps to itself",
			input:    date(2024, time.January, 1),
			expected: date(2024, time.January, 1),
		},
		{
			name:     "sunday maps to preceding monday",
			input:    date(2024, time.January, 7),
			expected: date(2024, time.January, 1),
		},
		{
			name:     "midweek",
			input:    date(2024, time.January, 10),
			expected: date(2024, time.January, 8),
		},
		{
			name:     "time of day is stripped",
			input:    time.Date(2024, time.January, 3, 19, 30, 0, 0, time.UTC),
			expected: date(2024, time.January, 1),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StartOfWeek(tc.input))
		})
	}
}

func TestWeekBlocksBetween(t *testing.T) {
	testCases := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{
			name:     "same week is zero",
			from:     date(2024, time.January, 1),
			to:       date(2024, time.January, 7),
			expected: 0,
		},
		{
			name:     "next week is one",
			from:     date(2024, time.January, 5),
			to:       date(2024, time.January, 8),
			expected: 1,
		},
		{
			name:     "two weeks out",
			from:     date(2024, time.January, 5),
			to:       date(2024, time.January, 19),
			expected: 2,
		},
		{
			name: "anchored to weeks not day deltas",
			// Friday to following Monday is only 3 days but crosses a
			// week boundary.
			from:     date(2024, time.January, 5),
			to:       date(2024, time.January, 8),
			expected: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, WeekBlocksBetween(tc.from, tc.to))
		})
	}
}

func TestClampedDayInMonth(t *testing.T) {
	timeOfDay := time.Date(2024, time.January, 31, 19, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		year     int
		month    time.Month
		day      int
		expected time.Time
	}{
		{
			name:     "day exists",
			year:     2024,
			month:    time.March,
			day:      31,
			expected: time.Date(2024, time.March, 31, 19, 30, 0, 0, time.UTC),
		},
		{
			name:     "clamped to leap february",
			year:     2024,
			month:    time.February,
			day:      31,
			expected: time.Date(2024, time.February, 29, 19, 30, 0, 0, time.UTC),
		},
		{
			name:     "clamped to non-leap february",
			year:     2025,
			month:    time.February,
			day:      31,
			expected: time.Date(2025, time.February, 28, 19, 30, 0, 0, time.UTC),
		},
		{
			name:     "clamped to thirty day month",
			year:     2024,
			month:    time.April,
			day:      31,
			expected: time.Date(2024, time.April, 30, 19, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClampedDayInMonth(tc.year, tc.month, tc.day, timeOfDay))
		})
	}
}

func TestAddMonthsAnchored(t *testing.T) {
	anchor := time.Date(2024, time.January, 31, 19, 0, 0, 0, time.UTC)

	// February clamps, March returns to the anchor's 31st.
	assert.Equal(t,
		time.Date(2024, time.February, 29, 19, 0, 0, 0, time.UTC),
		AddMonthsAnchored(anchor, 1))
	assert.Equal(t,
		time.Date(2024, time.March, 31, 19, 0, 0, 0, time.UTC),
		AddMonthsAnchored(anchor, 2))
	assert.Equal(t,
		time.Date(2024, time.April, 30, 19, 0, 0, 0, time.UTC),
		AddMonthsAnchored(anchor, 3))

	// Zero months is the anchor itself.
	assert.Equal(t, anchor, AddMonthsAnchored(anchor, 0))
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)

	day, err = ParseWeekday("  Friday ")
	require.NoError(t, err)
	assert.Equal(t, time.Friday, day)

	_, err = ParseWeekday("froday")
	assert.Error(t, err)

	_, err = ParseWeekday("")
	assert.Error(t, err)
}
