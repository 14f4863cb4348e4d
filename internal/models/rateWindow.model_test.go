package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateWindowResetAt(t *testing.T) {
	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	window := &RateWindow{WindowStart: start, VoteCount: 10}

	assert.Equal(t, start.Add(time.Hour), window.ResetAt())
}

func TestRateWindowExpired(t *testing.T) {
	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	window := &RateWindow{WindowStart: start, VoteCount: MaxVotesPerWindow}

	testCases := []struct {
		name     string
		now      time.Time
		expected bool
	}{
		{
			name:     "inside window",
			now:      start.Add(30 * time.Minute),
			expected: false,
		},
		{
			name:     "one second before reset",
			now:      start.Add(time.Hour - time.Second),
			expected: false,
		},
		{
			name:     "exactly at reset",
			now:      start.Add(time.Hour),
			expected: true,
		},
		{
			// a vote at windowStart + 1h + 1s lands in a fresh window
			name:     "one second past reset",
			now:      start.Add(time.Hour + time.Second),
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, window.Expired(tc.now))
		})
	}
}
