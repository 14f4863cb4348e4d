package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVoteRating(t *testing.T) {
	up := &Vote{Type: VoteTypeUp}
	down := &Vote{Type: VoteTypeDown}

	assert.Equal(t, 5.0, up.Rating())
	assert.Equal(t, 1.0, down.Rating())
}

func TestNewSongAggregate(t *testing.T) {
	songID := uuid.New()

	testCases := []struct {
		name            string
		upvotes         int
		downvotes       int
		expectedAverage float64
		expectedNet     int
		expectedTotal   int
	}{
		{
			name:            "no votes",
			upvotes:         0,
			downvotes:       0,
			expectedAverage: 0,
			expectedNet:     0,
			expectedTotal:   0,
		},
		{
			name:            "all upvotes",
			upvotes:         4,
			downvotes:       0,
			expectedAverage: 5.0,
			expectedNet:     4,
			expectedTotal:   4,
		},
		{
			name:            "all downvotes",
			upvotes:         0,
			downvotes:       3,
			expectedAverage: 1.0,
			expectedNet:     -3,
			expectedTotal:   3,
		},
		{
			name:            "even split",
			upvotes:         2,
			downvotes:       2,
			expectedAverage: 3.0,
			expectedNet:     0,
			expectedTotal:   4,
		},
		{
			// (3*5 + 1*1) / 4 = 4
			name:            "mixed",
			upvotes:         3,
			downvotes:       1,
			expectedAverage: 4.0,
			expectedNet:     2,
			expectedTotal:   4,
		},
		{
			// (2*5 + 1*1) / 3 rounds to 4 decimal places
			name:            "repeating decimal is rounded",
			upvotes:         2,
			downvotes:       1,
			expectedAverage: 3.6667,
			expectedNet:     1,
			expectedTotal:   3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			aggregate := NewSongAggregate(songID, tc.upvotes, tc.downvotes)

			assert.Equal(t, songID, aggregate.SongID)
			assert.Equal(t, tc.upvotes, aggregate.UpvoteCount)
			assert.Equal(t, tc.downvotes, aggregate.DownvoteCount)
			assert.Equal(t, tc.expectedAverage, aggregate.AverageRating)
			assert.Equal(t, tc.expectedNet, aggregate.NetScore)
			assert.Equal(t, tc.expectedTotal, aggregate.TotalRatings)
		})
	}
}
