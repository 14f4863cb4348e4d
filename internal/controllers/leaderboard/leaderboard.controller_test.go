package leaderboardController

import (
	"testing"

	. "encore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func entry(title string, average float64, total, net int) Entry {
	return Entry{
		Song: Song{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Title:         title,
		},
		SongAggregate: SongAggregate{
			AverageRating: average,
			TotalRatings:  total,
			NetScore:      net,
		},
	}
}

func titles(entries []Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Song.Title)
	}
	return names
}

func TestSortByRank(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []Entry
		expected []string
	}{
		{
			name: "clear rating difference sorts by average",
			entries: []Entry{
				entry("low", 2.0, 10, -5),
				entry("high", 4.5, 3, 3),
				entry("mid", 3.0, 6, 1),
			},
			expected: []string{"high", "mid", "low"},
		},
		{
			name: "near tie decided by volume not average",
			entries: []Entry{
				// 4.05 vs 4.0 is inside the 0.1 threshold; the song with
				// more total ratings wins despite the lower average.
				entry("few votes", 4.05, 4, 3),
				entry("many votes", 4.0, 20, 15),
			},
			expected: []string{"many votes", "few votes"},
		},
		{
			name: "exact threshold difference is not a tie",
			entries: []Entry{
				// float64 4.1-4.0 falls just under 0.1; the decimal
				// comparison must still treat the pair as 0.1 apart.
				entry("lower", 4.0, 50, 40),
				entry("higher", 4.1, 2, 2),
			},
			expected: []string{"higher", "lower"},
		},
		{
			name: "exact threshold at scale top is not a tie",
			entries: []Entry{
				entry("lower", 4.9, 50, 40),
				entry("higher", 5.0, 2, 2),
			},
			expected: []string{"higher", "lower"},
		},
		{
			name: "tie on volume falls to net score",
			entries: []Entry{
				entry("worse net", 4.0, 10, 4),
				entry("better net", 4.02, 10, 8),
			},
			expected: []string{"better net", "worse net"},
		},
		{
			name: "unvoted songs rank last",
			entries: []Entry{
				entry("unvoted", 0, 0, 0),
				entry("voted", 3.0, 2, 1),
			},
			expected: []string{"voted", "unvoted"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			SortByRank(tc.entries)
			assert.Equal(t, tc.expected, titles(tc.entries))
		})
	}
}

func TestSortByRankDeterministicOnFullTie(t *testing.T) {
	a := entry("a", 4.0, 10, 5)
	b := entry("b", 4.0, 10, 5)

	first := []Entry{a, b}
	second := []Entry{b, a}

	SortByRank(first)
	SortByRank(second)

	// Identical aggregates fall back to song ID, so input order is
	// irrelevant.
	assert.Equal(t, titles(first), titles(second))
}

func TestParseScope(t *testing.T) {
	assert.Equal(t, ScopeWeek, ParseScope("week"))
	assert.Equal(t, ScopeMonth, ParseScope("MONTH"))
	assert.Equal(t, ScopeAll, ParseScope("all"))
	assert.Equal(t, ScopeAll, ParseScope(""))
	assert.Equal(t, ScopeAll, ParseScope("yearly"))
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, OrderingNewest, ParseOrdering("newest"))
	assert.Equal(t, OrderingAlphabetical, ParseOrdering("Alphabetical"))
	assert.Equal(t, OrderingTrending, ParseOrdering("trending"))
	assert.Equal(t, OrderingDefault, ParseOrdering(""))
	assert.Equal(t, OrderingDefault, ParseOrdering("rank"))
}
