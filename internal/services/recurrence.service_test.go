package services

import (
	"testing"
	"time"

	"encore/internal/models"
	"encore/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 19, 0, 0, 0, time.UTC)
}

func weeklySeries(start time.Time, days ...string) *models.RehearsalSeries {
	return &models.RehearsalSeries{
		BandID:               uuid.New(),
		RecurrenceType:       models.RecurrenceWeekly,
		Interval:             1,
		DaysOfWeek:           days,
		StartDate:            start,
		EndCondition:         models.EndConditionNever,
		TemplateName:         "Weekly rehearsal",
		TemplateSongsToLearn: 5,
	}
}

func dates(result ExpansionResult) []string {
	keys := make([]string, 0, len(result.Rehearsals))
	for _, r := range result.Rehearsals {
		keys = append(keys, utils.DateKey(r.Date))
	}
	return keys
}

func TestValidate(t *testing.T) {
	service := NewRecurrenceService()
	start := day(2024, time.January, 5)

	endCount := func(n int) *int { return &n }

	testCases := []struct {
		name      string
		mutate    func(s *models.RehearsalSeries)
		wantError bool
	}{
		{
			name:      "valid weekly",
			mutate:    func(s *models.RehearsalSeries) {},
			wantError: false,
		},
		{
			name: "missing start date",
			mutate: func(s *models.RehearsalSeries) {
				s.StartDate = time.Time{}
			},
			wantError: true,
		},
		{
			name: "zero interval",
			mutate: func(s *models.RehearsalSeries) {
				s.Interval = 0
			},
			wantError: true,
		},
		{
			name: "weekly without days of week",
			mutate: func(s *models.RehearsalSeries) {
				s.DaysOfWeek = nil
			},
			wantError: true,
		},
		{
			name: "weekly with unknown day name",
			mutate: func(s *models.RehearsalSeries) {
				s.DaysOfWeek = []string{"friday", "froday"}
			},
			wantError: true,
		},
		{
			name: "unknown recurrence type",
			mutate: func(s *models.RehearsalSeries) {
				s.RecurrenceType = "fortnightly"
			},
			wantError: true,
		},
		{
			name: "after_count without count",
			mutate: func(s *models.RehearsalSeries) {
				s.EndCondition = models.EndConditionAfterCount
			},
			wantError: true,
		},
		{
			name: "after_count with zero count",
			mutate: func(s *models.RehearsalSeries) {
				s.EndCondition = models.EndConditionAfterCount
				s.EndAfterCount = endCount(0)
			},
			wantError: true,
		},
		{
			name: "end_date before start",
			mutate: func(s *models.RehearsalSeries) {
				end := start.AddDate(0, 0, -1)
				s.EndCondition = models.EndConditionEndDate
				s.EndDate = &end
			},
			wantError: true,
		},
		{
			name: "malformed exception date",
			mutate: func(s *models.RehearsalSeries) {
				s.Exceptions = []string{"05/01/2024"}
			},
			wantError: true,
		},
		{
			name: "daily needs no days of week",
			mutate: func(s *models.RehearsalSeries) {
				s.RecurrenceType = models.RecurrenceDaily
				s.DaysOfWeek = nil
			},
			wantError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			series := weeklySeries(start, "friday")
			tc.mutate(series)

			err := service.Validate(series)
			if tc.wantError {
				assert.ErrorIs(t, err, ErrInvalidRecurrence)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandWeeklyAfterCount(t *testing.T) {
	service := NewRecurrenceService()

	// start on a Friday, stop after 3 occurrences no matter the horizon
	count := 3
	series := weeklySeries(day(2024, time.January, 5), "friday")
	series.EndCondition = models.EndConditionAfterCount
	series.EndAfterCount = &count

	result, err := service.Expand(series, nil, day(2024, time.December, 31))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-05", "2024-01-12", "2024-01-19"}, dates(result))
	assert.True(t, result.Exhausted)
}

func TestExpandAfterCountAcrossCalls(t *testing.T) {
	service := NewRecurrenceService()

	// A series that has already generated 2 of its 3 occurrences only
	// yields the one remaining date.
	count := 3
	series := weeklySeries(day(2024, time.January, 5), "friday")
	series.EndCondition = models.EndConditionAfterCount
	series.EndAfterCount = &count
	series.GeneratedCount = 2

	existing := map[string]struct{}{
		"2024-01-05": {},
		"2024-01-12": {},
	}

	result, err := service.Expand(series, existing, day(2024, time.December, 31))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-19"}, dates(result))
	assert.True(t, result.Exhausted)
}

func TestExpandWeeklyWithException(t *testing.T) {
	service := NewRecurrenceService()

	// exception on the third Monday removes that occurrence without
	// shifting the rest
	series := weeklySeries(day(2024, time.January, 1), "monday")
	series.Exceptions = []string{"2024-01-15"}

	result, err := service.Expand(series, nil, day(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"2024-01-01", "2024-01-08", "2024-01-22", "2024-01-29"},
		dates(result))
	assert.False(t, result.Exhausted)
}

func TestExpandWeeklyMultipleDays(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 1), "monday", "thursday")

	result, err := service.Expand(series, nil, day(2024, time.January, 14))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"2024-01-01", "2024-01-04", "2024-01-08", "2024-01-11"},
		dates(result))
}

func TestExpandBiWeekly(t *testing.T) {
	service := NewRecurrenceService()

	// 2-week blocks counted from the start's week: weeks 0, 2, 4 produce,
	// weeks 1 and 3 are skipped.
	series := weeklySeries(day(2024, time.January, 5), "friday")
	series.RecurrenceType = models.RecurrenceBiWeekly

	result, err := service.Expand(series, nil, day(2024, time.February, 9))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-05", "2024-01-19", "2024-02-02"}, dates(result))
}

func TestExpandMonthlyClampsToMonthEnd(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 31))
	series.RecurrenceType = models.RecurrenceMonthly
	series.DaysOfWeek = nil

	result, err := service.Expand(series, nil, day(2024, time.April, 30))
	require.NoError(t, err)

	// February clamps to the 29th (leap year); later months return to the
	// anchor day where it exists.
	assert.Equal(t,
		[]string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		dates(result))
}

func TestExpandDailyInterval(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 1))
	series.RecurrenceType = models.RecurrenceDaily
	series.DaysOfWeek = nil
	series.Interval = 3

	result, err := service.Expand(series, nil, day(2024, time.January, 10))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-04", "2024-01-07", "2024-01-10"}, dates(result))
}

func TestExpandIdempotence(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 5), "friday")
	horizon := day(2024, time.February, 2)

	first, err := service.Expand(series, nil, horizon)
	require.NoError(t, err)
	require.NotEmpty(t, first.Rehearsals)

	existing := make(map[string]struct{}, len(first.Rehearsals))
	for _, r := range first.Rehearsals {
		existing[utils.DateKey(r.Date)] = struct{}{}
	}

	second, err := service.Expand(series, existing, horizon)
	require.NoError(t, err)
	assert.Empty(t, second.Rehearsals)
}

func TestExpandEndDate(t *testing.T) {
	service := NewRecurrenceService()

	end := day(2024, time.January, 13)
	series := weeklySeries(day(2024, time.January, 5), "friday")
	series.EndCondition = models.EndConditionEndDate
	series.EndDate = &end

	result, err := service.Expand(series, nil, day(2024, time.December, 31))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-05", "2024-01-12"}, dates(result))
	assert.True(t, result.Exhausted)
}

func TestExpandHorizonBound(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 5), "friday")

	result, err := service.Expand(series, nil, day(2024, time.January, 19))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-05", "2024-01-12", "2024-01-19"}, dates(result))
	assert.False(t, result.Exhausted)
}

func TestExpandMaterializesTemplate(t *testing.T) {
	service := NewRecurrenceService()

	deadlineHours := 48
	series := weeklySeries(day(2024, time.January, 5), "friday")
	series.TemplateName = "Friday night"
	series.TemplateDescription = "Full run-through"
	series.TemplateLocation = "Basement studio"
	series.TemplateSongsToLearn = 4
	series.TemplateSelectionDeadlineHours = &deadlineHours

	result, err := service.Expand(series, nil, day(2024, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Rehearsals, 1)

	rehearsal := result.Rehearsals[0]
	assert.Equal(t, series.BandID, rehearsal.BandID)
	require.NotNil(t, rehearsal.SeriesID)
	assert.Equal(t, series.ID, *rehearsal.SeriesID)
	assert.Equal(t, "Friday night", rehearsal.Name)
	assert.Equal(t, "Full run-through", rehearsal.Description)
	assert.Equal(t, "Basement studio", rehearsal.Location)
	assert.Equal(t, 4, rehearsal.SongsToLearn)
	assert.Equal(t, models.RehearsalStatusPlanning, rehearsal.Status)

	require.NotNil(t, rehearsal.SelectionDeadline)
	assert.Equal(t,
		rehearsal.Date.Add(-48*time.Hour),
		*rehearsal.SelectionDeadline)
}

func TestExpandRejectsInvalidSeries(t *testing.T) {
	service := NewRecurrenceService()

	series := weeklySeries(day(2024, time.January, 5)) // no days of week

	_, err := service.Expand(series, nil, day(2024, time.February, 1))
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}
