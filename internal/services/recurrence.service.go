package services

import (
	"errors"
	"time"

	"encore/internal/logger"
	"encore/internal/models"
	"encore/internal/utils"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

// ExpansionResult carries the rehearsals a single expansion pass produced.
// Exhausted means the series hit its end condition and will never produce
// another date, regardless of horizon.
type ExpansionResult struct {
	Rehearsals []*models.Rehearsal
	Exhausted  bool
}

// RecurrenceService turns a series' recurrence rule into concrete rehearsal
// rows. Expansion is pure: it reads the series and the set of already
// generated dates, and emits only new rows up to the horizon. Persistence
// and the (series_id, date) uniqueness constraint stay with the caller.
type RecurrenceService struct {
	log logger.Logger
}

func NewRecurrenceService() *RecurrenceService {
	return &RecurrenceService{
		log: logger.New("RecurrenceService"),
	}
}

// Validate rejects malformed series specs before any rehearsal rows are
// generated.
func (s *RecurrenceService) Validate(series *models.RehearsalSeries) error {
	log := s.log.Function("Validate")

	if series.StartDate.IsZero() {
		return log.ErrorWithType(ErrInvalidRecurrence, "start date is required")
	}

	if series.Interval < 1 {
		return log.ErrorWithType(ErrInvalidRecurrence, "interval must be at least 1",
			"interval", series.Interval)
	}

	switch series.RecurrenceType {
	case models.RecurrenceDaily, models.RecurrenceCustom, models.RecurrenceMonthly:
	case models.RecurrenceWeekly, models.RecurrenceBiWeekly:
		if len(series.DaysOfWeek) == 0 {
			return log.ErrorWithType(ErrInvalidRecurrence,
				"weekly recurrence requires at least one day of week")
		}
		for _, day := range series.DaysOfWeek {
			if _, err := utils.ParseWeekday(day); err != nil {
				return log.ErrorWithType(ErrInvalidRecurrence, "unknown day of week", "day", day)
			}
		}
	default:
		return log.ErrorWithType(ErrInvalidRecurrence, "unknown recurrence type",
			"type", series.RecurrenceType)
	}

	switch series.EndCondition {
	case models.EndConditionNever:
	case models.EndConditionAfterCount:
		if series.EndAfterCount == nil || *series.EndAfterCount < 1 {
			return log.ErrorWithType(ErrInvalidRecurrence,
				"after_count end condition requires a positive count")
		}
	case models.EndConditionEndDate:
		if series.EndDate == nil {
			return log.ErrorWithType(ErrInvalidRecurrence,
				"end_date end condition requires an end date")
		}
		if series.EndDate.Before(series.StartDate) {
			return log.ErrorWithType(ErrInvalidRecurrence, "end date precedes start date")
		}
	default:
		return log.ErrorWithType(ErrInvalidRecurrence, "unknown end condition",
			"endCondition", series.EndCondition)
	}

	for _, exception := range series.Exceptions {
		if _, err := time.Parse(models.ExceptionDateLayout, exception); err != nil {
			return log.ErrorWithType(ErrInvalidRecurrence, "malformed exception date",
				"date", exception)
		}
	}

	return nil
}

// Expand walks candidate dates from the series start and emits a rehearsal
// for each one that is inside the horizon, not past the end condition, not
// an exception and not already generated. Exceptions and already-existing
// dates are skipped without counting toward anything; emitted rows plus the
// series' lifetime GeneratedCount are what after_count is measured against.
func (s *RecurrenceService) Expand(
	series *models.RehearsalSeries,
	existing map[string]struct{},
	horizon time.Time,
) (ExpansionResult, error) {
	if err := s.Validate(series); err != nil {
		return ExpansionResult{}, err
	}

	result := ExpansionResult{}
	exceptions := series.ExceptionSet()
	generatedTotal := series.GeneratedCount

	for candidate := range s.candidates(series, horizon) {
		if candidate.After(horizon) {
			// Later calls pick up from here once the series ages forward.
			break
		}

		if series.EndCondition == models.EndConditionAfterCount &&
			generatedTotal >= *series.EndAfterCount {
			result.Exhausted = true
			break
		}

		if series.EndCondition == models.EndConditionEndDate && candidate.After(*series.EndDate) {
			result.Exhausted = true
			break
		}

		key := utils.DateKey(candidate)
		if _, skip := exceptions[key]; skip {
			continue
		}
		if _, done := existing[key]; done {
			continue
		}

		result.Rehearsals = append(result.Rehearsals, s.materialize(series, candidate))
		generatedTotal++
	}

	if series.EndCondition == models.EndConditionAfterCount &&
		generatedTotal >= *series.EndAfterCount {
		result.Exhausted = true
	}

	return result, nil
}

// candidates yields the rule's candidate dates in chronological order up to
// (and one past) the horizon, so the consumer sees the first out-of-horizon
// candidate and can stop.
func (s *RecurrenceService) candidates(
	series *models.RehearsalSeries,
	horizon time.Time,
) func(func(time.Time) bool) {
	switch series.RecurrenceType {
	case models.RecurrenceDaily, models.RecurrenceCustom:
		return func(yield func(time.Time) bool) {
			for cursor := series.StartDate; ; cursor = cursor.AddDate(0, 0, series.Interval) {
				if !yield(cursor) || cursor.After(horizon) {
					return
				}
			}
		}

	case models.RecurrenceWeekly, models.RecurrenceBiWeekly:
		// bi_weekly is weekly with a forced 2-week block spacing, counted
		// from the week of the series start as week 0.
		interval := series.Interval
		if series.RecurrenceType == models.RecurrenceBiWeekly {
			interval = 2
		}

		wanted := make(map[time.Weekday]struct{}, len(series.DaysOfWeek))
		for _, name := range series.DaysOfWeek {
			day, err := utils.ParseWeekday(name)
			if err != nil {
				continue // Validate has already rejected unknown names
			}
			wanted[day] = struct{}{}
		}

		return func(yield func(time.Time) bool) {
			for cursor := series.StartDate; ; cursor = cursor.AddDate(0, 0, 1) {
				if _, ok := wanted[cursor.Weekday()]; !ok {
					continue
				}
				if utils.WeekBlocksBetween(series.StartDate, cursor)%interval != 0 {
					continue
				}
				if !yield(cursor) || cursor.After(horizon) {
					return
				}
			}
		}

	case models.RecurrenceMonthly:
		return func(yield func(time.Time) bool) {
			for step := 0; ; step += series.Interval {
				cursor := utils.AddMonthsAnchored(series.StartDate, step)
				if !yield(cursor) || cursor.After(horizon) {
					return
				}
			}
		}
	}

	return func(func(time.Time) bool) {}
}

func (s *RecurrenceService) materialize(
	series *models.RehearsalSeries,
	date time.Time,
) *models.Rehearsal {
	seriesID := series.ID
	rehearsal := &models.Rehearsal{
		BandID:       series.BandID,
		SeriesID:     &seriesID,
		Name:         series.TemplateName,
		Description:  series.TemplateDescription,
		Location:     series.TemplateLocation,
		Date:         date,
		SongsToLearn: series.TemplateSongsToLearn,
		Status:       models.RehearsalStatusPlanning,
	}

	if series.TemplateSelectionDeadlineHours != nil {
		deadline := date.Add(-time.Duration(*series.TemplateSelectionDeadlineHours) * time.Hour)
		rehearsal.SelectionDeadline = &deadline
	}

	return rehearsal
}
