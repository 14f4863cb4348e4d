package jobs

import (
	"context"

	seriesController "encore/internal/controllers/series"
	"encore/internal/logger"
	"encore/internal/services"
)

// SeriesExpansionJob keeps every active rehearsal series' rolling window of
// generated rehearsals full. It runs nightly because the horizon only moves
// a day at a time; manual "generate more" actions cover anything urgent.
type SeriesExpansionJob struct {
	series   seriesController.SeriesControllerInterface
	schedule services.Schedule
	log      logger.Logger
}

func NewSeriesExpansionJob(
	series seriesController.SeriesControllerInterface,
	schedule services.Schedule,
) *SeriesExpansionJob {
	return &SeriesExpansionJob{
		series:   series,
		schedule: schedule,
		log:      logger.New("seriesExpansionJob"),
	}
}

func (j *SeriesExpansionJob) Name() string {
	return "series-expansion"
}

func (j *SeriesExpansionJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *SeriesExpansionJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if err := j.series.ExpandActiveSeries(ctx); err != nil {
		return log.Err("series expansion pass failed", err)
	}

	return nil
}
