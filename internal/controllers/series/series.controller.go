package seriesController

import (
	"context"
	"errors"
	"time"

	"encore/config"
	"encore/internal/database"
	"encore/internal/events"
	"encore/internal/logger"
	. "encore/internal/models"
	"encore/internal/repositories"
	"encore/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type CreateSeriesRequest struct {
	BandID         uuid.UUID        `json:"bandId"`
	RecurrenceType RecurrenceType   `json:"recurrenceType"`
	Interval       int              `json:"interval"`
	DaysOfWeek     []string         `json:"daysOfWeek,omitempty"`
	StartDate      time.Time        `json:"startDate"`
	EndCondition   EndConditionType `json:"endCondition"`
	EndAfterCount  *int             `json:"endAfterCount,omitempty"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
	Exceptions     []string         `json:"exceptions,omitempty"`

	TemplateName                   string `json:"templateName"`
	TemplateDescription            string `json:"templateDescription,omitempty"`
	TemplateLocation               string `json:"templateLocation,omitempty"`
	TemplateSongsToLearn           int    `json:"templateSongsToLearn,omitempty"`
	TemplateSelectionDeadlineHours *int   `json:"templateSelectionDeadlineHours,omitempty"`
}

type SeriesControllerInterface interface {
	GetSeries(ctx context.Context, id uuid.UUID) (*RehearsalSeries, error)
	CreateSeries(ctx context.Context, request *CreateSeriesRequest) (*RehearsalSeries, error)
	GenerateMoreRehearsals(ctx context.Context, seriesID uuid.UUID, monthsAhead int) ([]*Rehearsal, error)
	ExpandActiveSeries(ctx context.Context) error
	DeleteSeries(ctx context.Context, id uuid.UUID) error
}

type SeriesController struct {
	seriesRepo         repositories.SeriesRepository
	rehearsalRepo      repositories.RehearsalRepository
	bandRepo           repositories.BandRepository
	recurrenceService  *services.RecurrenceService
	transactionService *services.TransactionService
	eventBus           *events.EventBus
	db                 database.DB
	Config             config.Config
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) SeriesControllerInterface {
	return &SeriesController{
		seriesRepo:         repos.Series,
		rehearsalRepo:      repos.Rehearsal,
		bandRepo:           repos.Band,
		recurrenceService:  services.Recurrence,
		transactionService: services.Transaction,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

func (c *SeriesController) GetSeries(
	ctx context.Context,
	id uuid.UUID,
) (*RehearsalSeries, error) {
	log := logger.NewWithContext(ctx, "seriesController").Function("GetSeries")

	series, err := c.seriesRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, log.ErrorWithType(ErrNotFound, "series not found", "seriesID", id)
	}
	return series, nil
}

// CreateSeries validates the recurrence rule, persists the series and runs
// the initial expansion out to the configured horizon, all in one
// transaction. A rule that fails validation leaves nothing behind.
func (c *SeriesController) CreateSeries(
	ctx context.Context,
	request *CreateSeriesRequest,
) (*RehearsalSeries, error) {
	log := logger.NewWithContext(ctx, "seriesController").Function("CreateSeries")

	if request.BandID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bandId is required")
	}
	if request.TemplateName == "" {
		return nil, log.ErrorWithType(ErrValidation, "templateName is required")
	}

	band, err := c.bandRepo.GetByID(ctx, c.db.SQL, request.BandID)
	if err != nil {
		return nil, err
	}
	if band == nil {
		return nil, log.ErrorWithType(ErrNotFound, "band not found", "bandID", request.BandID)
	}

	series := &RehearsalSeries{
		BandID:         request.BandID,
		RecurrenceType: request.RecurrenceType,
		Interval:       request.Interval,
		DaysOfWeek:     request.DaysOfWeek,
		StartDate:      request.StartDate.UTC(),
		EndCondition:   request.EndCondition,
		EndAfterCount:  request.EndAfterCount,
		EndDate:        request.EndDate,
		Exceptions:     request.Exceptions,
		IsActive:       true,

		TemplateName:                   request.TemplateName,
		TemplateDescription:            request.TemplateDescription,
		TemplateLocation:               request.TemplateLocation,
		TemplateSongsToLearn:           request.TemplateSongsToLearn,
		TemplateSelectionDeadlineHours: request.TemplateSelectionDeadlineHours,
	}
	if series.Interval < 1 {
		series.Interval = 1
	}
	if series.EndCondition == "" {
		series.EndCondition = EndConditionNever
	}

	if err := c.recurrenceService.Validate(series); err != nil {
		return nil, err
	}

	horizon := c.horizonFrom(time.Now().UTC(), c.Config.SeriesHorizonMonths)

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.seriesRepo.Create(ctx, tx, series); err != nil {
			return err
		}

		_, err := c.expandInTx(ctx, tx, series, horizon)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.publishSeriesEvent(ctx, series)

	return c.seriesRepo.GetByID(ctx, c.db.SQL, series.ID)
}

// GenerateMoreRehearsals ages a series forward by monthsAhead months from
// now. Dates already generated are skipped, so repeating the call with the
// same horizon adds nothing.
func (c *SeriesController) GenerateMoreRehearsals(
	ctx context.Context,
	seriesID uuid.UUID,
	monthsAhead int,
) ([]*Rehearsal, error) {
	log := logger.NewWithContext(ctx, "seriesController").Function("GenerateMoreRehearsals")

	if monthsAhead < 1 {
		return nil, log.ErrorWithType(ErrValidation, "monthsAhead must be at least 1",
			"monthsAhead", monthsAhead)
	}

	series, err := c.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	horizon := c.horizonFrom(time.Now().UTC(), monthsAhead)

	var generated []*Rehearsal
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		generated, err = c.expandInTx(ctx, tx, series, horizon)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(generated) > 0 {
		c.publishSeriesEvent(ctx, series)
	}

	return generated, nil
}

// ExpandActiveSeries runs the standard-horizon expansion over every active
// series. The nightly job calls this so calendars keep a rolling window of
// upcoming rehearsals without anyone clicking "generate more".
func (c *SeriesController) ExpandActiveSeries(ctx context.Context) error {
	log := logger.NewWithContext(ctx, "seriesController").Function("ExpandActiveSeries")

	active, err := c.seriesRepo.GetActive(ctx, c.db.SQL)
	if err != nil {
		return err
	}

	horizon := c.horizonFrom(time.Now().UTC(), c.Config.SeriesHorizonMonths)

	var failed int
	for _, series := range active {
		err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			_, err := c.expandInTx(ctx, tx, series, horizon)
			return err
		})
		if err != nil {
			failed++
			log.Warn("series expansion failed", "seriesID", series.ID, "error", err)
		}
	}

	if failed > 0 {
		return log.Error("some series failed to expand", "failed", failed, "total", len(active))
	}

	log.Info("expanded active series", "count", len(active))
	return nil
}

// DeleteSeries removes the series and every rehearsal it generated.
func (c *SeriesController) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	if _, err := c.GetSeries(ctx, id); err != nil {
		return err
	}
	return c.seriesRepo.Delete(ctx, c.db.SQL, id)
}

// expandInTx is the shared expansion step: read the already generated dates,
// expand against them, persist the new rows and bump the lifetime count. An
// exhausted series is deactivated so future passes skip it.
func (c *SeriesController) expandInTx(
	ctx context.Context,
	tx *gorm.DB,
	series *RehearsalSeries,
	horizon time.Time,
) ([]*Rehearsal, error) {
	existing, err := c.rehearsalRepo.ExistingSeriesDates(ctx, tx, series.ID)
	if err != nil {
		return nil, err
	}

	result, err := c.recurrenceService.Expand(series, existing, horizon)
	if err != nil {
		return nil, err
	}

	if len(result.Rehearsals) > 0 {
		if err := c.rehearsalRepo.CreateBatch(ctx, tx, result.Rehearsals); err != nil {
			return nil, err
		}
		if err := c.seriesRepo.IncrementGeneratedCount(ctx, tx, series.ID, len(result.Rehearsals)); err != nil {
			return nil, err
		}
		series.GeneratedCount += len(result.Rehearsals)
	}

	if result.Exhausted && series.IsActive {
		if err := c.seriesRepo.MarkExhausted(ctx, tx, series.ID); err != nil {
			return nil, err
		}
		series.IsActive = false
	}

	return result.Rehearsals, nil
}

func (c *SeriesController) horizonFrom(now time.Time, months int) time.Time {
	if months < 1 {
		months = 1
	}
	return now.AddDate(0, months, 0)
}

func (c *SeriesController) publishSeriesEvent(ctx context.Context, series *RehearsalSeries) {
	log := logger.NewWithContext(ctx, "seriesController").Function("publishSeriesEvent")

	band := series.BandID
	err := c.eventBus.Publish(events.SCHEDULE_CHANNEL, events.Event{
		Type:   events.SERIES_EXPANDED,
		BandID: &band,
		Data: map[string]any{
			"seriesId": series.ID.String(),
		},
	})
	if err != nil {
		log.Warn("failed to publish series event", "seriesID", series.ID, "error", err)
	}
}
