package repositories

import (
	"context"
	"time"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SeriesRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*RehearsalSeries, error)
	GetActive(ctx context.Context, tx *gorm.DB) ([]*RehearsalSeries, error)
	Create(ctx context.Context, tx *gorm.DB, series *RehearsalSeries) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IncrementGeneratedCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, by int) error
	MarkExhausted(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type seriesRepository struct{}

func NewSeriesRepository() SeriesRepository {
	return &seriesRepository{}
}

func (r *seriesRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*RehearsalSeries, error) {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("GetByID")

	var series RehearsalSeries
	err := tx.WithContext(ctx).First(&series, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get series", err, "id", id)
	}

	return &series, nil
}

func (r *seriesRepository) GetActive(
	ctx context.Context,
	tx *gorm.DB,
) ([]*RehearsalSeries, error) {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("GetActive")

	var series []*RehearsalSeries
	err := tx.WithContext(ctx).
		Where("is_active = true").
		Find(&series).Error
	if err != nil {
		return nil, log.Err("failed to get active series", err)
	}

	return series, nil
}

func (r *seriesRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	series *RehearsalSeries,
) error {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(series).Error; err != nil {
		return log.Err("failed to create series", err, "bandID", series.BandID)
	}

	log.Info("Series created", "id", series.ID, "type", series.RecurrenceType)
	return nil
}

// Delete removes the series and, through the FK cascade, every rehearsal it
// generated.
func (r *seriesRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("Delete")

	result := tx.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&RehearsalSeries{})
	if result.Error != nil {
		return log.Err("failed to delete series", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// IncrementGeneratedCount advances the lifetime tally that after_count end
// conditions are evaluated against.
func (r *seriesRepository) IncrementGeneratedCount(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	by int,
) error {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("IncrementGeneratedCount")

	if by <= 0 {
		return nil
	}

	err := tx.WithContext(ctx).
		Model(&RehearsalSeries{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"generated_count": gorm.Expr("generated_count + ?", by),
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return log.Err("failed to increment generated count", err, "id", id, "by", by)
	}

	return nil
}

func (r *seriesRepository) MarkExhausted(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "seriesRepository").Function("MarkExhausted")

	err := tx.WithContext(ctx).
		Model(&RehearsalSeries{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return log.Err("failed to mark series exhausted", err, "id", id)
	}

	log.Info("Series exhausted", "id", id)
	return nil
}
