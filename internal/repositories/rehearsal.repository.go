package repositories

import (
	"context"
	"time"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RehearsalRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Rehearsal, error)
	GetByBand(ctx context.Context, tx *gorm.DB, bandID uuid.UUID) ([]*Rehearsal, error)
	Create(ctx context.Context, tx *gorm.DB, rehearsal *Rehearsal) error
	CreateBatch(ctx context.Context, tx *gorm.DB, rehearsals []*Rehearsal) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status RehearsalStatus) error
	ExistingSeriesDates(ctx context.Context, tx *gorm.DB, seriesID uuid.UUID) (map[string]struct{}, error)
}

type rehearsalRepository struct{}

func NewRehearsalRepository() RehearsalRepository {
	return &rehearsalRepository{}
}

func (r *rehearsalRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Rehearsal, error) {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("GetByID")

	var rehearsal Rehearsal
	err := tx.WithContext(ctx).
		Preload("Setlist", func(db *gorm.DB) *gorm.DB {
			return db.Order("setlist_items.position ASC")
		}).
		First(&rehearsal, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get rehearsal", err, "id", id)
	}

	return &rehearsal, nil
}

func (r *rehearsalRepository) GetByBand(
	ctx context.Context,
	tx *gorm.DB,
	bandID uuid.UUID,
) ([]*Rehearsal, error) {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("GetByBand")

	var rehearsals []*Rehearsal
	err := tx.WithContext(ctx).
		Where("band_id = ?", bandID).
		Order("date ASC").
		Find(&rehearsals).Error
	if err != nil {
		return nil, log.Err("failed to get band rehearsals", err, "bandID", bandID)
	}

	return rehearsals, nil
}

func (r *rehearsalRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	rehearsal *Rehearsal,
) error {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(rehearsal).Error; err != nil {
		return log.Err("failed to create rehearsal", err, "bandID", rehearsal.BandID)
	}

	return nil
}

func (r *rehearsalRepository) CreateBatch(
	ctx context.Context,
	tx *gorm.DB,
	rehearsals []*Rehearsal,
) error {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("CreateBatch")

	if len(rehearsals) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).CreateInBatches(rehearsals, 100).Error; err != nil {
		return log.Err("failed to create rehearsals", err, "count", len(rehearsals))
	}

	log.Info("Rehearsals created", "count", len(rehearsals))
	return nil
}

func (r *rehearsalRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status RehearsalStatus,
) error {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&Rehearsal{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return log.Err("failed to update rehearsal status", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ExistingSeriesDates returns the calendar dates already generated for a
// series, keyed by YYYY-MM-DD. The expander checks this set before emitting
// so repeated generation calls stay idempotent; the unique
// (series_id, date) index backs it up under races.
func (r *rehearsalRepository) ExistingSeriesDates(
	ctx context.Context,
	tx *gorm.DB,
	seriesID uuid.UUID,
) (map[string]struct{}, error) {
	log := logger.NewWithContext(ctx, "rehearsalRepository").Function("ExistingSeriesDates")

	var dates []time.Time
	err := tx.WithContext(ctx).
		Model(&Rehearsal{}).
		Where("series_id = ?", seriesID).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, log.Err("failed to get existing series dates", err, "seriesID", seriesID)
	}

	existing := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		existing[d.UTC().Format(ExceptionDateLayout)] = struct{}{}
	}

	return existing, nil
}
