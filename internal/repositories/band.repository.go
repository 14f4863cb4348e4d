package repositories

import (
	"context"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BandRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Band, error)
	Create(ctx context.Context, tx *gorm.DB, band *Band) error
}

type bandRepository struct{}

func NewBandRepository() BandRepository {
	return &bandRepository{}
}

func (r *bandRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Band, error) {
	log := logger.NewWithContext(ctx, "bandRepository").Function("GetByID")

	var band Band
	err := tx.WithContext(ctx).First(&band, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get band", err, "id", id)
	}

	return &band, nil
}

func (r *bandRepository) Create(ctx context.Context, tx *gorm.DB, band *Band) error {
	log := logger.NewWithContext(ctx, "bandRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(band).Error; err != nil {
		return log.Err("failed to create band", err, "name", band.Name)
	}

	return nil
}
