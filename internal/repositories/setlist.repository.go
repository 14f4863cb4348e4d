package repositories

import (
	"context"
	"time"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SetlistRepository interface {
	GetByRehearsal(ctx context.Context, tx *gorm.DB, rehearsalID uuid.UUID) ([]*SetlistItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*SetlistItem, error)
	Create(ctx context.Context, tx *gorm.DB, item *SetlistItem) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ClearForRehearsal(ctx context.Context, tx *gorm.DB, rehearsalID uuid.UUID) error
	InsertBatch(ctx context.Context, tx *gorm.DB, items []*SetlistItem) error
	UpdatePosition(ctx context.Context, tx *gorm.DB, id uuid.UUID, position int) error
}

type setlistRepository struct{}

func NewSetlistRepository() SetlistRepository {
	return &setlistRepository{}
}

func (r *setlistRepository) GetByRehearsal(
	ctx context.Context,
	tx *gorm.DB,
	rehearsalID uuid.UUID,
) ([]*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("GetByRehearsal")

	var items []*SetlistItem
	err := tx.WithContext(ctx).
		Preload("Song").
		Where("rehearsal_id = ?", rehearsalID).
		Order("position ASC").
		Find(&items).Error
	if err != nil {
		return nil, log.Err("failed to get setlist", err, "rehearsalID", rehearsalID)
	}

	return items, nil
}

func (r *setlistRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("GetByID")

	var item SetlistItem
	err := tx.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get setlist item", err, "id", id)
	}

	return &item, nil
}

func (r *setlistRepository) Create(ctx context.Context, tx *gorm.DB, item *SetlistItem) error {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		return log.Err("failed to create setlist item", err,
			"rehearsalID", item.RehearsalID, "songID", item.SongID)
	}

	return nil
}

func (r *setlistRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("Delete")

	result := tx.WithContext(ctx).Where("id = ?", id).Delete(&SetlistItem{})
	if result.Error != nil {
		return log.Err("failed to delete setlist item", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ClearForRehearsal hard-deletes every item for the rehearsal. Callers run
// this inside the same transaction as the refill so readers never observe a
// cleared-but-unfilled setlist.
func (r *setlistRepository) ClearForRehearsal(
	ctx context.Context,
	tx *gorm.DB,
	rehearsalID uuid.UUID,
) error {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("ClearForRehearsal")

	err := tx.WithContext(ctx).
		Unscoped().
		Where("rehearsal_id = ?", rehearsalID).
		Delete(&SetlistItem{}).Error
	if err != nil {
		return log.Err("failed to clear setlist", err, "rehearsalID", rehearsalID)
	}

	return nil
}

func (r *setlistRepository) InsertBatch(
	ctx context.Context,
	tx *gorm.DB,
	items []*SetlistItem,
) error {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("InsertBatch")

	if len(items) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Create(items).Error; err != nil {
		return log.Err("failed to insert setlist items", err, "count", len(items))
	}

	return nil
}

func (r *setlistRepository) UpdatePosition(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	position int,
) error {
	log := logger.NewWithContext(ctx, "setlistRepository").Function("UpdatePosition")

	result := tx.WithContext(ctx).
		Model(&SetlistItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"position": position, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return log.Err("failed to update setlist position", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
