package repositories

import (
	"context"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SongRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Song, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*Song, error)
	GetByBand(ctx context.Context, tx *gorm.DB, bandID uuid.UUID) ([]*Song, error)
	Create(ctx context.Context, tx *gorm.DB, song *Song) error
}

type songRepository struct{}

func NewSongRepository() SongRepository {
	return &songRepository{}
}

func (r *songRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Song, error) {
	log := logger.NewWithContext(ctx, "songRepository").Function("GetByID")

	var song Song
	err := tx.WithContext(ctx).First(&song, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get song", err, "id", id)
	}

	return &song, nil
}

func (r *songRepository) GetByIDs(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
) (map[uuid.UUID]*Song, error) {
	log := logger.NewWithContext(ctx, "songRepository").Function("GetByIDs")

	if len(ids) == 0 {
		return map[uuid.UUID]*Song{}, nil
	}

	var songs []*Song
	err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&songs).Error
	if err != nil {
		return nil, log.Err("failed to get songs", err, "count", len(ids))
	}

	byID := make(map[uuid.UUID]*Song, len(songs))
	for _, song := range songs {
		byID[song.ID] = song
	}

	return byID, nil
}

func (r *songRepository) GetByBand(
	ctx context.Context,
	tx *gorm.DB,
	bandID uuid.UUID,
) ([]*Song, error) {
	log := logger.NewWithContext(ctx, "songRepository").Function("GetByBand")

	var songs []*Song
	err := tx.WithContext(ctx).
		Where("band_id = ?", bandID).
		Order("created_at DESC").
		Find(&songs).Error
	if err != nil {
		return nil, log.Err("failed to get band songs", err, "bandID", bandID)
	}

	return songs, nil
}

func (r *songRepository) Create(ctx context.Context, tx *gorm.DB, song *Song) error {
	log := logger.NewWithContext(ctx, "songRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(song).Error; err != nil {
		return log.Err("failed to create song", err, "bandID", song.BandID, "title", song.Title)
	}

	log.Info("Song created", "id", song.ID, "title", song.Title)
	return nil
}
