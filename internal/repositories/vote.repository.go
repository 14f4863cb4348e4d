package repositories

import (
	"context"
	"time"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteAggregateRow struct {
	SongID    uuid.UUID `gorm:"column:song_id"`
	Upvotes   int       `gorm:"column:upvotes"`
	Downvotes int       `gorm:"column:downvotes"`
}

type VoteRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, vote *Vote) error
	Delete(ctx context.Context, tx *gorm.DB, voterID, songID uuid.UUID) (bool, error)
	GetByVoterAndSong(ctx context.Context, tx *gorm.DB, voterID, songID uuid.UUID) (*Vote, error)
	GetVoterVotes(ctx context.Context, tx *gorm.DB, voterID, bandID uuid.UUID) ([]*Vote, error)
	AggregateForSong(ctx context.Context, tx *gorm.DB, songID uuid.UUID, since *time.Time) (SongAggregate, error)
	AggregatesForBand(ctx context.Context, tx *gorm.DB, bandID uuid.UUID, since *time.Time) ([]SongAggregate, error)
}

type voteRepository struct{}

func NewVoteRepository() VoteRepository {
	return &voteRepository{}
}

// Upsert writes the voter's single ballot for a song. The conflict target is
// the unique (voter_id, song_id) index, so two concurrent casts serialize at
// the storage layer and the last write wins.
func (r *voteRepository) Upsert(ctx context.Context, tx *gorm.DB, vote *Vote) error {
	log := logger.NewWithContext(ctx, "voteRepository").Function("Upsert")

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "voter_id"}, {Name: "song_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"type":       vote.Type,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(vote).Error
	if err != nil {
		return log.Err("failed to upsert vote", err, "voterID", vote.VoterID, "songID", vote.SongID)
	}

	return nil
}

// Delete removes the voter's ballot if present. Returns false when no row
// existed, which callers treat as success for idempotence.
func (r *voteRepository) Delete(
	ctx context.Context,
	tx *gorm.DB,
	voterID, songID uuid.UUID,
) (bool, error) {
	log := logger.NewWithContext(ctx, "voteRepository").Function("Delete")

	result := tx.WithContext(ctx).
		Where("voter_id = ? AND song_id = ?", voterID, songID).
		Delete(&Vote{})
	if result.Error != nil {
		return false, log.Err("failed to delete vote", result.Error, "voterID", voterID, "songID", songID)
	}

	return result.RowsAffected > 0, nil
}

func (r *voteRepository) GetByVoterAndSong(
	ctx context.Context,
	tx *gorm.DB,
	voterID, songID uuid.UUID,
) (*Vote, error) {
	log := logger.NewWithContext(ctx, "voteRepository").Function("GetByVoterAndSong")

	var vote Vote
	err := tx.WithContext(ctx).
		Where("voter_id = ? AND song_id = ?", voterID, songID).
		First(&vote).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get vote", err, "voterID", voterID, "songID", songID)
	}

	return &vote, nil
}

func (r *voteRepository) GetVoterVotes(
	ctx context.Context,
	tx *gorm.DB,
	voterID, bandID uuid.UUID,
) ([]*Vote, error) {
	log := logger.NewWithContext(ctx, "voteRepository").Function("GetVoterVotes")

	var votes []*Vote
	err := tx.WithContext(ctx).
		Where("voter_id = ? AND band_id = ?", voterID, bandID).
		Find(&votes).Error
	if err != nil {
		return nil, log.Err("failed to get voter votes", err, "voterID", voterID, "bandID", bandID)
	}

	return votes, nil
}

// AggregateForSong recomputes a single song's aggregate from the vote set.
func (r *voteRepository) AggregateForSong(
	ctx context.Context,
	tx *gorm.DB,
	songID uuid.UUID,
	since *time.Time,
) (SongAggregate, error) {
	log := logger.NewWithContext(ctx, "voteRepository").Function("AggregateForSong")

	var row VoteAggregateRow
	query := tx.WithContext(ctx).
		Model(&Vote{}).
		Select(
			"song_id, "+
				"COUNT(*) FILTER (WHERE type = ?) as upvotes, "+
				"COUNT(*) FILTER (WHERE type = ?) as downvotes",
			VoteTypeUp, VoteTypeDown,
		).
		Where("song_id = ?", songID).
		Group("song_id")

	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	if err := query.Scan(&row).Error; err != nil {
		return SongAggregate{}, log.Err("failed to aggregate song votes", err, "songID", songID)
	}

	if row.SongID == uuid.Nil {
		return NewSongAggregate(songID, 0, 0), nil
	}

	return NewSongAggregate(row.SongID, row.Upvotes, row.Downvotes), nil
}

// AggregatesForBand recomputes aggregates for every voted-on song in a band,
// optionally restricted to votes cast at or after `since`.
func (r *voteRepository) AggregatesForBand(
	ctx context.Context,
	tx *gorm.DB,
	bandID uuid.UUID,
	since *time.Time,
) ([]SongAggregate, error) {
	log := logger.NewWithContext(ctx, "voteRepository").Function("AggregatesForBand")

	var rows []VoteAggregateRow
	query := tx.WithContext(ctx).
		Model(&Vote{}).
		Select(
			"song_id, "+
				"COUNT(*) FILTER (WHERE type = ?) as upvotes, "+
				"COUNT(*) FILTER (WHERE type = ?) as downvotes",
			VoteTypeUp, VoteTypeDown,
		).
		Where("band_id = ?", bandID).
		Group("song_id")

	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to aggregate band votes", err, "bandID", bandID)
	}

	aggregates := make([]SongAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, NewSongAggregate(row.SongID, row.Upvotes, row.Downvotes))
	}

	return aggregates, nil
}
