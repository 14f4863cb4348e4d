package repositories

import (
	"context"
	"strings"
	"time"

	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RateWindowRepository interface {
	TryConsume(ctx context.Context, tx *gorm.DB, userID, bandID uuid.UUID, now time.Time) (VoteAllowance, error)
	Get(ctx context.Context, tx *gorm.DB, userID, bandID uuid.UUID) (*RateWindow, error)
}

type rateWindowRepository struct{}

func NewRateWindowRepository() RateWindowRepository {
	return &rateWindowRepository{}
}

// TryConsume is the atomic check-then-increment for the fixed vote window.
// Every path is a single conditional statement against the unique
// (user_id, band_id) row, so two concurrent requests can never jointly
// exceed the cap:
//
//  1. increment the live window while under the cap
//  2. otherwise roll an expired window forward to a fresh one counting this vote
//  3. otherwise insert the first-ever window for this (user, band)
//
// A unique violation on step 3 means a concurrent request created the row
// first; the consume is retried once before surfacing the conflict.
func (r *rateWindowRepository) TryConsume(
	ctx context.Context,
	tx *gorm.DB,
	userID, bandID uuid.UUID,
	now time.Time,
) (VoteAllowance, error) {
	allowance, err := r.tryConsumeOnce(ctx, tx, userID, bandID, now)
	if err != nil && isUniqueViolation(err) {
		return r.tryConsumeOnce(ctx, tx, userID, bandID, now)
	}
	return allowance, err
}

func (r *rateWindowRepository) tryConsumeOnce(
	ctx context.Context,
	tx *gorm.DB,
	userID, bandID uuid.UUID,
	now time.Time,
) (VoteAllowance, error) {
	log := logger.NewWithContext(ctx, "rateWindowRepository").Function("tryConsumeOnce")

	windowFloor := now.Add(-RateWindowLength)

	result := tx.WithContext(ctx).
		Model(&RateWindow{}).
		Where("user_id = ? AND band_id = ? AND window_start > ? AND vote_count < ?",
			userID, bandID, windowFloor, MaxVotesPerWindow).
		Updates(map[string]any{
			"vote_count": gorm.Expr("vote_count + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return VoteAllowance{}, log.Err("failed to increment rate window", result.Error, "userID", userID)
	}

	if result.RowsAffected == 1 {
		return r.allowanceFor(ctx, tx, userID, bandID)
	}

	// No live row under the cap: roll an expired window forward.
	result = tx.WithContext(ctx).
		Model(&RateWindow{}).
		Where("user_id = ? AND band_id = ? AND window_start <= ?", userID, bandID, windowFloor).
		Updates(map[string]any{
			"window_start": now,
			"vote_count":   1,
			"updated_at":   now,
		})
	if result.Error != nil {
		return VoteAllowance{}, log.Err("failed to reset rate window", result.Error, "userID", userID)
	}

	if result.RowsAffected == 1 {
		return r.allowanceFor(ctx, tx, userID, bandID)
	}

	// Either the row does not exist yet, or it is live and at the cap.
	window, err := r.Get(ctx, tx, userID, bandID)
	if err != nil {
		return VoteAllowance{}, err
	}

	if window != nil {
		return VoteAllowance{
			Allowed:        false,
			VotesRemaining: 0,
			ResetAt:        window.ResetAt(),
		}, nil
	}

	window = &RateWindow{
		UserID:      userID,
		BandID:      bandID,
		WindowStart: now,
		VoteCount:   1,
	}
	if err := tx.WithContext(ctx).Create(window).Error; err != nil {
		if isUniqueViolation(err) {
			return VoteAllowance{}, err
		}
		return VoteAllowance{}, log.Err("failed to create rate window", err, "userID", userID)
	}

	return VoteAllowance{
		Allowed:        true,
		VotesRemaining: MaxVotesPerWindow - 1,
		ResetAt:        window.ResetAt(),
	}, nil
}

func (r *rateWindowRepository) allowanceFor(
	ctx context.Context,
	tx *gorm.DB,
	userID, bandID uuid.UUID,
) (VoteAllowance, error) {
	window, err := r.Get(ctx, tx, userID, bandID)
	if err != nil {
		return VoteAllowance{}, err
	}
	if window == nil {
		return VoteAllowance{}, gorm.ErrRecordNotFound
	}

	return VoteAllowance{
		Allowed:        true,
		VotesRemaining: MaxVotesPerWindow - window.VoteCount,
		ResetAt:        window.ResetAt(),
	}, nil
}

func (r *rateWindowRepository) Get(
	ctx context.Context,
	tx *gorm.DB,
	userID, bandID uuid.UUID,
) (*RateWindow, error) {
	log := logger.NewWithContext(ctx, "rateWindowRepository").Function("Get")

	var window RateWindow
	err := tx.WithContext(ctx).
		Where("user_id = ? AND band_id = ?", userID, bandID).
		First(&window).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get rate window", err, "userID", userID, "bandID", bandID)
	}

	return &window, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return err == gorm.ErrDuplicatedKey ||
		strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "SQLSTATE 23505")
}
