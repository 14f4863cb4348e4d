package voteController

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

	leaderboardController "encore/internal/controllers/leaderboard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// CastVoteRequest carries one ballot action. A nil Type means "remove my
// vote".
type CastVoteRequest struct {
	SongID uuid.UUID `json:"songId"`
	Type   *VoteType `json:"type,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeAccepted    OutcomeStatus = "accepted"
	OutcomeRemoved     OutcomeStatus = "removed"
	OutcomeRateLimited OutcomeStatus = "rate_limited"
)

// VoteOutcome is the normal-result surface for a ballot action. A
// rate-limited vote is one of its variants, not an error: the caller
// branches on Status and can show remaining quota and reset time.
type VoteOutcome struct {
	Status    OutcomeStatus  `json:"status"`
	Allowance *VoteAllowance `json:"allowance,omitempty"`
	Aggregate *SongAggregate `json:"aggregate,omitempty"`
}

type VoteControllerInterface interface {
	CastVote(ctx context.Context, user *User, request *CastVoteRequest) (*VoteOutcome, error)
	RemoveVote(ctx context.Context, user *User, songID uuid.UUID) (*VoteOutcome, error)
	GetAllowance(ctx context.Context, user *User, bandID uuid.UUID) (*VoteAllowance, error)
}

// transactionExecutor and eventPublisher are the narrow views of the
// transaction service and event bus this controller uses.
type transactionExecutor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type eventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type VoteController struct {
	voteRepo           repositories.VoteRepository
	rateWindowRepo     repositories.RateWindowRepository
	songRepo           repositories.SongRepository
	transactionService transactionExecutor
	leaderboard        leaderboardController.LeaderboardControllerInterface
	eventBus           eventPublisher
	db                 database.DB
	Config             config.Config
}

func New(
	repos repositories.Repository,
	services services.Service,
	leaderboard leaderboardController.LeaderboardControllerInterface,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) VoteControllerInterface {
	return &VoteController{
		voteRepo:           repos.Vote,
		rateWindowRepo:     repos.RateWindow,
		songRepo:           repos.Song,
		transactionService: services.Transaction,
		leaderboard:        leaderboard,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// CastVote applies one ballot action for the caller. Upserts replace the
// prior ballot in place; a nil type removes it. The rate-limit consume and
// the vote write share a transaction so a rejected consume never leaves a
// ballot behind, and an aborted write never burns quota.
func (c *VoteController) CastVote(
	ctx context.Context,
	user *User,
	request *CastVoteRequest,
) (*VoteOutcome, error) {
	log := logger.NewWithContext(ctx, "voteController").Function("CastVote")

	if user == nil {
		return nil, log.ErrorWithType(ErrValidation, "authenticated user is required")
	}
	if request.SongID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "songId is required")
	}

	if request.Type == nil {
		return c.RemoveVote(ctx, user, request.SongID)
	}

	voteType := *request.Type
	if voteType != VoteTypeUp && voteType != VoteTypeDown {
		return nil, log.ErrorWithType(ErrValidation, "invalid vote type", "type", voteType)
	}

	song, err := c.songRepo.GetByID(ctx, c.db.SQL, request.SongID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, log.ErrorWithType(ErrNotFound, "song not found", "songID", request.SongID)
	}

	outcome := &VoteOutcome{}
	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		allowance, err := c.rateWindowRepo.TryConsume(ctx, tx, user.ID, song.BandID, nowUTC())
		if err != nil {
			return err
		}

		outcome.Allowance = &allowance
		if !allowance.Allowed {
			outcome.Status = OutcomeRateLimited
			return nil
		}

		vote := &Vote{
			VoterID: user.ID,
			SongID:  song.ID,
			BandID:  song.BandID,
			Type:    voteType,
		}
		if err := c.voteRepo.Upsert(ctx, tx, vote); err != nil {
			return err
		}

		outcome.Status = OutcomeAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Status == OutcomeRateLimited {
		log.Info("vote rate limited",
			"userID", user.ID, "bandID", song.BandID, "resetAt", outcome.Allowance.ResetAt)
		return outcome, nil
	}

	aggregate, err := c.voteRepo.AggregateForSong(ctx, c.db.SQL, song.ID, nil)
	if err != nil {
		return nil, err
	}
	outcome.Aggregate = &aggregate

	c.afterVoteWrite(ctx, song.BandID, song.ID, events.VOTE_CAST)

	return outcome, nil
}

// RemoveVote deletes the caller's ballot for a song. Removing a ballot that
// does not exist succeeds and changes nothing; removal never consumes rate
// budget.
func (c *VoteController) RemoveVote(
	ctx context.Context,
	user *User,
	songID uuid.UUID,
) (*VoteOutcome, error) {
	log := logger.NewWithContext(ctx, "voteController").Function("RemoveVote")

	if user == nil {
		return nil, log.ErrorWithType(ErrValidation, "authenticated user is required")
	}
	if songID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "songId is required")
	}

	song, err := c.songRepo.GetByID(ctx, c.db.SQL, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, log.ErrorWithType(ErrNotFound, "song not found", "songID", songID)
	}

	removed, err := c.voteRepo.Delete(ctx, c.db.SQL, user.ID, songID)
	if err != nil {
		return nil, err
	}

	aggregate, err := c.voteRepo.AggregateForSong(ctx, c.db.SQL, songID, nil)
	if err != nil {
		return nil, err
	}

	outcome := &VoteOutcome{
		Status:    OutcomeRemoved,
		Aggregate: &aggregate,
	}

	if removed {
		c.afterVoteWrite(ctx, song.BandID, songID, events.VOTE_REMOVED)
	}

	return outcome, nil
}

// GetAllowance reports the caller's remaining quota without consuming any.
func (c *VoteController) GetAllowance(
	ctx context.Context,
	user *User,
	bandID uuid.UUID,
) (*VoteAllowance, error) {
	log := logger.NewWithContext(ctx, "voteController").Function("GetAllowance")

	if user == nil {
		return nil, log.ErrorWithType(ErrValidation, "authenticated user is required")
	}

	window, err := c.rateWindowRepo.Get(ctx, c.db.SQL, user.ID, bandID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	if window == nil || window.Expired(now) {
		return &VoteAllowance{
			Allowed:        true,
			VotesRemaining: MaxVotesPerWindow,
			ResetAt:        now.Add(RateWindowLength),
		}, nil
	}

	remaining := MaxVotesPerWindow - window.VoteCount
	if remaining < 0 {
		remaining = 0
	}

	return &VoteAllowance{
		Allowed:        remaining > 0,
		VotesRemaining: remaining,
		ResetAt:        window.ResetAt(),
	}, nil
}

func (c *VoteController) afterVoteWrite(
	ctx context.Context,
	bandID, songID uuid.UUID,
	eventType events.MessageType,
) {
	log := logger.NewWithContext(ctx, "voteController").Function("afterVoteWrite")

	c.leaderboard.InvalidateBand(ctx, bandID)

	band := bandID
	err := c.eventBus.Publish(events.LEADERBOARD_CHANNEL, events.Event{
		Type:   eventType,
		BandID: &band,
		Data: map[string]any{
			"songId": songID.String(),
		},
	})
	if err != nil {
		log.Warn("failed to publish vote event", "bandID", bandID, "error", err)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
