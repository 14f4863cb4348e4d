package setlistController

import (
	"context"
	"errors"
	"sort"

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
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrNoSongsAvailable = errors.New("no songs available for selection")
)

type AddSongRequest struct {
	SongID   uuid.UUID `json:"songId"`
	Position int       `json:"position"`
}

// ReorderRequest maps setlist item IDs to their new positions. The mapping
// must cover every item in the rehearsal exactly once with positions 1..N.
type ReorderRequest struct {
	Positions map[uuid.UUID]int `json:"positions"`
}

type SetlistControllerInterface interface {
	GetSetlist(ctx context.Context, rehearsalID uuid.UUID) ([]*SetlistItem, error)
	AutoSelect(ctx context.Context, rehearsalID uuid.UUID) ([]*SetlistItem, error)
	AddSong(ctx context.Context, rehearsalID uuid.UUID, request *AddSongRequest) ([]*SetlistItem, error)
	RemoveSong(ctx context.Context, rehearsalID, itemID uuid.UUID) ([]*SetlistItem, error)
	Reorder(ctx context.Context, rehearsalID uuid.UUID, request *ReorderRequest) ([]*SetlistItem, error)
}

// transactionExecutor and eventPublisher are the narrow views of the
// transaction service and event bus this controller uses.
type transactionExecutor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type eventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type SetlistController struct {
	setlistRepo        repositories.SetlistRepository
	rehearsalRepo      repositories.RehearsalRepository
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
) SetlistControllerInterface {
	return &SetlistController{
		setlistRepo:        repos.Setlist,
		rehearsalRepo:      repos.Rehearsal,
		songRepo:           repos.Song,
		transactionService: services.Transaction,
		leaderboard:        leaderboard,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

func (c *SetlistController) GetSetlist(
	ctx context.Context,
	rehearsalID uuid.UUID,
) ([]*SetlistItem, error) {
	if _, err := c.mustGetRehearsal(ctx, rehearsalID); err != nil {
		return nil, err
	}
	return c.setlistRepo.GetByRehearsal(ctx, c.db.SQL, rehearsalID)
}

// AutoSelect replaces the rehearsal's setlist with the top SongsToLearn songs
// from the band leaderboard. The clear and refill share one transaction, so
// a failure partway leaves the previous setlist intact. Each selected item
// snapshots the song's net score at selection time; later votes never change
// it.
func (c *SetlistController) AutoSelect(
	ctx context.Context,
	rehearsalID uuid.UUID,
) ([]*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistController").Function("AutoSelect")

	rehearsal, err := c.mustGetRehearsal(ctx, rehearsalID)
	if err != nil {
		return nil, err
	}

	ranking, err := c.leaderboard.DefaultRanking(ctx, rehearsal.BandID)
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		return nil, log.ErrorWithType(ErrNoSongsAvailable,
			"band has no songs to select from", "bandID", rehearsal.BandID)
	}

	count := rehearsal.SongsToLearn
	if count > len(ranking) {
		count = len(ranking)
	}

	items := make([]*SetlistItem, 0, count)
	for i := range count {
		entry := ranking[i]
		items = append(items, &SetlistItem{
			RehearsalID:          rehearsalID,
			SongID:               entry.Song.ID,
			Position:             i + 1,
			SelectionReason:      SelectionReasonAuto,
			VoteCountAtSelection: entry.NetScore,
		})
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.setlistRepo.ClearForRehearsal(ctx, tx, rehearsalID); err != nil {
			return err
		}
		if err := c.setlistRepo.InsertBatch(ctx, tx, items); err != nil {
			return err
		}
		return c.rehearsalRepo.UpdateStatus(ctx, tx, rehearsalID, RehearsalStatusSongsSelected)
	})
	if err != nil {
		return nil, err
	}

	c.publishSetlistEvent(ctx, rehearsal, events.SETLIST_REPLACED)

	return c.setlistRepo.GetByRehearsal(ctx, c.db.SQL, rehearsalID)
}

// AddSong inserts a song at the requested position, shifting later items
// down. Position 0 or anything past the end appends.
func (c *SetlistController) AddSong(
	ctx context.Context,
	rehearsalID uuid.UUID,
	request *AddSongRequest,
) ([]*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistController").Function("AddSong")

	rehearsal, err := c.mustGetRehearsal(ctx, rehearsalID)
	if err != nil {
		return nil, err
	}

	if request.SongID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "songId is required")
	}

	song, err := c.songRepo.GetByID(ctx, c.db.SQL, request.SongID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, log.ErrorWithType(ErrNotFound, "song not found", "songID", request.SongID)
	}
	if song.BandID != rehearsal.BandID {
		return nil, log.ErrorWithType(ErrValidation,
			"song belongs to a different band", "songID", request.SongID)
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.setlistRepo.GetByRehearsal(ctx, tx, rehearsalID)
		if err != nil {
			return err
		}

		for _, item := range existing {
			if item.SongID == request.SongID {
				return log.ErrorWithType(ErrValidation,
					"song already in setlist", "songID", request.SongID)
			}
		}

		position := request.Position
		if position < 1 || position > len(existing)+1 {
			position = len(existing) + 1
		}

		// Shift from the back so the dense sequence never collides.
		for i := len(existing) - 1; i >= 0; i-- {
			item := existing[i]
			if item.Position < position {
				break
			}
			if err := c.setlistRepo.UpdatePosition(ctx, tx, item.ID, item.Position+1); err != nil {
				return err
			}
		}

		return c.setlistRepo.Create(ctx, tx, &SetlistItem{
			RehearsalID:     rehearsalID,
			SongID:          request.SongID,
			Position:        position,
			SelectionReason: SelectionReasonManual,
		})
	})
	if err != nil {
		return nil, err
	}

	c.publishSetlistEvent(ctx, rehearsal, events.SETLIST_CHANGED)

	return c.setlistRepo.GetByRehearsal(ctx, c.db.SQL, rehearsalID)
}

// RemoveSong deletes one item and closes the gap so positions stay 1..N.
func (c *SetlistController) RemoveSong(
	ctx context.Context,
	rehearsalID, itemID uuid.UUID,
) ([]*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistController").Function("RemoveSong")

	rehearsal, err := c.mustGetRehearsal(ctx, rehearsalID)
	if err != nil {
		return nil, err
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		item, err := c.setlistRepo.GetByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.RehearsalID != rehearsalID {
			return log.ErrorWithType(ErrNotFound, "setlist item not found", "itemID", itemID)
		}

		if err := c.setlistRepo.Delete(ctx, tx, itemID); err != nil {
			return err
		}

		remaining, err := c.setlistRepo.GetByRehearsal(ctx, tx, rehearsalID)
		if err != nil {
			return err
		}

		for i, it := range remaining {
			want := i + 1
			if it.Position != want {
				if err := c.setlistRepo.UpdatePosition(ctx, tx, it.ID, want); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publishSetlistEvent(ctx, rehearsal, events.SETLIST_CHANGED)

	return c.setlistRepo.GetByRehearsal(ctx, c.db.SQL, rehearsalID)
}

// Reorder applies a complete permutation of the rehearsal's items. Requests
// that omit items, reference foreign items, or produce duplicate or sparse
// positions are rejected whole; partial reorders are not supported.
func (c *SetlistController) Reorder(
	ctx context.Context,
	rehearsalID uuid.UUID,
	request *ReorderRequest,
) ([]*SetlistItem, error) {
	log := logger.NewWithContext(ctx, "setlistController").Function("Reorder")

	rehearsal, err := c.mustGetRehearsal(ctx, rehearsalID)
	if err != nil {
		return nil, err
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.setlistRepo.GetByRehearsal(ctx, tx, rehearsalID)
		if err != nil {
			return err
		}

		if err := validateReorder(existing, request.Positions); err != nil {
			return log.ErrorWithType(ErrValidation, err.Error(), "rehearsalID", rehearsalID)
		}

		ordered := make([]*SetlistItem, len(existing))
		for _, item := range existing {
			ordered[request.Positions[item.ID]-1] = item
		}

		for i, item := range ordered {
			want := i + 1
			if item.Position != want {
				if err := c.setlistRepo.UpdatePosition(ctx, tx, item.ID, want); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publishSetlistEvent(ctx, rehearsal, events.SETLIST_CHANGED)

	return c.setlistRepo.GetByRehearsal(ctx, c.db.SQL, rehearsalID)
}

// validateReorder checks the mapping is a dense 1..N permutation over exactly
// the rehearsal's items.
func validateReorder(existing []*SetlistItem, positions map[uuid.UUID]int) error {
	if len(positions) != len(existing) {
		return errors.New("reorder must include every setlist item")
	}

	seen := make([]int, 0, len(positions))
	for _, item := range existing {
		position, ok := positions[item.ID]
		if !ok {
			return errors.New("reorder must include every setlist item")
		}
		if position < 1 || position > len(existing) {
			return errors.New("positions must form a dense 1..N sequence")
		}
		seen = append(seen, position)
	}

	sort.Ints(seen)
	for i, position := range seen {
		if position != i+1 {
			return errors.New("positions must form a dense 1..N sequence")
		}
	}

	return nil
}

func (c *SetlistController) mustGetRehearsal(
	ctx context.Context,
	rehearsalID uuid.UUID,
) (*Rehearsal, error) {
	log := logger.NewWithContext(ctx, "setlistController").Function("mustGetRehearsal")

	rehearsal, err := c.rehearsalRepo.GetByID(ctx, c.db.SQL, rehearsalID)
	if err != nil {
		return nil, err
	}
	if rehearsal == nil {
		return nil, log.ErrorWithType(ErrNotFound, "rehearsal not found", "rehearsalID", rehearsalID)
	}
	return rehearsal, nil
}

func (c *SetlistController) publishSetlistEvent(
	ctx context.Context,
	rehearsal *Rehearsal,
	eventType events.MessageType,
) {
	log := logger.NewWithContext(ctx, "setlistController").Function("publishSetlistEvent")

	band := rehearsal.BandID
	err := c.eventBus.Publish(events.SCHEDULE_CHANNEL, events.Event{
		Type:   eventType,
		BandID: &band,
		Data: map[string]any{
			"rehearsalId": rehearsal.ID.String(),
		},
	})
	if err != nil {
		log.Warn("failed to publish setlist event", "rehearsalID", rehearsal.ID, "error", err)
	}
}
