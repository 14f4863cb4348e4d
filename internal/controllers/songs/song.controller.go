package songController

import (
	"context"
	"errors"

	"encore/config"
	"encore/internal/database"
	"encore/internal/logger"
	. "encore/internal/models"
	"encore/internal/repositories"
	"encore/internal/services"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// SuggestSongRequest adds a track to a band's voting pool. CatalogRef is the
// external catalog's track ID; metadata is resolved from the catalog at
// suggestion time. Title and Artist act as a fallback when the catalog has
// no entry for the reference (or none was given).
type SuggestSongRequest struct {
	BandID     uuid.UUID `json:"bandId"`
	CatalogRef string    `json:"catalogRef,omitempty"`
	Title      string    `json:"title,omitempty"`
	Artist     string    `json:"artist,omitempty"`
}

type SongControllerInterface interface {
	GetSong(ctx context.Context, id uuid.UUID) (*Song, error)
	ListSongs(ctx context.Context, bandID uuid.UUID) ([]*Song, error)
	SuggestSong(ctx context.Context, user *User, request *SuggestSongRequest) (*Song, error)
}

type SongController struct {
	songRepo       repositories.SongRepository
	bandRepo       repositories.BandRepository
	catalogService *services.CatalogService
	db             database.DB
	Config         config.Config
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) SongControllerInterface {
	return &SongController{
		songRepo:       repos.Song,
		bandRepo:       repos.Band,
		catalogService: services.Catalog,
		db:             db,
		Config:         config,
	}
}

func (c *SongController) GetSong(ctx context.Context, id uuid.UUID) (*Song, error) {
	log := logger.NewWithContext(ctx, "songController").Function("GetSong")

	song, err := c.songRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, log.ErrorWithType(ErrNotFound, "song not found", "songID", id)
	}
	return song, nil
}

func (c *SongController) ListSongs(ctx context.Context, bandID uuid.UUID) ([]*Song, error) {
	log := logger.NewWithContext(ctx, "songController").Function("ListSongs")

	if bandID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bandId is required")
	}
	return c.songRepo.GetByBand(ctx, c.db.SQL, bandID)
}

// SuggestSong resolves catalog metadata for the track and adds it to the
// band's pool. The catalog is a pure lookup; a reference it cannot resolve
// falls back to the caller-supplied title and artist.
func (c *SongController) SuggestSong(
	ctx context.Context,
	user *User,
	request *SuggestSongRequest,
) (*Song, error) {
	log := logger.NewWithContext(ctx, "songController").Function("SuggestSong")

	if user == nil {
		return nil, log.ErrorWithType(ErrValidation, "authenticated user is required")
	}
	if request.BandID == uuid.Nil {
		return nil, log.ErrorWithType(ErrValidation, "bandId is required")
	}
	if request.CatalogRef == "" && (request.Title == "" || request.Artist == "") {
		return nil, log.ErrorWithType(ErrValidation,
			"either catalogRef or title and artist are required")
	}

	band, err := c.bandRepo.GetByID(ctx, c.db.SQL, request.BandID)
	if err != nil {
		return nil, err
	}
	if band == nil {
		return nil, log.ErrorWithType(ErrNotFound, "band not found", "bandID", request.BandID)
	}

	suggestedBy := user.ID
	song := &Song{
		BandID:        request.BandID,
		SuggestedByID: &suggestedBy,
		Title:         request.Title,
		Artist:        request.Artist,
		CatalogRef:    request.CatalogRef,
	}

	if request.CatalogRef != "" {
		metadata, err := c.catalogService.Lookup(ctx, request.CatalogRef)
		if err != nil {
			if request.Title == "" || request.Artist == "" {
				return nil, err
			}
			log.Warn("catalog lookup failed, using caller-supplied metadata",
				"catalogRef", request.CatalogRef, "error", err)
		} else {
			song.Title = metadata.Title
			song.Artist = metadata.Artist
			song.Album = metadata.Album
			song.ArtworkURL = metadata.ArtworkURL
			song.DurationMs = metadata.DurationMs
		}
	}

	if err := c.songRepo.Create(ctx, c.db.SQL, song); err != nil {
		return nil, err
	}

	return song, nil
}
