package repositories

import (
	"encore/internal/database"
)

type Repository struct {
	User       UserRepository
	Band       BandRepository
	Song       SongRepository
	Vote       VoteRepository
	RateWindow RateWindowRepository
	Rehearsal  RehearsalRepository
	Setlist    SetlistRepository
	Series     SeriesRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:       NewUserRepository(db.Cache.User),
		Band:       NewBandRepository(),
		Song:       NewSongRepository(),
		Vote:       NewVoteRepository(),
		RateWindow: NewRateWindowRepository(),
		Rehearsal:  NewRehearsalRepository(),
		Setlist:    NewSetlistRepository(),
		Series:     NewSeriesRepository(),
	}
}
