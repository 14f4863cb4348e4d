package controllers

import (
	"encore/config"
	"encore/internal/database"
	"encore/internal/events"
	"encore/internal/repositories"
	"encore/internal/services"

	leaderboardController "encore/internal/controllers/leaderboard"
	seriesController "encore/internal/controllers/series"
	setlistController "encore/internal/controllers/setlist"
	songController "encore/internal/controllers/songs"
	voteController "encore/internal/controllers/votes"
)

type Controllers struct {
	Leaderboard leaderboardController.LeaderboardControllerInterface
	Vote        voteController.VoteControllerInterface
	Setlist     setlistController.SetlistControllerInterface
	Series      seriesController.SeriesControllerInterface
	Song        songController.SongControllerInterface
}

// New wires the controllers. The leaderboard controller is built first: the
// vote controller invalidates its cache on writes and the setlist controller
// consumes its ranking for auto-selection.
func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	leaderboard := leaderboardController.New(repos, config, db)

	return Controllers{
		Leaderboard: leaderboard,
		Vote:        voteController.New(repos, services, leaderboard, eventBus, config, db),
		Setlist:     setlistController.New(repos, services, leaderboard, eventBus, config, db),
		Series:      seriesController.New(repos, services, eventBus, config, db),
		Song:        songController.New(repos, services, config, db),
	}
}
