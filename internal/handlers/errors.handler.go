package handlers

import (
	"errors"

	leaderboardController "encore/internal/controllers/leaderboard"
	seriesController "encore/internal/controllers/series"
	setlistController "encore/internal/controllers/setlist"
	songController "encore/internal/controllers/songs"
	voteController "encore/internal/controllers/votes"
	"encore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errorResponse maps controller sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the real error is already in
// the logs with its trace ID.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, voteController.ErrValidation),
		errors.Is(err, setlistController.ErrValidation),
		errors.Is(err, seriesController.ErrValidation),
		errors.Is(err, songController.ErrValidation),
		errors.Is(err, leaderboardController.ErrValidation),
		errors.Is(err, services.ErrInvalidRecurrence):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})

	case errors.Is(err, voteController.ErrNotFound),
		errors.Is(err, setlistController.ErrNotFound),
		errors.Is(err, seriesController.ErrNotFound),
		errors.Is(err, songController.ErrNotFound),
		errors.Is(err, leaderboardController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})

	case errors.Is(err, setlistController.ErrNoSongsAvailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
