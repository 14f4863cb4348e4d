package handlers

import (
	"encore/internal/app"
	leaderboardController "encore/internal/controllers/leaderboard"
	"encore/internal/handlers/middleware"
	"encore/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LeaderboardHandler struct {
	Handler
	leaderboardController leaderboardController.LeaderboardControllerInterface
}

func NewLeaderboardHandler(app app.App, router fiber.Router) *LeaderboardHandler {
	log := logger.New("handlers").File("leaderboard_handler")
	return &LeaderboardHandler{
		leaderboardController: app.Controllers.Leaderboard,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *LeaderboardHandler) Register() {
	bands := h.router.Group("/bands", h.middleware.RequireAuth())
	bands.Get("/:bandId/leaderboard", h.getLeaderboard)
}

func (h *LeaderboardHandler) getLeaderboard(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	bandID, err := uuid.Parse(c.Params("bandId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid band ID",
		})
	}

	scope := leaderboardController.ParseScope(c.Query("scope"))
	ordering := leaderboardController.ParseOrdering(c.Query("ordering"))

	entries, err := h.leaderboardController.GetLeaderboard(
		c.UserContext(), user, bandID, scope, ordering)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"scope":    scope,
		"ordering": ordering,
		"entries":  entries,
	})
}
