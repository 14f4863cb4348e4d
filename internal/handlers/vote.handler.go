package handlers

import (
	"encore/internal/app"
	voteController "encore/internal/controllers/votes"
	"encore/internal/handlers/middleware"
	"encore/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type VoteHandler struct {
	Handler
	voteController voteController.VoteControllerInterface
}

func NewVoteHandler(app app.App, router fiber.Router) *VoteHandler {
	log := logger.New("handlers").File("vote_handler")
	return &VoteHandler{
		voteController: app.Controllers.Vote,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *VoteHandler) Register() {
	songs := h.router.Group("/songs", h.middleware.RequireAuth())
	songs.Post("/:id/vote", h.castVote)
	songs.Delete("/:id/vote", h.removeVote)

	bands := h.router.Group("/bands", h.middleware.RequireAuth())
	bands.Get("/:bandId/vote-allowance", h.getAllowance)
}

func (h *VoteHandler) castVote(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	songID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid song ID",
		})
	}

	var request voteController.CastVoteRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	request.SongID = songID

	outcome, err := h.voteController.CastVote(c.UserContext(), user, &request)
	if err != nil {
		return errorResponse(c, err)
	}

	if outcome.Status == voteController.OutcomeRateLimited {
		return c.Status(fiber.StatusTooManyRequests).JSON(outcome)
	}

	return c.JSON(outcome)
}

func (h *VoteHandler) removeVote(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	songID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid song ID",
		})
	}

	outcome, err := h.voteController.RemoveVote(c.UserContext(), user, songID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(outcome)
}

func (h *VoteHandler) getAllowance(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	bandID, err := uuid.Parse(c.Params("bandId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid band ID",
		})
	}

	allowance, err := h.voteController.GetAllowance(c.UserContext(), user, bandID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(allowance)
}
