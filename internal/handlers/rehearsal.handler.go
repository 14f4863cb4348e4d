package handlers

import (
	"encore/internal/app"
	setlistController "encore/internal/controllers/setlist"
	"encore/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RehearsalHandler struct {
	Handler
	setlistController setlistController.SetlistControllerInterface
}

func NewRehearsalHandler(app app.App, router fiber.Router) *RehearsalHandler {
	log := logger.New("handlers").File("rehearsal_handler")
	return &RehearsalHandler{
		setlistController: app.Controllers.Setlist,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *RehearsalHandler) Register() {
	rehearsals := h.router.Group("/rehearsals", h.middleware.RequireAuth())
	rehearsals.Get("/:id/setlist", h.getSetlist)
	rehearsals.Post("/:id/setlist/auto-select", h.autoSelect)
	rehearsals.Post("/:id/setlist", h.addSong)
	rehearsals.Put("/:id/setlist/reorder", h.reorder)
	rehearsals.Delete("/:id/setlist/:itemId", h.removeSong)
}

func (h *RehearsalHandler) getSetlist(c *fiber.Ctx) error {
	rehearsalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rehearsal ID",
		})
	}

	setlist, err := h.setlistController.GetSetlist(c.UserContext(), rehearsalID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"setlist": setlist})
}

func (h *RehearsalHandler) autoSelect(c *fiber.Ctx) error {
	rehearsalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rehearsal ID",
		})
	}

	setlist, err := h.setlistController.AutoSelect(c.UserContext(), rehearsalID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"setlist": setlist})
}

func (h *RehearsalHandler) addSong(c *fiber.Ctx) error {
	rehearsalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rehearsal ID",
		})
	}

	var request setlistController.AddSongRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	setlist, err := h.setlistController.AddSong(c.UserContext(), rehearsalID, &request)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"setlist": setlist})
}

func (h *RehearsalHandler) removeSong(c *fiber.Ctx) error {
	rehearsalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rehearsal ID",
		})
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid setlist item ID",
		})
	}

	setlist, err := h.setlistController.RemoveSong(c.UserContext(), rehearsalID, itemID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"setlist": setlist})
}

func (h *RehearsalHandler) reorder(c *fiber.Ctx) error {
	rehearsalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid rehearsal ID",
		})
	}

	var request setlistController.ReorderRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	setlist, err := h.setlistController.Reorder(c.UserContext(), rehearsalID, &request)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"setlist": setlist})
}
