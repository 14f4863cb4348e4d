package handlers

import (
	"encore/internal/app"
	songController "encore/internal/controllers/songs"
	"encore/internal/handlers/middleware"
	"encore/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SongHandler struct {
	Handler
	songController songController.SongControllerInterface
}

func NewSongHandler(app app.App, router fiber.Router) *SongHandler {
	log := logger.New("handlers").File("song_handler")
	return &SongHandler{
		songController: app.Controllers.Song,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SongHandler) Register() {
	songs := h.router.Group("/songs", h.middleware.RequireAuth())
	songs.Post("/", h.suggestSong)
	songs.Get("/:id", h.getSong)

	bands := h.router.Group("/bands", h.middleware.RequireAuth())
	bands.Get("/:bandId/songs", h.listSongs)
}

func (h *SongHandler) suggestSong(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	var request songController.SuggestSongRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	song, err := h.songController.SuggestSong(c.UserContext(), user, &request)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"song": song})
}

func (h *SongHandler) getSong(c *fiber.Ctx) error {
	songID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid song ID",
		})
	}

	song, err := h.songController.GetSong(c.UserContext(), songID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"song": song})
}

func (h *SongHandler) listSongs(c *fiber.Ctx) error {
	bandID, err := uuid.Parse(c.Params("bandId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid band ID",
		})
	}

	songs, err := h.songController.ListSongs(c.UserContext(), bandID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"songs": songs})
}
