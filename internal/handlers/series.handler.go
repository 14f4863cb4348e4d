package handlers

import (
	"encore/internal/app"
	seriesController "encore/internal/controllers/series"
	"encore/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SeriesHandler struct {
	Handler
	seriesController seriesController.SeriesControllerInterface
}

func NewSeriesHandler(app app.App, router fiber.Router) *SeriesHandler {
	log := logger.New("handlers").File("series_handler")
	return &SeriesHandler{
		seriesController: app.Controllers.Series,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SeriesHandler) Register() {
	series := h.router.Group("/series", h.middleware.RequireAuth())
	series.Post("/", h.createSeries)
	series.Get("/:id", h.getSeries)
	series.Post("/:id/generate", h.generateMore)
	series.Delete("/:id", h.deleteSeries)
}

func (h *SeriesHandler) createSeries(c *fiber.Ctx) error {
	var request seriesController.CreateSeriesRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	series, err := h.seriesController.CreateSeries(c.UserContext(), &request)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"series": series})
}

func (h *SeriesHandler) getSeries(c *fiber.Ctx) error {
	seriesID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid series ID",
		})
	}

	series, err := h.seriesController.GetSeries(c.UserContext(), seriesID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"series": series})
}

type generateMoreRequest struct {
	MonthsAhead int `json:"monthsAhead"`
}

func (h *SeriesHandler) generateMore(c *fiber.Ctx) error {
	seriesID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid series ID",
		})
	}

	var request generateMoreRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rehearsals, err := h.seriesController.GenerateMoreRehearsals(
		c.UserContext(), seriesID, request.MonthsAhead)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"rehearsals": rehearsals})
}

func (h *SeriesHandler) deleteSeries(c *fiber.Ctx) error {
	seriesID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid series ID",
		})
	}

	if err := h.seriesController.DeleteSeries(c.UserContext(), seriesID); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
