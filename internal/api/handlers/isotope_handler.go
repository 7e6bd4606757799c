package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/dashboard"
	"github.com/bmex-dev/leveldensity/internal/middleware/validation"
	"github.com/bmex-dev/leveldensity/internal/view"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

type IsotopeHandler struct {
	service  *dashboard.Service
	sessions *Sessions
	renderer *view.Renderer
}

func NewIsotopeHandler(service *dashboard.Service, sessions *Sessions, renderer *view.Renderer) *IsotopeHandler {
	return &IsotopeHandler{
		service:  service,
		sessions: sessions,
		renderer: renderer,
	}
}

// Resolve answers GET /api/v1/isotopes?Z=..&A=.. with the JSON result.
func (h *IsotopeHandler) Resolve(c *fiber.Ctx) error {
	sess := h.sessions.For(c)

	result, err := h.service.Resolve(c.Context(), sess, validation.Params(c))
	if err != nil {
		logger.Error("Failed to resolve isotope", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve isotope",
		})
	}

	return c.JSON(result)
}

// Page renders the dashboard for GET / and the legacy GET /A=..&Z=.. route.
func (h *IsotopeHandler) Page(c *fiber.Ctx) error {
	sess := h.sessions.For(c)
	params := validation.Params(c)

	page := view.Page{Params: params}
	result, err := h.service.Resolve(c.Context(), sess, params)
	if err != nil {
		logger.Error("Failed to resolve isotope", zap.Error(err))
		page.Error = "Failed to load data"
	}
	page.Result = result

	c.Type("html", "utf-8")
	return h.renderer.Page(c, page)
}
