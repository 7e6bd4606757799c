package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/storage/models"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

const maxHistoryLimit = 500

type HistoryReader interface {
	RecentLookups(ctx context.Context, limit int) ([]models.LookupRecord, error)
}

type HistoryHandler struct {
	reader HistoryReader
}

func NewHistoryHandler(reader HistoryReader) *HistoryHandler {
	return &HistoryHandler{reader: reader}
}

func (h *HistoryHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxHistoryLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 500",
		})
	}

	records, err := h.reader.RecentLookups(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to read lookup history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}
