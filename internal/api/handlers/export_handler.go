package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/export"
	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

type ExportHandler struct {
	sessions *Sessions
	now      func() time.Time
}

func NewExportHandler(sessions *Sessions) *ExportHandler {
	return &ExportHandler{sessions: sessions, now: time.Now}
}

// Download sends the session's last table as a CSV attachment. Without a
// prior result it answers 204 and sends nothing.
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	sess := h.sessions.For(c)

	filename, data, ok, err := export.Export(c.Context(), sess, h.now())
	if err != nil {
		metrics.ExportTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error("Failed to export session data", zap.String("session_id", sess.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export data",
		})
	}
	if !ok {
		metrics.ExportTotal.WithLabelValues(metrics.OutcomeNoResult).Inc()
		return c.SendStatus(fiber.StatusNoContent)
	}

	metrics.ExportTotal.WithLabelValues(metrics.OutcomeExported).Inc()
	logger.Info("Exporting CSV", zap.String("session_id", sess.ID), zap.String("filename", filename))

	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(data)
}
