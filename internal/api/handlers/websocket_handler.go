package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/dashboard"
	"github.com/bmex-dev/leveldensity/internal/isotope"
	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/internal/session"
	"github.com/bmex-dev/leveldensity/internal/view"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

const wsResolveTimeout = 30 * time.Second

type wsRequest struct {
	Type string `json:"type"`
	Z    *int   `json:"Z"`
	A    *int   `json:"A"`
}

type wsResponse struct {
	Type   string `json:"type"`
	HTML   string `json:"html,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WebSocketHandler re-renders the result fragment whenever the dashboard
// inputs change.
type WebSocketHandler struct {
	service  *dashboard.Service
	sessions *Sessions
	renderer *view.Renderer
}

func NewWebSocketHandler(service *dashboard.Service, sessions *Sessions, renderer *view.Renderer) *WebSocketHandler {
	return &WebSocketHandler{
		service:  service,
		sessions: sessions,
		renderer: renderer,
	}
}

// Upgrade binds the session before the protocol switch, since cookies can't
// be set afterwards.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	h.sessions.For(c)
	return c.Next()
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	id, _ := c.Locals(sessionLocalsKey).(string)
	sess := session.Open(h.sessions.store, id)

	metrics.ActiveWebSockets.Inc()
	logger.Debug("WebSocket connection established", zap.String("session_id", sess.ID))

	defer func() {
		metrics.ActiveWebSockets.Dec()
		c.Close()
		logger.Debug("WebSocket connection closed", zap.String("session_id", sess.ID))
	}()

	for {
		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			return
		}
		if req.Type != "resolve" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsResolveTimeout)
		resp := h.handleMessage(ctx, sess, req)
		cancel()

		if err := c.WriteJSON(resp); err != nil {
			logger.Warn("Failed to write WebSocket message", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, sess *session.Session, req wsRequest) wsResponse {
	for name, v := range map[string]*int{"Z": req.Z, "A": req.A} {
		if v != nil && *v <= 0 {
			return wsResponse{Type: "error", Error: fmt.Sprintf("%s must be positive", name)}
		}
	}

	result, err := h.service.Resolve(ctx, sess, isotope.Params{Z: req.Z, A: req.A})
	if err != nil {
		logger.Error("Failed to resolve isotope", zap.Error(err))
		return wsResponse{Type: "error", Error: "Failed to resolve isotope"}
	}

	html, err := h.renderer.Result(result)
	if err != nil {
		logger.Error("Failed to render result", zap.Error(err))
		return wsResponse{Type: "error", Error: "Failed to render result"}
	}

	return wsResponse{Type: "result", HTML: html, Prompt: result.Prompt}
}
