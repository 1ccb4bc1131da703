package handlers

import (
	"log/slog"

	"flow-chat-service/internal/websocket"

	"github.com/gin-gonic/gin"
)

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Serve godoc
// @Summary Upgrade to a websocket session
// @Description The upgrade itself is unauthenticated; the session gains an
// @Description identity once the first connect frame carries a valid token.
// @Tags websocket
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := websocket.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	client.Start()
}
