package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"water_heater"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The device lives on a trusted LAN; the page itself is served from
	// this same host anyway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect godoc
// @Summary      Telemetry stream
// @Description  Upgrades to a WebSocket and streams throttled telemetry records. The first record is sent immediately on connect.
// @Tags         monitoring
// @Success      101 {string} string "switching protocols"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	state, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.log.Errorw("ws connect state read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "state unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws upgrade failed", "error", err)
		return
	}

	// Serve blocks until the observer disconnects.
	h.hub.Serve(conn, water_heater.BuildTelemetry(state, time.Now()))
}
