package handler

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jengzang/urban-twin-go/internal/middleware"
	"github.com/jengzang/urban-twin-go/internal/progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressHandler upgrades clients to the progress stream
type ProgressHandler struct {
	hub *progress.Hub
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(hub *progress.Hub) *ProgressHandler {
	return &ProgressHandler{hub: hub}
}

// Stream handles GET /api/v1/analysis/progress
func (h *ProgressHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.hub.Register(conn, middleware.Owner(c))
}
