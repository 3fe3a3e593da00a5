package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard origins vary per deployment; origin policy belongs
		// to the reverse proxy in front of this service.
		return true
	},
}

// Handler upgrades GET /ws/detections requests and keeps each
// connection registered with the hub until the client goes away.
type Handler struct {
	hub *Hub
	log zerolog.Logger
}

// NewHandler creates a WebSocket handler over hub
func NewHandler(hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, log: log}
}

// Serve is the gin handler for the detections channel
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", c.Request.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	id := h.hub.Register(conn)
	go h.readPump(id, conn)
}

// readPump drains inbound frames to detect disconnection and keeps the
// connection alive with periodic pings.
func (h *Handler) readPump(id string, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(id)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Str("subscriber_id", id).Msg("WebSocket read error")
			}
			return
		}
	}
}
