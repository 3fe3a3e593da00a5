package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// Hub fans detection events out to all connected dashboard clients.
// There is one shared channel: every subscriber receives every
// category-B event.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*websocket.Conn
	log     zerolog.Logger
}

// NewHub creates an empty hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		log:     log,
	}
}

// Register adds a connection and returns its subscriber ID
func (h *Hub) Register(conn *websocket.Conn) string {
	id := uuid.NewString()

	h.mu.Lock()
	h.clients[id] = conn
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info().Str("subscriber_id", id).Int("total", total).Msg("WebSocket client connected")
	return id
}

// Unregister removes a connection; safe to call twice
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Info().Str("subscriber_id", id).Int("total", total).Msg("WebSocket client disconnected")
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a serialized event to every subscriber. A subscriber
// that fails a write is dropped; a slow dashboard never blocks the
// detection path beyond the write deadline.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn().Err(err).Str("subscriber_id", id).Msg("Dropping failed WebSocket subscriber")
			h.Unregister(id)
			conn.Close()
		}
	}
}
