package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// EventMessage is the wire form of a change notification.
type EventMessage struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	Seq       int64  `json:"seq"`
}

// DataChangedEvent is the event name broadcast after every successful
// persisted mutation.
const DataChangedEvent = "data.changed"

type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans change notifications out to all connected websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	seq      uint64

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Loopback-only service, the desktop shell connects from a
			// file:// or app:// origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("component", "hub").Logger(),
		clients: make(map[string]*client),
	}
}

// Handler returns the HTTP handler that upgrades connections to the
// change-notification feed.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}

		id, err := gonanoid.New()
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to generate client id")
			conn.Close()
			return
		}

		c := &client{id: id, conn: conn}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			conn.Close()
			return
		}
		h.clients[id] = c
		h.mu.Unlock()

		h.logger.Debug().Str("clientId", id).Msg("Notification client connected")

		// Drain the connection so close frames and pings are processed;
		// clients never send meaningful payloads.
		go func() {
			defer h.remove(id)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// DataChanged broadcasts a data.changed event to every connected client.
// Clients whose writes fail are dropped.
func (h *Hub) DataChanged() {
	msg := EventMessage{
		Type:      "event",
		Event:     DataChangedEvent,
		Timestamp: time.Now().UnixMilli(),
		Seq:       int64(atomic.AddUint64(&h.seq, 1)),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Warn().Err(err).Str("clientId", c.id).Msg("Failed to notify client, dropping")
			h.remove(c.id)
		}
	}

	h.logger.Debug().Int64("seq", msg.Seq).Int("clients", len(clients)).Msg("Change notification broadcast")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Debug().Str("clientId", id).Msg("Notification client disconnected")
	}
}
