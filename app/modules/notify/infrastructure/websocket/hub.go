// Package notifyws streams event changes to browsers over websockets.
package notifyws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	notifyservice "github.com/Black-And-White-Club/opsboard/app/modules/notify/application"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Hub keeps the open connections grouped by event id.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	logger  *slog.Logger
}

var _ notifyservice.Sink = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		logger:  logger,
	}
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	eventID uuid.UUID
	once    sync.Once
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.eventID] == nil {
		h.clients[c.eventID] = make(map[*client]struct{})
	}
	h.clients[c.eventID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[c.eventID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			c.close()
			if len(clients) == 0 {
				delete(h.clients, c.eventID)
			}
		}
	}
}

// Deliver sends the change to every client watching its event. Clients
// whose buffer is full are disconnected.
func (h *Hub) Deliver(ctx context.Context, n notifyservice.Notification) error {
	if n.EventID == uuid.Nil {
		return nil
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[n.EventID] {
		select {
		case c.send <- n.Data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WarnContext(ctx, "Dropping slow websocket client", slog.String("event_id", n.EventID.String()))
		h.unregister(c)
	}
	return nil
}

// ClientCount returns the number of open connections for an event.
func (h *Hub) ClientCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[eventID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for c := range clients {
			c.close()
		}
		delete(h.clients, id)
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// readPump discards inbound frames and unregisters the client when the
// connection drops.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued changes and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
