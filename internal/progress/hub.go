package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"github.com/jengzang/urban-twin-go/internal/analysis"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Hub fans analysis progress out to the websocket clients of each owner
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client is one websocket connection
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	owner string
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register attaches a connection for owner and starts its pumps
func (h *Hub) Register(conn *websocket.Conn, owner string) *Client {
	c := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 64),
		owner: owner,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.WithField("owner", owner).Info("progress client registered")

	go c.writePump()
	go c.readPump()
	return c
}

// Publish delivers a progress event to every client of the event's owner.
// Clients that cannot keep up are dropped.
func (h *Hub) Publish(p analysis.Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		log.WithError(err).Error("failed to serialize progress")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if c.owner != p.Owner {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		log.WithField("owner", c.owner).Info("progress client unregistered")
	}
}

// readPump only handles control frames; clients do not send data
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("owner", c.owner).Warn("progress read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
