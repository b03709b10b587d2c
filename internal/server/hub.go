package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"subgen/internal/api"
	"subgen/internal/generate"
	"subgen/internal/logging"
)

const (
	clientBuffer = 256
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Hub fans orchestrator events out to websocket subscribers.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub with no subscribers.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logging.NewComponentLogger(logger, "hub"),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Clients reports the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Observe implements generate.Observer. Slow subscribers whose buffer fills
// are disconnected rather than stalling generation.
func (h *Hub) Observe(evt generate.Event) {
	payload, err := json.Marshal(api.FromEvent(evt))
	if err != nil {
		h.logger.Error("marshal stream message failed", logging.Error(err))
		return
	}
	h.broadcast(payload)
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			c.close()
			h.logger.Warn("dropping slow websocket client", logging.Int("clients", len(h.clients)))
		}
	}
}

// Snapshotter hands out the current state while holding back observer events.
type Snapshotter interface {
	WithSnapshot(fn func(generate.State))
}

// ServeWS upgrades the request and streams events until the peer leaves. The
// first message is the current snapshot; the client joins the hub inside the
// same critical section so no event falls between the two.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, src Snapshotter) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	var count int
	src.WithSnapshot(func(st generate.State) {
		initial, err := json.Marshal(api.SnapshotMessage(st))
		if err != nil {
			h.logger.Error("marshal snapshot failed", logging.Error(err))
		} else {
			c.send <- initial
		}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		count = len(h.clients)
		h.mu.Unlock()
	})
	h.logger.Debug("websocket client connected", logging.Int("clients", count))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", logging.Int("clients", count))
}

// readPump discards inbound messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
