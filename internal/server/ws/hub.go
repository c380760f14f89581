// Package ws pushes live open-position tables to browsers over websocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/live"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 512

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 64
)

// Snapshotter returns the current open positions of an environment.
type Snapshotter interface {
	Snapshot(env domain.Environment) []domain.Position
}

// client is a single websocket connection bound to one environment.
type client struct {
	hub  *Hub
	env  domain.Environment
	conn *websocket.Conn
	send chan []byte
}

type envMsg struct {
	env  domain.Environment
	data []byte
}

// Hub tracks connected clients per environment and fans live table messages
// out to them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan envMsg
	register   chan *client
	unregister chan *client
	done       chan struct{}
	tables     Snapshotter
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewHub creates a Hub. allowedOrigins limits the Origin header on upgrade;
// an empty list or "*" allows any origin.
func NewHub(tables Snapshotter, allowedOrigins []string, logger *slog.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		tables:     tables,
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		if set[origin] {
			return true
		}
		// Same-origin pages are always allowed.
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Broadcast queues msg for every client of env. It never blocks the caller
// for longer than the hub's buffer allows.
func (h *Hub) Broadcast(env domain.Environment, msg []byte) {
	select {
	case h.broadcast <- envMsg{env: env, data: msg}:
	default:
		h.logger.Warn("ws: broadcast queue full, dropping message",
			slog.String("environment", string(env)),
		)
	}
}

// Run is the hub's event loop. It exits when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.String("environment", string(c.env)),
				slog.Int("total_clients", h.ClientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.ClientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.env != msg.env {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// Client's send buffer is full; drop the message.
					h.logger.Warn("ws: dropping message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWS upgrades the request and subscribes the connection to the
// environment resolved for it. The current table is sent first.
// GET /ws/positions
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	env, ok := environment.FromContext(r.Context())
	if !ok {
		http.Error(w, "environment not resolved", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		env:  env,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	if !h.attach(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// attach queues the snapshot and then registers c. Once registered, only
// the hub loop may close c.send, so nothing is written to it from here
// after that point. It reports false when the hub has stopped.
func (h *Hub) attach(c *client) bool {
	c.queueSnapshot()
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (c *client) queueSnapshot() {
	rows := c.hub.tables.Snapshot(c.env)
	if rows == nil {
		rows = []domain.Position{}
	}
	msg, err := json.Marshal(live.Message{
		Type:        live.MessageSnapshot,
		Environment: c.env,
		Positions:   rows,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// readPump drains the connection so pongs and close frames are processed.
// Clients never send data the hub acts on.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// writePump sends queued JSON text frames and periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
