// Package telemetry streams engine log entries to websocket clients.
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"solana-mm-brain/internal/domain"
)

const (
	defaultBuffer = 256
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Options configures a Hub.
type Options struct {
	Buffer  int // per-client send queue; a full queue drops the client
	Logger  *zap.Logger
	Clients prometheus.Gauge   // optional
	Dropped prometheus.Counter // optional
}

// Hub fans log entries out to subscribed clients. Publish never blocks
// on a slow client.
type Hub struct {
	upgrader websocket.Upgrader
	buffer   int
	logger   *zap.Logger
	gauge    prometheus.Gauge
	dropped  prometheus.Counter

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type filter struct {
	user string
	mint string
}

func (f filter) match(e domain.LogEntry) bool {
	return (f.user == "" || f.user == e.UserID) && (f.mint == "" || f.mint == e.Mint)
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	filter filter
	once   sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

// NewHub creates a hub.
func NewHub(opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		buffer:  opts.Buffer,
		logger:  opts.Logger,
		gauge:   opts.Clients,
		dropped: opts.Dropped,
		clients: make(map[*client]struct{}),
	}
}

// Publish queues e for every client whose filter matches.
func (h *Hub) Publish(e domain.LogEntry) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Warn("marshal log entry", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.filter.match(e) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.removeLocked(c)
			if h.dropped != nil {
				h.dropped.Inc()
			}
			h.logger.Warn("dropped slow feed client")
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ServeHTTP upgrades the request and subscribes the connection. The
// optional user and mint query parameters narrow the feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	q := r.URL.Query()
	c := &client{
		conn:   conn,
		send:   make(chan []byte, h.buffer),
		filter: filter{user: q.Get("user"), mint: q.Get("mint")},
	}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.gauge != nil {
		h.gauge.Inc()
	}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	if h.gauge != nil {
		h.gauge.Dec()
	}
}

// readPump discards inbound frames and unsubscribes on disconnect.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
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
