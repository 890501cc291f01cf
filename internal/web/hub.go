package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/game"
	"github.com/chipbench/chipbench/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only listen, so inbound frames stay tiny
	maxMessageSize = 512

	// Outbound buffer per client. A client that falls this far behind
	// the feed is dropped rather than allowed to stall a session.
	sendBuffer = 64
)

// LiveEvent is the wire form of one broadcast hand.
type LiveEvent struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Index     int          `json:"index"`
	Result    *game.Result `json:"result"`
}

// Hub broadcasts completed hands to websocket subscribers. It implements
// session.Sink, so a session streams into it directly; broadcasting is
// best effort and never fails the session.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*client]bool
	closed  bool
}

var _ session.Sink = (*Hub)(nil)

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithHubLogger attaches a logger.
func WithHubLogger(logger zerolog.Logger) HubOption {
	return func(h *Hub) { h.log = logger }
}

// NewHub builds an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]bool),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandPlayed implements session.Sink by broadcasting the hand to every
// subscriber.
func (h *Hub) HandPlayed(ctx context.Context, e session.HandEvent) error {
	b, err := json.Marshal(LiveEvent{
		Type:      "hand",
		SessionID: e.SessionID,
		Index:     e.Index,
		Result:    e.Result,
	})
	if err != nil {
		h.log.Error().Err(err).Str("session", e.SessionID).Msg("encoding live event")
		return nil
	}
	h.broadcast(b)
	return nil
}

// ServeWS upgrades the request and subscribes the client to the feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info().Int("total", total).Msg("live client connected")

	go c.writePump()
	go c.readPump(h)
}

// ClientCount reports how many subscribers are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues the payload on every subscriber, dropping any whose
// buffer is already full.
func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			delete(h.clients, c)
			close(c.send)
			h.log.Warn().Msg("live client too slow, dropping")
		}
	}
}

// drop unsubscribes a client. Safe to call twice; only the registered
// instance closes the channel.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// client is one websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump delivers queued events and keeps the connection alive with
// pings. It owns all writes to the socket.
func (c *client) writePump() {
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

// readPump discards inbound frames, serving only to notice disconnects
// and answer pings.
func (c *client) readPump(h *Hub) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
