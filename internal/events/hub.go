package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 64
)

// Hub is the in-process Publisher backing the gateway's /ws endpoint. Each
// connection holds its own subscription set; events fan out only to
// connections subscribed to the event's channel.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

type conn struct {
	ws       *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	channels map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The gateway fronts a trusted dashboard; origin policy is
			// enforced upstream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*conn]struct{}),
	}
}

// subscribeMessage is the only client-to-server message the hub understands.
type subscribeMessage struct {
	Action  string `json:"action"` // "subscribe" | "unsubscribe"
	Channel string `json:"channel"`
}

// ServeHTTP upgrades the request and services the connection until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("events: websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *conn) {
	defer h.drop(c)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			if msg.Channel != "" {
				c.mu.Lock()
				c.channels[msg.Channel] = struct{}{}
				c.mu.Unlock()
			}
		case "unsubscribe":
			c.mu.Lock()
			delete(c.channels, msg.Channel)
			c.mu.Unlock()
		}
	}
}

func (h *Hub) writeLoop(c *conn) {
	for data := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.ws.Close()
}

// Publish delivers the event to every connection subscribed to channel.
// Connections with full send buffers are skipped rather than blocked on.
func (h *Hub) Publish(_ context.Context, channel, event string, payload any) {
	data, err := json.Marshal(Envelope{Channel: channel, Event: event, Payload: payload})
	if err != nil {
		slog.Warn("events: encoding event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		c.mu.RLock()
		_, subscribed := c.channels[channel]
		c.mu.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.Debug("events: dropping event for slow subscriber", "channel", channel, "event", event)
		}
	}
}
