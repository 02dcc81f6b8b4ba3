package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/scrypster/vocabuddy/internal/session"
)

// LearnedEvent is broadcast to WebSocket clients whenever a learned-word
// record is produced, so clients can update live without polling /history.
type LearnedEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Record    session.LearnedWord `json:"record"`
}

// WebSocketHub manages WebSocket connections and broadcasts learned-word
// events to all of them.
type WebSocketHub struct {
	mu      sync.Mutex
	clients map[chan []byte]bool
	closed  bool
}

// NewWebSocketHub creates a new hub.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{clients: make(map[chan []byte]bool)}
}

// Broadcast sends an event to all connected clients. Clients whose send
// buffer is full are disconnected rather than blocking the broadcaster.
func (h *WebSocketHub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket: failed to marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			delete(h.clients, ch)
			close(ch)
		}
	}
}

// Stop disconnects all clients and rejects future registrations.
func (h *WebSocketHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		close(ch)
	}
	h.clients = make(map[chan []byte]bool)
}

// register adds a client send channel. Returns false when the hub has been
// stopped.
func (h *WebSocketHub) register(ch chan []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[ch] = true
	log.Printf("websocket: client connected (total: %d)", len(h.clients))
	return true
}

// unregister removes a client send channel.
func (h *WebSocketHub) unregister(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	log.Printf("websocket: client disconnected (total: %d)", len(h.clients))
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Mini Program clients connect from varying origins.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	send := make(chan []byte, 64)
	if !h.register(send) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(conn, send)
	go h.readPump(conn, send)
}

// writePump sends broadcast events to one connection.
func (h *WebSocketHub) writePump(conn *websocket.Conn, send chan []byte) {
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	for message := range send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			h.unregister(send)
			return
		}
	}
}

// readPump drains client messages to detect disconnections.
func (h *WebSocketHub) readPump(conn *websocket.Conn, send chan []byte) {
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			h.unregister(send)
			return
		}
	}
}
