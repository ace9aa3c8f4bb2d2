package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/tracknest/tracknest/internal/auth"
)

// ──────────────────── WebSocket Hub ────────────────────

// WSHub pushes stats and achievement events to connected clients so profile
// pages update without polling. Events carry the owning user id; clients only
// receive their own user-scoped events plus platform-wide ones.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
}

type WSClient struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type WSMessage struct {
	Event  string      `json:"event"`
	UserID string      `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]bool)}
}

// Broadcast sends a platform-wide event to every client.
func (h *WSHub) Broadcast(event string, data interface{}) {
	h.dispatch(WSMessage{Event: event, Data: data}, "")
}

// BroadcastUser sends an event to one user's connections only.
func (h *WSHub) BroadcastUser(userID, event string, data interface{}) {
	h.dispatch(WSMessage{Event: event, UserID: userID, Data: data}, userID)
}

func (h *WSHub) dispatch(msg WSMessage, userID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if userID != "" && client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow client; drop the event rather than block the hub.
		}
	}
}

func (h *WSHub) register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *WSHub) unregister(c *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ──────────────────── Connection handler ────────────────────

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // same-origin enforcement is handled by auth
	})
	if err != nil {
		log.Printf("ws: accept failed: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		userID: u.UserID,
		send:   make(chan []byte, 32),
	}
	s.wsHub.register(client)
	defer s.wsHub.unregister(client)

	ctx := r.Context()
	go func() {
		// Drain reads to observe close frames; clients never send data.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	for msg := range client.send {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := conn.Write(writeCtx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
}
