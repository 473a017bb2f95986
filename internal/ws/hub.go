package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	TypeState    = "state"
	TypePresence = "presence"
	TypeError    = "error"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one websocket connection bound to a session. Writes are
// serialized per connection; the watcher and presence callbacks both push.
type Client struct {
	ID      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Send marshals and writes one message. Write errors are returned so the
// caller can drop the connection.
func (c *Client) Send(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uint]map[*Client]bool),
	}
}

func (h *Hub) Register(sessionID uint, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	client := &Client{ID: uuid.NewString(), conn: conn}
	h.sessions[sessionID][client] = true
	log.Printf("ws: client %s connected to session %d (total: %d)", client.ID, sessionID, len(h.sessions[sessionID]))
	return client
}

func (h *Hub) Unregister(sessionID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.sessions[sessionID]; ok {
		delete(clients, client)
		client.conn.Close()
		if len(clients) == 0 {
			delete(h.sessions, sessionID)
		}
		log.Printf("ws: client %s disconnected from session %d", client.ID, sessionID)
	}
}

// Broadcast sends a message to every connection in the session.
func (h *Hub) Broadcast(sessionID uint, message WSMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for client := range h.sessions[sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(message); err != nil {
			log.Printf("ws: write error: %v", err)
			h.Unregister(sessionID, client)
		}
	}
}

// ConnectionCount reports the live connections for a session.
func (h *Hub) ConnectionCount(sessionID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
