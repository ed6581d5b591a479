package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	EventClientCreated   = "client_created"
	EventMovementCreated = "movement_created"
	EventCacheCleared    = "cache_cleared"
)

// Event is the JSON payload pushed to every connected back-office screen.
type Event struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Version  int    `json:"version"`
}

// Client represents a single websocket client connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Publisher is what write paths depend on to announce changes.
type Publisher interface {
	Publish(evt Event)
}

// Hub maintains active connections and broadcasts events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
	log     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[Client]struct{}),
		log:     logger.Named("realtime"),
	}
}

// Register adds a client.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all clients and returns how many accepted it.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if c.Send(message) {
			delivered++
		}
		// a failed write is cleaned up by the handler's reader loop
	}
	return delivered
}

// Publish encodes evt and broadcasts it.
func (h *Hub) Publish(evt Event) {
	if evt.Version == 0 {
		evt.Version = 1
	}
	b, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("encode event", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	n := h.Broadcast(b)
	h.log.Debug("event published", zap.String("type", evt.Type), zap.Int("delivered", n))
}
