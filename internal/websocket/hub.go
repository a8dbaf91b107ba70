package websocket

import (
	"sync"

	"github.com/rs/zerolog"
)

// ownerMessage targets one owner's connected dashboard clients.
type ownerMessage struct {
	ownerID string
	data    []byte
}

// Hub maintains the set of active clients and routes messages to the
// clients of the owner they belong to.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages keyed by owner
	send chan ownerMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		send:       make(chan ownerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", client.id).
				Str("owner_id", client.ownerID).
				Int("total_clients", total).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.send:
			h.deliver(message)
		}
	}
}

// NotifyOwner sends a message to all of one owner's connected clients.
// Other owners never see it.
func (h *Hub) NotifyOwner(ownerID string, data []byte) {
	h.send <- ownerMessage{ownerID: ownerID, data: data}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(message ownerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.ownerID != message.ownerID {
			continue
		}
		select {
		case client.send <- message.data:
		default:
			// Client's send buffer is full, close and remove it
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("client send buffer full, closing connection")
		}
	}
}
