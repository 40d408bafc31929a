package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Hub is the connection registry for the real-time update channel. It is
// created in main and injected wherever broadcasts originate; its run loop
// lives for the duration of the server process.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It exits when ctx is cancelled, closing every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Str("client_id", client.id).Msg("ws client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Debug().Str("client_id", client.id).Msg("ws client unregistered")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the broadcast.
					close(client.send)
					delete(h.clients, client)
				}
			}
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			close(h.done)
			return
		}
	}
}

// add hands a new connection to the run loop. Returns false when the hub has
// already shut down.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// drop hands a connection back to the run loop for cleanup. After shutdown
// there is no loop on the other end; give up instead of blocking the pump
// goroutine forever.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// QueueUpdated broadcasts the invalidation signal to every connected client.
// It satisfies the coordinator's Broadcaster interface and never blocks the
// caller: if the hub cannot take the message the signal is dropped and
// clients catch up on their next explicit fetch.
func (h *Hub) QueueUpdated() {
	message, err := json.Marshal(QueueUpdateMessage{Type: TypeQueueUpdate})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal queue update")
		return
	}
	select {
	case h.broadcast <- message:
	default:
		log.Warn().Msg("broadcast channel full, dropping queue update")
	}
}
