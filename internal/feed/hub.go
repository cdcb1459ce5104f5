package feed

import (
	"context"
	"encoding/json"
	"sync"

	"qrmenu-service/internal/util"

	"github.com/google/uuid"
)

// MessageTypeSnapshot carries a full View
const MessageTypeSnapshot = "feed.snapshot"

// Message is what subscribers receive over the wire
type Message struct {
	Type    string `json:"type"`
	Payload *View  `json:"payload"`
}

// EncodeSnapshot renders a view as a subscriber message
func EncodeSnapshot(view *View) ([]byte, error) {
	return json.Marshal(Message{Type: MessageTypeSnapshot, Payload: view})
}

type roomMessage struct {
	restaurantID uuid.UUID
	data         []byte
}

// Hub maintains the subscribers of each restaurant and fans messages
// out to them
type Hub struct {
	// Registered clients by restaurant ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing
// every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for rid, clients := range h.rooms {
				for client := range clients {
					close(client.send)
					util.FeedSubscribers.Dec()
				}
				delete(h.rooms, rid)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.restaurantID] == nil {
				h.rooms[client.restaurantID] = make(map[*Client]bool)
			}
			h.rooms[client.restaurantID][client] = true
			h.mu.Unlock()
			util.FeedSubscribers.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.restaurantID] {
				select {
				case client.send <- msg.data:
				default:
					// slow consumer
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its queue. Caller holds mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.restaurantID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	util.FeedSubscribers.Dec()
	if len(clients) == 0 {
		delete(h.rooms, client.restaurantID)
	}
}

// join registers a client. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters a client. After the hub stopped there is nothing to
// leave: Run already closed every queue.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues data for every subscriber of a restaurant. When the
// queue is full the snapshot is dropped; the next refresh supersedes it.
func (h *Hub) Broadcast(restaurantID uuid.UUID, data []byte) bool {
	select {
	case h.broadcast <- &roomMessage{restaurantID: restaurantID, data: data}:
		return true
	default:
		return false
	}
}

// Rooms lists the restaurants that currently have subscribers
func (h *Hub) Rooms() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// HasSubscribers reports whether anyone watches a restaurant
func (h *Hub) HasSubscribers(restaurantID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[restaurantID]) > 0
}
