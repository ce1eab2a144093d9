package ws

import (
	"encoding/json"
	"sync"
)

// AllStatuses subscribes a client to every order event regardless of status.
const AllStatuses = "*"

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// statusEvent is an internal struct for routing events to status rooms
type statusEvent struct {
	Statuses []string
	Event    Event
}

// Hub maintains the set of active admin-console clients and broadcasts order
// events to them. Rooms are keyed by the status filter a client watches,
// mirroring the status-filtered snapshot listeners the console used to hold.
type Hub struct {
	// Registered clients by watched status
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *statusEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *statusEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.status] == nil {
				h.rooms[client.status] = make(map[*Client]bool)
			}
			h.rooms[client.status][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.status]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.status)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			// A transition is visible to the room it left, the room it
			// entered, and the catch-all room. Deliver once per client even
			// when rooms overlap.
			delivered := make(map[*Client]bool)
			for _, status := range append(event.Statuses, AllStatuses) {
				for client := range h.rooms[status] {
					if delivered[client] {
						continue
					}
					delivered[client] = true
					select {
					case client.send <- message:
					default:
						// Client's send buffer is full, close and unregister
						close(client.send)
						delete(h.rooms[status], client)
						if len(h.rooms[status]) == 0 {
							delete(h.rooms, status)
						}
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastStatusChange sends an event to clients watching any of the given
// statuses (plus catch-all subscribers). Handlers call this after a
// successful transition with the statuses the order moved between.
func (h *Hub) BroadcastStatusChange(statuses []string, event Event) {
	h.broadcast <- &statusEvent{
		Statuses: statuses,
		Event:    event,
	}
}
