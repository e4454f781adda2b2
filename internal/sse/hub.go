package sse

import (
	"context"
	"sync"

	"github.com/dimitrije/bolt-api/internal/events"
	"github.com/google/uuid"
)

const clientBuffer = 64

// Client is one open event stream for a single workspace.
type Client struct {
	ID          string
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Send        chan events.Event
}

func NewClient(userID, workspaceID uuid.UUID) *Client {
	return &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Send:        make(chan events.Event, clientBuffer),
	}
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client.ID)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				if client.WorkspaceID != ev.WorkspaceID {
					continue
				}
				select {
				case client.Send <- ev:
				default:
					// slow consumer, drop
				}
				// A deleted workspace has nothing more to stream.
				if ev.Type == events.WorkspaceDeleted {
					h.remove(id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(id string) {
	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.Send)
	}
}

// Register adds a client. After the hub stops the client is closed at once.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Deliver queues an event for every client watching its workspace. It is the
// forwarder handed to the event bus.
func (h *Hub) Deliver(ev events.Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

func (h *Hub) ClientCount(workspaceID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.WorkspaceID == workspaceID {
			n++
		}
	}
	return n
}
