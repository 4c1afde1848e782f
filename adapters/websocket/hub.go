package websocket

import (
	"fmt"
	"sync"

	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
)

type Hub struct {
	clients    map[string]*Client
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.clients[client.sessionID]; ok && previous != client {
				previous.Close()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.sessionID]; ok && current == client {
				delete(h.clients, client.sessionID)
			}
			h.mu.Unlock()
			client.Close()
			log.WithCtx(client.ctx).Debug("Client unregistered")
		}
	}
}

// Register adds a client to the hub. A second connection for the same session
// replaces the first.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.IsClosed() {
			client.SendMessage(message)
		}
	}
}

// SendToSession sends a message to the client bound to sessionID
func (h *Hub) SendToSession(sessionID string, message []byte) error {
	if client := h.GetClientBySession(sessionID); client != nil {
		return client.SendMessage(message)
	}
	return fmt.Errorf("client with session ID %s not found", sessionID)
}

// GetClientBySession returns a live client by session ID
func (h *Hub) GetClientBySession(sessionID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[sessionID]
	if !ok || client.IsClosed() {
		return nil
	}
	return client
}

// IsSessionConnected checks if a session already has a live connection
func (h *Hub) IsSessionConnected(sessionID string) bool {
	return h.GetClientBySession(sessionID) != nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
