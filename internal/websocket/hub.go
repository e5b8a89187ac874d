package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-basket/internal/app/orderparams"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

const (
	// Maximum client messages handled per second.
	maxMessagesPerSecond = 10

	sendBufferSize = 256
)

// Event is one message pushed to every connected UI session.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientMessage is a message received from a UI session. Form carries the
// order-params form answered by a gate_confirm.
type ClientMessage struct {
	Type   string           `json:"type"` // gate_confirm, gate_dismiss
	GateID string           `json:"gate_id"`
	Form   orderparams.Form `json:"form"`
}

// MessageHandler handles a parsed client message.
type MessageHandler func(client *Client, msg ClientMessage)

type Client struct {
	Hub           *Hub
	Conn          *Conn
	SessionID     string
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		SessionID:     sessionID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
}

// Hub fans events out to every registered UI session.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	handler MessageHandler

	// done is closed when Run returns.
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 1024),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler for client messages. Call it before Run.
func (h *Hub) OnMessage(fn MessageHandler) {
	h.handler = fn
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client's send channel. Register and Unregister return
// immediately once Run has returned.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id":     client.SessionID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"session_id":         client.SessionID,
				"remaining_sessions": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow client: drop it asynchronously.
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": client.SessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues event for every session. A full queue drops the event.
func (h *Hub) Broadcast(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": event.Type,
		})
		return err
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type": event.Type,
		})
	}
	return nil
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage rate-limits, parses and dispatches a raw client message.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	if h.handler == nil {
		return
	}
	h.handler(client, msg)
}
