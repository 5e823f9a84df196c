// Package messaging pushes tracked events to connected dashboard clients
// in real time over websockets.
package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// LiveClient represents a single connected dashboard client.
type LiveClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// LiveBroadcaster manages connected dashboard clients and fans tracked
// events out to them. Delivery is best effort: a slow client's buffer is
// dropped rather than blocking the tracking path.
type LiveBroadcaster struct {
	clients    map[*LiveClient]bool
	register   chan *LiveClient
	unregister chan *LiveClient
	broadcast  chan []byte
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewLiveBroadcaster creates a new broadcaster instance.
func NewLiveBroadcaster(logger *logging.ChanneledLogger) *LiveBroadcaster {
	return &LiveBroadcaster{
		clients:    make(map[*LiveClient]bool),
		register:   make(chan *LiveClient),
		unregister: make(chan *LiveClient),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *LiveBroadcaster) Run() {
	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.Live().Info("Dashboard live client connected", "clients", b.ClientCount())

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.Live().Info("Dashboard live client disconnected", "clients", b.ClientCount())

		case message := <-b.broadcast:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client.Send <- message:
				default:
					// Client can't keep up; skip this message for it.
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Register queues a client for registration.
func (b *LiveBroadcaster) Register(client *LiveClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *LiveBroadcaster) Unregister(client *LiveClient) {
	b.unregister <- client
}

// ClientCount returns the number of connected clients.
func (b *LiveBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// BroadcastEvent pushes one tracked event to all connected clients.
// It never blocks the caller.
func (b *LiveBroadcaster) BroadcastEvent(event *events.TrackingEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Live().Warn("Failed to marshal live event", "error", err.Error())
		return
	}

	select {
	case b.broadcast <- payload:
	default:
		b.logger.Live().Warn("Live broadcast buffer full, event skipped")
	}
}

// WritePump drains a client's send channel onto its websocket connection.
// This should be run as a goroutine per client.
func (b *LiveBroadcaster) WritePump(client *LiveClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump discards inbound frames and unregisters the client when the
// connection drops.
func (b *LiveBroadcaster) ReadPump(client *LiveClient) {
	defer func() {
		b.Unregister(client)
		client.Conn.Close()
	}()
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
