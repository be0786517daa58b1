package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fschubi/shutterpilot/internal/models"
	"github.com/sirupsen/logrus"
)

// EventHub manages Server-Sent Events connections for real-time status
// streaming and user-facing notifications.
type EventHub struct {
	clients map[chan []byte]bool
	mu      sync.RWMutex
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client
func (h *EventHub) RegisterClient() chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, 10) // Buffer size 10
	h.clients[clientChan] = true

	logrus.Infof("SSE client registered (total clients: %d)", len(h.clients))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *EventHub) UnregisterClient(clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[clientChan] {
		delete(h.clients, clientChan)
		close(clientChan)
	}

	logrus.Infof("SSE client unregistered (remaining clients: %d)", len(h.clients))
}

// BroadcastStatus broadcasts a per-profile status update to all clients
func (h *EventHub) BroadcastStatus(upd models.StatusUpdate) {
	h.broadcast("status", upd)
}

// BroadcastSnapshot signals clients that the configuration snapshot was
// replaced and should be re-fetched.
func (h *EventHub) BroadcastSnapshot(version string) {
	h.broadcast("snapshot", map[string]string{"version": version})
}

// Notify broadcasts a user-facing notification
func (h *EventHub) Notify(severity, message string) {
	h.broadcast("notification", models.Notification{
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (h *EventHub) broadcast(event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to marshal %s event for SSE: %v", event, err)
		return
	}

	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, string(data))

	// Send to all clients (non-blocking)
	for clientChan := range h.clients {
		select {
		case clientChan <- []byte(message):
		default:
			// Channel is full, skip this client
			logrus.Warn("SSE client channel full, skipping")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendHeartbeat sends a keep-alive comment to one client. Each connection
// runs its own heartbeat ticker; the message never goes to other clients.
func (h *EventHub) SendHeartbeat(clientChan chan []byte) {
	heartbeat := fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
	select {
	case clientChan <- []byte(heartbeat):
	default:
	}
}
