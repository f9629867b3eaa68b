package websocket

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages from the clients
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	logger    *logrus.Logger
	collector *metrics.Collector

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Statistics
	stats *HubStats
}

// HubStats contains hub statistics
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logrus.Logger, collector *metrics.Collector) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		collector:  collector,
		stats: &HubStats{
			LastActivity: time.Now(),
		},
	}
}

// Run starts the hub and handles client registration/unregistration and broadcasting
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.updateStats()
			h.sendHeartbeat()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	h.collector.ObserveWebSocketConnection(true)

	remoteAddr := ""
	if client.conn != nil {
		remoteAddr = client.conn.RemoteAddr().String()
	}
	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"remote_addr":       remoteAddr,
		"connected_clients": len(h.clients),
	}).Info("WebSocket client connected")

	// Send welcome message
	welcome := Message{
		Type: MessageTypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
			"timestamp": time.Now().UTC(),
		},
	}
	select {
	case client.send <- welcome.ToJSON():
	default:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.stats.ConnectedClients = len(h.clients)
		h.stats.LastActivity = time.Now()
		h.collector.ObserveWebSocketConnection(false)

		h.logger.WithFields(logrus.Fields{
			"client_id":         client.ID,
			"connected_clients": len(h.clients),
		}).Info("WebSocket client disconnected")
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()

	var stalled []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			stalled = append(stalled, client)
		}
	}

	// Runs on Run's own goroutine: a send to h.unregister here would
	// have no receiver and freeze the hub, so drop stalled clients
	// directly.
	for _, client := range stalled {
		h.unregisterClient(client)
	}

	h.logger.WithFields(logrus.Fields{
		"message_size": len(message),
		"clients_sent": len(clients) - len(stalled),
	}).Debug("Message broadcasted to WebSocket clients")
}

func (h *Hub) updateStats() {
	h.mu.Lock()
	h.stats.ConnectedClients = len(h.clients)
	h.mu.Unlock()
}

func (h *Hub) noteMessageReceived() {
	h.mu.Lock()
	h.stats.MessagesReceived++
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()
}

func (h *Hub) sendHeartbeat() {
	heartbeat := Message{
		Type: MessageTypeHeartbeat,
		Data: map[string]interface{}{
			"timestamp": time.Now().UTC(),
			"clients":   h.stats.ConnectedClients,
		},
	}

	h.BroadcastToAll(heartbeat)
}

// BroadcastToAll broadcasts a message to all connected clients
func (h *Hub) BroadcastToAll(message Message) {
	data := message.ToJSON()
	select {
	case h.broadcast <- data:
		h.collector.ObserveWebSocketMessage(message.Type, "outbound")
	default:
		h.logger.Warn("Broadcast channel is full, message dropped")
	}
}

// BroadcastToRoom delivers a message to clients subscribed to the room.
// Clients with no room subscriptions receive every room's messages.
func (h *Hub) BroadcastToRoom(roomID string, message Message) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.IsInRoom(roomID) || client.SubscriptionCount() == 0 {
			clients = append(clients, client)
		}
	}
	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()

	count := 0
	data := message.ToJSON()
	var stalled []*Client

	for _, client := range clients {
		select {
		case client.send <- data:
			count++
		default:
			stalled = append(stalled, client)
		}
	}
	for _, client := range stalled {
		h.unregisterClient(client)
	}

	h.collector.ObserveWebSocketMessage(message.Type, "outbound")
	h.logger.WithFields(logrus.Fields{
		"room_id":      roomID,
		"clients_sent": count,
		"message_type": message.Type,
	}).Debug("Message broadcasted to room clients")
}

// BroadcastDeviceUpdated pushes a committed device update. Updates for
// a device assigned to a room go through the room routing so subscribed
// clients only see their rooms; unassigned devices go to everyone.
func (h *Hub) BroadcastDeviceUpdated(d *devices.Device) {
	msg := DeviceUpdatedMessage(d)
	if d.RoomID == "" {
		h.BroadcastToAll(msg)
		return
	}
	h.BroadcastToRoom(d.RoomID, msg)
}

// BroadcastContextChanged pushes a committed context transition.
func (h *Hub) BroadcastContextChanged(change automation.ContextChange) {
	h.BroadcastToAll(ContextChangedMessage(string(change.Dimension), change.OldValue, change.NewValue))
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() *HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	statsCopy := *h.stats
	statsCopy.ConnectedClients = len(h.clients)
	return &statsCopy
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
