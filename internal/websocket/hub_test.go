package websocket

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testClient builds a conn-less client wired to the hub. A zero buffer
// makes every send stall, standing in for a peer that stopped reading.
func testClient(hub *Hub, id string, buffer int) *Client {
	return &Client{
		ID:     id,
		send:   make(chan []byte, buffer),
		hub:    hub,
		logger: hub.logger,
		rooms:  make(map[string]bool),
	}
}

func TestHub_BroadcastDropsStalledClient(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	stalled := testClient(hub, "stalled", 0)
	healthy := testClient(hub, "healthy", 4)
	hub.clients[stalled] = true
	hub.clients[healthy] = true

	done := make(chan struct{})
	go func() {
		hub.broadcastMessage([]byte(`{"type":"heartbeat"}`))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast did not return with a stalled client present")
	}

	// The stalled client is dropped and its channel closed; the healthy
	// client still got the message.
	assert.Equal(t, 1, hub.GetClientCount())
	_, open := <-stalled.send
	assert.False(t, open)

	select {
	case msg := <-healthy.send:
		assert.Contains(t, string(msg), "heartbeat")
	default:
		t.Fatal("healthy client received nothing")
	}
}

func TestHub_RunStaysLiveAfterStalledBroadcast(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	go hub.Run()

	register := func(c *Client) {
		t.Helper()
		select {
		case hub.register <- c:
		case <-time.After(time.Second):
			t.Fatal("hub stopped accepting registrations")
		}
	}

	register(testClient(hub, "stalled", 0))
	hub.BroadcastToAll(Message{Type: MessageTypeHeartbeat, Data: map[string]interface{}{}})

	// The hub must keep serving registrations after dropping the
	// stalled client.
	register(testClient(hub, "late", 4))
	assert.Eventually(t, func() bool {
		return hub.GetClientCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastDeviceUpdatedRoutesByRoom(t *testing.T) {
	hub := NewHub(testLogger(), nil)

	kitchen := testClient(hub, "kitchen", 4)
	kitchen.SubscribeToRoom("kitchen")
	bedroom := testClient(hub, "bedroom", 4)
	bedroom.SubscribeToRoom("bedroom")
	global := testClient(hub, "global", 4)

	hub.clients[kitchen] = true
	hub.clients[bedroom] = true
	hub.clients[global] = true

	hub.BroadcastDeviceUpdated(&devices.Device{
		ID:     "light-1",
		Type:   devices.TypeLight,
		RoomID: "kitchen",
		State:  &devices.LightState{IsOn: true, Brightness: 80},
	})

	assert.Len(t, kitchen.send, 1, "subscriber of the device's room receives the update")
	assert.Len(t, bedroom.send, 0, "subscriber of another room receives nothing")
	assert.Len(t, global.send, 1, "client without subscriptions receives everything")

	// Updates for unassigned devices go through the global broadcast.
	hub.BroadcastDeviceUpdated(&devices.Device{
		ID:    "light-2",
		Type:  devices.TypeLight,
		State: &devices.LightState{},
	})
	select {
	case msg := <-hub.broadcast:
		assert.Contains(t, string(msg), "light-2")
	default:
		t.Fatal("unassigned device update was not broadcast to all")
	}
}

func TestHub_StatsAccounting(t *testing.T) {
	hub := NewHub(testLogger(), nil)

	hub.noteMessageReceived()
	hub.noteMessageReceived()
	hub.broadcastMessage([]byte(`{}`))

	stats := hub.GetStats()
	require.NotNil(t, stats)
	assert.EqualValues(t, 2, stats.MessagesReceived)
	assert.EqualValues(t, 1, stats.MessagesSent)
	assert.False(t, stats.LastActivity.IsZero())
}
