package websocket

import (
	"encoding/json"
	"time"
)

// Message types pushed to connected clients.
const (
	MessageTypeDeviceUpdated  = "device_updated"
	MessageTypeContextChanged = "context_changed"
	MessageTypeRoomUpdated    = "room_updated"
	MessageTypeRoutineUpdated = "routine_updated"
	MessageTypeConnection     = "connection"
	MessageTypeHeartbeat      = "heartbeat"
)

// Message represents a WebSocket message
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() []byte {
	m.Timestamp = time.Now().UTC()
	data, _ := json.Marshal(m)
	return data
}

// DeviceUpdatedMessage creates a message for a committed device update
func DeviceUpdatedMessage(device interface{}) Message {
	return Message{
		Type: MessageTypeDeviceUpdated,
		Data: map[string]interface{}{
			"device": device,
		},
	}
}

// ContextChangedMessage creates a message for a context transition
func ContextChangedMessage(dimension string, oldValue, newValue interface{}) Message {
	return Message{
		Type: MessageTypeContextChanged,
		Data: map[string]interface{}{
			"dimension": dimension,
			"old_value": oldValue,
			"new_value": newValue,
		},
	}
}

// RoomUpdatedMessage creates a message for room lifecycle events
func RoomUpdatedMessage(roomID, roomName, action string) Message {
	return Message{
		Type: MessageTypeRoomUpdated,
		Data: map[string]interface{}{
			"room_id":   roomID,
			"room_name": roomName,
			"action":    action, // "created", "updated", "deleted"
		},
	}
}

// RoutineUpdatedMessage creates a message for routine lifecycle events
func RoutineUpdatedMessage(routineID, action string) Message {
	return Message{
		Type: MessageTypeRoutineUpdated,
		Data: map[string]interface{}{
			"routine_id": routineID,
			"action":     action,
		},
	}
}
