package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

// GetDevices lists devices, optionally filtered by room or type.
func (h *Handlers) GetDevices(c *gin.Context) {
	var list []*devices.Device

	switch {
	case c.Query("room_id") != "":
		list = h.registry.ListByRoom(c.Query("room_id"))
	case c.Query("type") != "":
		deviceType := c.Query("type")
		if !devices.ValidDeviceType(deviceType) {
			utils.SendError(c, http.StatusBadRequest, "Unknown device type: "+deviceType)
			return
		}
		list = h.registry.ListByType(devices.DeviceType(deviceType))
	default:
		list = h.registry.List()
	}

	utils.SendSuccess(c, list)
}

// GetDevice returns a single device with its supported actions.
func (h *Handlers) GetDevice(c *gin.Context) {
	device, err := h.registry.Get(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, device)
}

type createDeviceRequest struct {
	ID     string          `json:"id"`
	Name   string          `json:"name" binding:"required"`
	Type   string          `json:"type" binding:"required"`
	RoomID string          `json:"room_id"`
	State  json.RawMessage `json:"state"`
}

// CreateDevice registers a new device, defaulting state from the type.
func (h *Handlers) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !devices.ValidDeviceType(req.Type) {
		utils.SendError(c, http.StatusBadRequest, "Unknown device type: "+req.Type)
		return
	}

	device := &devices.Device{
		ID:     req.ID,
		Name:   req.Name,
		Type:   devices.DeviceType(req.Type),
		RoomID: req.RoomID,
	}
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if len(req.State) > 0 {
		state, err := devices.UnmarshalState(device.Type, req.State)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, "Invalid initial state: "+err.Error())
			return
		}
		device.State = state
	}

	if err := h.registry.Add(device); err != nil {
		utils.SendAppError(c, err)
		return
	}

	created, err := h.registry.Get(device.ID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistDevice(created)
	h.refreshDeviceMetrics()
	utils.SendCreated(c, created)
}

// DeleteDevice removes a device from the registry and storage.
func (h *Handlers) DeleteDevice(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Remove(id); err != nil {
		utils.SendAppError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.repos.Device.Delete(ctx, id); err != nil {
		h.logger.WithError(err).WithField("device_id", id).Warn("Failed to delete persisted device")
	}

	h.refreshDeviceMetrics()
	utils.SendSuccess(c, gin.H{"deleted": id})
}

type assignRoomRequest struct {
	RoomID string `json:"room_id"`
}

// AssignDeviceRoom moves a device to a room (empty room_id unassigns).
func (h *Handlers) AssignDeviceRoom(c *gin.Context) {
	var req assignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.RoomID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if _, err := h.repos.Room.GetByID(ctx, req.RoomID); err != nil {
			utils.SendAppError(c, err)
			return
		}
	}

	device, err := h.registry.AssignRoom(c.Param("id"), req.RoomID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistDevice(device)
	utils.SendSuccess(c, device)
}

type deviceActionRequest struct {
	ActionType string                 `json:"action_type" binding:"required"`
	Payload    map[string]interface{} `json:"payload"`
}

// ExecuteDeviceAction dispatches a user action against a device and
// returns the full updated record.
func (h *Handlers) ExecuteDeviceAction(c *gin.Context) {
	var req deviceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.engine.ExecuteAction(c.Param("id"), devices.ActionType(req.ActionType), req.Payload)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistDevice(updated)
	utils.SendSuccess(c, updated)
}
