package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/database/models"
	"github.com/hestia-ops/hestia-backend-go/internal/websocket"
	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

type roomRequest struct {
	Name        string `json:"name" binding:"required"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// roomView decorates a stored room with the on/off flag derived from
// its devices at read time.
type roomView struct {
	*models.Room
	IsOn bool `json:"is_on"`
}

func (h *Handlers) toRoomView(room *models.Room) roomView {
	return roomView{
		Room: room,
		IsOn: devices.RoomIsOn(h.registry.ListByRoom(room.ID)),
	}
}

// GetRooms lists all rooms.
func (h *Handlers) GetRooms(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()

	rooms, err := h.repos.Room.GetAll(ctx)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	views := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, h.toRoomView(room))
	}
	utils.SendSuccess(c, views)
}

// GetRoom returns one room.
func (h *Handlers) GetRoom(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()

	room, err := h.repos.Room.GetByID(ctx, c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, h.toRoomView(room))
}

// GetRoomDevices lists the devices assigned to a room.
func (h *Handlers) GetRoomDevices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()

	if _, err := h.repos.Room.GetByID(ctx, c.Param("id")); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, h.registry.ListByRoom(c.Param("id")))
}

// CreateRoom creates a room.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	room := &models.Room{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Icon:        sql.NullString{String: req.Icon, Valid: req.Icon != ""},
		Description: sql.NullString{String: req.Description, Valid: req.Description != ""},
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()
	if err := h.repos.Room.Create(ctx, room); err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.hub.BroadcastToAll(websocket.RoomUpdatedMessage(room.ID, room.Name, "created"))
	utils.SendCreated(c, h.toRoomView(room))
}

// UpdateRoom updates a room's metadata.
func (h *Handlers) UpdateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()

	room, err := h.repos.Room.GetByID(ctx, c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	room.Name = req.Name
	room.Icon = sql.NullString{String: req.Icon, Valid: req.Icon != ""}
	room.Description = sql.NullString{String: req.Description, Valid: req.Description != ""}
	if err := h.repos.Room.Update(ctx, room); err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.hub.BroadcastToAll(websocket.RoomUpdatedMessage(room.ID, room.Name, "updated"))
	utils.SendSuccess(c, h.toRoomView(room))
}

// DeleteRoom removes a room and unassigns its devices.
func (h *Handlers) DeleteRoom(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), persistTimeout)
	defer cancel()
	if err := h.repos.Room.Delete(ctx, id); err != nil {
		utils.SendAppError(c, err)
		return
	}

	// Devices keep existing without a room assignment.
	for _, d := range h.registry.ListByRoom(id) {
		if updated, err := h.registry.AssignRoom(d.ID, ""); err == nil {
			h.persistDevice(updated)
		}
	}

	h.hub.BroadcastToAll(websocket.RoomUpdatedMessage(id, "", "deleted"))
	utils.SendSuccess(c, gin.H{"deleted": id})
}
