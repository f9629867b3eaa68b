package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/websocket"
	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

// GetRoutines lists all routines.
func (h *Handlers) GetRoutines(c *gin.Context) {
	utils.SendSuccess(c, h.engine.ListRoutines())
}

// GetRoutine returns one routine.
func (h *Handlers) GetRoutine(c *gin.Context) {
	routine, err := h.engine.GetRoutine(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, routine)
}

// CreateRoutine registers a routine.
func (h *Handlers) CreateRoutine(c *gin.Context) {
	var routine automation.Routine
	if err := c.ShouldBindJSON(&routine); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.engine.AddRoutine(&routine); err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistRoutine(&routine)
	h.hub.BroadcastToAll(websocket.RoutineUpdatedMessage(routine.ID, "created"))
	utils.SendCreated(c, &routine)
}

// UpdateRoutine replaces a routine definition.
func (h *Handlers) UpdateRoutine(c *gin.Context) {
	var routine automation.Routine
	if err := c.ShouldBindJSON(&routine); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	routine.ID = c.Param("id")

	if err := h.engine.UpdateRoutine(&routine); err != nil {
		utils.SendAppError(c, err)
		return
	}

	updated, err := h.engine.GetRoutine(routine.ID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistRoutine(updated)
	h.hub.BroadcastToAll(websocket.RoutineUpdatedMessage(routine.ID, "updated"))
	utils.SendSuccess(c, updated)
}

// DeleteRoutine removes a routine.
func (h *Handlers) DeleteRoutine(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.RemoveRoutine(id); err != nil {
		utils.SendAppError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.repos.Routine.Delete(ctx, id); err != nil {
		h.logger.WithError(err).WithField("routine_id", id).Warn("Failed to delete persisted routine")
	}

	h.hub.BroadcastToAll(websocket.RoutineUpdatedMessage(id, "deleted"))
	utils.SendSuccess(c, gin.H{"deleted": id})
}

type enableRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetRoutineEnabled toggles a routine without replacing its definition.
func (h *Handlers) SetRoutineEnabled(c *gin.Context) {
	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id := c.Param("id")
	if err := h.engine.SetRoutineEnabled(id, *req.Enabled); err != nil {
		utils.SendAppError(c, err)
		return
	}

	routine, err := h.engine.GetRoutine(id)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistRoutine(routine)
	utils.SendSuccess(c, routine)
}

// GetPreferences lists all preferences.
func (h *Handlers) GetPreferences(c *gin.Context) {
	utils.SendSuccess(c, h.engine.ListPreferences())
}

// GetPreference returns one preference.
func (h *Handlers) GetPreference(c *gin.Context) {
	preference, err := h.engine.GetPreference(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, preference)
}

// CreatePreference registers a preference.
func (h *Handlers) CreatePreference(c *gin.Context) {
	var preference automation.Preference
	if err := c.ShouldBindJSON(&preference); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.engine.AddPreference(&preference); err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistPreference(&preference)
	utils.SendCreated(c, &preference)
}

// DeletePreference removes a preference.
func (h *Handlers) DeletePreference(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.RemovePreference(id); err != nil {
		utils.SendAppError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.repos.Preference.Delete(ctx, id); err != nil {
		h.logger.WithError(err).WithField("preference_id", id).Warn("Failed to delete persisted preference")
	}

	utils.SendSuccess(c, gin.H{"deleted": id})
}

// GetQuickActions lists all quick actions.
func (h *Handlers) GetQuickActions(c *gin.Context) {
	utils.SendSuccess(c, h.engine.ListQuickActions())
}

// CreateQuickAction registers a quick action.
func (h *Handlers) CreateQuickAction(c *gin.Context) {
	var action automation.QuickAction
	if err := c.ShouldBindJSON(&action); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.engine.AddQuickAction(&action); err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistQuickAction(&action)
	utils.SendCreated(c, &action)
}

// DeleteQuickAction removes a quick action.
func (h *Handlers) DeleteQuickAction(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.RemoveQuickAction(id); err != nil {
		utils.SendAppError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.repos.QuickAction.Delete(ctx, id); err != nil {
		h.logger.WithError(err).WithField("quick_action_id", id).Warn("Failed to delete persisted quick action")
	}

	utils.SendSuccess(c, gin.H{"deleted": id})
}

// ExecuteQuickAction runs a quick action's list immediately.
func (h *Handlers) ExecuteQuickAction(c *gin.Context) {
	updated, err := h.engine.ExecuteQuickAction(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistDevices(updated)
	utils.SendSuccess(c, gin.H{"updated_devices": updated})
}
