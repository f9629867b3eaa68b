package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

// contextView is the wire form of the ambient context snapshot.
type contextView struct {
	TimeOfDay            string  `json:"time_of_day"`
	UserPresence         bool    `json:"user_presence"`
	OutsideTemp          float64 `json:"outside_temp"`
	SimulationIntervalMs int64   `json:"simulation_interval_ms"`
}

func toContextView(snapshot automation.Context) contextView {
	return contextView{
		TimeOfDay:            string(snapshot.TimeOfDay),
		UserPresence:         snapshot.UserPresence,
		OutsideTemp:          snapshot.OutsideTemp,
		SimulationIntervalMs: snapshot.SimulationInterval.Milliseconds(),
	}
}

// GetContext returns the current ambient context.
func (h *Handlers) GetContext(c *gin.Context) {
	utils.SendSuccess(c, toContextView(h.store.Get()))
}

type contextUpdateRequest struct {
	Value interface{} `json:"value"`
}

// UpdateContext sets one context dimension. The response carries the
// new snapshot and every device the resulting automation pass updated.
func (h *Handlers) UpdateContext(c *gin.Context) {
	var req contextUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		updated []*devices.Device
		err     error
	)

	dimension := automation.Dimension(c.Param("dimension"))
	switch dimension {
	case automation.DimensionTimeOfDay:
		value, ok := req.Value.(string)
		if !ok {
			utils.SendError(c, http.StatusBadRequest, "time_of_day requires a string value")
			return
		}
		updated, err = h.store.SetTimeOfDay(automation.TimeOfDay(value))

	case automation.DimensionUserPresence:
		value, ok := req.Value.(bool)
		if !ok {
			utils.SendError(c, http.StatusBadRequest, "user_presence requires a boolean value")
			return
		}
		updated, err = h.store.SetUserPresence(value)

	case automation.DimensionOutsideTemperature:
		value, ok := req.Value.(float64)
		if !ok {
			utils.SendError(c, http.StatusBadRequest, "outside_temperature requires a numeric value")
			return
		}
		updated, err = h.store.SetOutsideTemp(value)

	case automation.DimensionSimulationInterval:
		value, ok := req.Value.(float64)
		if !ok {
			utils.SendError(c, http.StatusBadRequest, "simulation_interval requires a numeric value in milliseconds")
			return
		}
		err = h.store.SetSimulationInterval(time.Duration(value) * time.Millisecond)

	default:
		utils.SendError(c, http.StatusBadRequest, "Unknown context dimension: "+c.Param("dimension"))
		return
	}

	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	h.persistDevices(updated)

	utils.SendSuccess(c, gin.H{
		"context":         toContextView(h.store.Get()),
		"updated_devices": updated,
	})
}
