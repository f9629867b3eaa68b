package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

// GetSimulationStatus reports the simulation clock state.
func (h *Handlers) GetSimulationStatus(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"running":     h.clock.Running(),
		"interval_ms": h.store.Get().SimulationInterval.Milliseconds(),
	})
}

// StartSimulation starts the simulation clock. Starting a running clock
// is a no-op.
func (h *Handlers) StartSimulation(c *gin.Context) {
	h.clock.Start()
	h.GetSimulationStatus(c)
}

// StopSimulation halts the simulation clock.
func (h *Handlers) StopSimulation(c *gin.Context) {
	h.clock.Stop()
	h.GetSimulationStatus(c)
}
