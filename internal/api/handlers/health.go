package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hestia-ops/hestia-backend-go/pkg/utils"
)

// Health reports process health alongside basic host resource usage
// and the simulation status.
func (h *Handlers) Health(c *gin.Context) {
	system := gin.H{}

	var cpuPercent, memPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
		system["cpu_percent"] = cpuPercent
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		memPercent = vmem.UsedPercent
		system["memory_percent"] = memPercent
	}
	h.collector.SetSystemResources(cpuPercent, memPercent)

	snapshot := h.store.Get()

	utils.SendSuccess(c, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"system":         system,
		"devices":        len(h.registry.List()),
		"websocket":      h.hub.GetStats(),
		"simulation": gin.H{
			"running":     h.clock.Running(),
			"interval_ms": snapshot.SimulationInterval.Milliseconds(),
		},
	})
}
