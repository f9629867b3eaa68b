package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes the simulation core's Prometheus metrics. A nil
// collector is valid and records nothing, which keeps instrumentation
// out of unit tests.
type Collector struct {
	enabled bool

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	websocketConnections prometheus.Gauge
	websocketMessages    *prometheus.CounterVec

	// Device metrics
	deviceCount  *prometheus.GaugeVec
	actionsTotal *prometheus.CounterVec

	// Automation metrics
	routineCount     prometheus.Gauge
	routineRuns      *prometheus.CounterVec
	automationPasses prometheus.Counter
	passDuration     prometheus.Histogram

	// Simulation metrics
	simulationTicks prometheus.Counter

	// System metrics
	systemCPU    prometheus.Gauge
	systemMemory prometheus.Gauge
}

// NewCollector registers all metrics under the given prefix.
func NewCollector(prefix string) *Collector {
	if prefix == "" {
		prefix = "hestia"
	}

	c := &Collector{enabled: true}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	c.websocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"type", "direction"},
	)

	c.deviceCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_devices",
			Help: "Number of registered devices by type",
		},
		[]string{"device_type"},
	)

	c.actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_device_actions_total",
			Help: "Total number of dispatched device actions",
		},
		[]string{"action", "status"},
	)

	c.routineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_routines",
			Help: "Number of registered routines",
		},
	)

	c.routineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_routine_runs_total",
			Help: "Total number of routine executions",
		},
		[]string{"routine_id"},
	)

	c.automationPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_automation_passes_total",
			Help: "Total number of automation passes",
		},
	)

	c.passDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_automation_pass_duration_seconds",
			Help:    "Automation pass duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	c.simulationTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_simulation_ticks_total",
			Help: "Total number of simulation clock ticks",
		},
	)

	c.systemCPU = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_system_cpu_usage_percent",
			Help: "System CPU usage percentage",
		},
	)

	c.systemMemory = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_system_memory_usage_percent",
			Help: "System memory usage percentage",
		},
	)

	return c
}

// ObserveHTTPRequest records one served HTTP request.
func (c *Collector) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveWebSocketConnection tracks the connection gauge.
func (c *Collector) ObserveWebSocketConnection(connected bool) {
	if c == nil || !c.enabled {
		return
	}
	if connected {
		c.websocketConnections.Inc()
	} else {
		c.websocketConnections.Dec()
	}
}

// ObserveWebSocketMessage counts one websocket message.
func (c *Collector) ObserveWebSocketMessage(messageType, direction string) {
	if c == nil || !c.enabled {
		return
	}
	c.websocketMessages.WithLabelValues(messageType, direction).Inc()
}

// SetDeviceCount sets the registered device gauge for one type.
func (c *Collector) SetDeviceCount(deviceType string, count int) {
	if c == nil || !c.enabled {
		return
	}
	c.deviceCount.WithLabelValues(deviceType).Set(float64(count))
}

// ObserveAction counts one dispatched action with its outcome.
func (c *Collector) ObserveAction(action, status string) {
	if c == nil || !c.enabled {
		return
	}
	c.actionsTotal.WithLabelValues(action, status).Inc()
}

// SetRoutineCount sets the registered routine gauge.
func (c *Collector) SetRoutineCount(count int) {
	if c == nil || !c.enabled {
		return
	}
	c.routineCount.Set(float64(count))
}

// ObserveRoutineRun counts one routine execution.
func (c *Collector) ObserveRoutineRun(routineID string) {
	if c == nil || !c.enabled {
		return
	}
	c.routineRuns.WithLabelValues(routineID).Inc()
}

// ObserveAutomationPass records one completed automation pass.
func (c *Collector) ObserveAutomationPass(duration time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	c.automationPasses.Inc()
	c.passDuration.Observe(duration.Seconds())
}

// ObserveSimulationTick counts one simulation clock tick.
func (c *Collector) ObserveSimulationTick() {
	if c == nil || !c.enabled {
		return
	}
	c.simulationTicks.Inc()
}

// SetSystemResources sets the CPU and memory gauges.
func (c *Collector) SetSystemResources(cpu, memory float64) {
	if c == nil || !c.enabled {
		return
	}
	c.systemCPU.Set(cpu)
	c.systemMemory.Set(memory)
}
