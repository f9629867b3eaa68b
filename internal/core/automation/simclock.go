package automation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
	"github.com/sirupsen/logrus"
)

// SensorTemperatureStep bounds how far a sensor reading drifts toward
// the outside temperature per tick.
const SensorTemperatureStep = 0.2

// SimClock drives the passive environment: on every tick it drifts
// thermostat and AC temperatures toward their targets, walks sensor
// readings, and resamples outlet power draw, then hands the engine a
// preference reconciliation pass. The ticker restarts atomically when
// the simulation interval changes.
type SimClock struct {
	registry   *devices.Registry
	dispatcher *devices.Dispatcher
	store      *ContextStore
	engine     *Engine
	collector  *metrics.Collector
	logger     *logrus.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	// broadcaster has its own lock: Stop holds mu while draining an
	// in-flight tick, and ticks broadcast.
	bMu         sync.Mutex
	broadcaster Broadcaster

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSimClock creates the clock and subscribes it to interval changes
// on the context store.
func NewSimClock(registry *devices.Registry, dispatcher *devices.Dispatcher, store *ContextStore, engine *Engine, collector *metrics.Collector, logger *logrus.Logger) *SimClock {
	c := &SimClock{
		registry:   registry,
		dispatcher: dispatcher,
		store:      store,
		engine:     engine,
		collector:  collector,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	store.SubscribeInterval(c.restart)
	return c
}

// SetBroadcaster wires the push channel for tick-driven device updates.
func (c *SimClock) SetBroadcaster(b Broadcaster) {
	c.bMu.Lock()
	defer c.bMu.Unlock()
	c.broadcaster = b
}

// Start launches the tick loop at the store's current interval. Starting
// a running clock is a no-op.
func (c *SimClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.startLocked(c.store.Get().SimulationInterval)
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
func (c *SimClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether the tick loop is active.
func (c *SimClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// restart replaces the ticker with one at the new interval. A stopped
// clock stays stopped.
func (c *SimClock) restart(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.stopLocked()
	c.startLocked(interval)

	c.logger.WithField("interval", interval).Info("Simulation clock restarted")
}

// startLocked spawns the loop goroutine. Callers hold c.mu.
func (c *SimClock) startLocked(interval time.Duration) {
	if interval < MinSimulationInterval {
		interval = MinSimulationInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.run(ctx, interval, c.done)

	c.logger.WithField("interval", interval).Info("Simulation clock started")
}

// stopLocked cancels the loop and waits for it to drain. Callers hold
// c.mu.
func (c *SimClock) stopLocked() {
	if !c.running {
		return
	}
	c.cancel()
	<-c.done
	c.running = false

	c.logger.Info("Simulation clock stopped")
}

func (c *SimClock) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick executes one simulation step: drift every passive device, then
// run the engine's preference pass so desired states keep holding
// against the drifted readings.
func (c *SimClock) Tick() {
	snapshot := c.store.Get()

	for _, d := range c.registry.List() {
		updated, changed := c.driftDevice(d, snapshot)
		if !changed {
			continue
		}
		c.broadcastDevice(updated)
	}

	c.engine.OnStateChange(snapshot)
	c.collector.ObserveSimulationTick()
}

// driftDevice applies one tick of passive evolution to a single device.
// Lights and blinds have no passive behavior.
func (c *SimClock) driftDevice(d *devices.Device, snapshot Context) (*devices.Device, bool) {
	var (
		updated *devices.Device
		changed bool
		err     error
	)

	switch state := d.State.(type) {
	case *devices.ThermostatState:
		target := snapshot.OutsideTemp
		if state.Mode != devices.ModeOff {
			target = state.TargetTemp
		}
		if state.Temperature == target {
			return nil, false
		}
		updated, err = c.registry.Mutate(d.ID, func(cur *devices.Device) (devices.DeviceState, error) {
			next := cur.State.Clone().(*devices.ThermostatState)
			goal := snapshot.OutsideTemp
			if next.Mode != devices.ModeOff {
				goal = next.TargetTemp
			}
			next.Temperature = devices.StepToward(next.Temperature, goal, devices.TemperatureStep)
			return next, nil
		})
		changed = true

	case *devices.ACState:
		target := snapshot.OutsideTemp
		if state.IsOn && state.Mode != devices.ModeOff {
			target = state.TargetTemp
		}
		if state.Temperature == target {
			return nil, false
		}
		updated, err = c.registry.Mutate(d.ID, func(cur *devices.Device) (devices.DeviceState, error) {
			next := cur.State.Clone().(*devices.ACState)
			goal := snapshot.OutsideTemp
			if next.IsOn && next.Mode != devices.ModeOff {
				goal = next.TargetTemp
			}
			next.Temperature = devices.StepToward(next.Temperature, goal, devices.TemperatureStep)
			return next, nil
		})
		changed = true

	case *devices.SensorState:
		updated, err = c.registry.Mutate(d.ID, func(cur *devices.Device) (devices.DeviceState, error) {
			next := cur.State.Clone().(*devices.SensorState)
			next.Temperature = devices.StepToward(next.Temperature, snapshot.OutsideTemp, SensorTemperatureStep)
			next.Humidity = clampHumidity(next.Humidity + c.jitter(2))
			return next, nil
		})
		changed = true

	case *devices.OutletState:
		if !state.IsOn {
			return nil, false
		}
		updated, err = c.registry.Mutate(d.ID, func(cur *devices.Device) (devices.DeviceState, error) {
			next := cur.State.Clone().(*devices.OutletState)
			if next.IsOn {
				next.PowerUsage = c.dispatcher.SamplePowerDraw(true)
			}
			return next, nil
		})
		changed = true

	default:
		return nil, false
	}

	if err != nil {
		c.logger.WithError(err).WithField("device_id", d.ID).Warn("Simulation drift failed")
		return nil, false
	}
	return updated, changed
}

// jitter returns a uniform value in [-amplitude, amplitude].
func (c *SimClock) jitter(amplitude float64) float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return (c.rng.Float64()*2 - 1) * amplitude
}

func clampHumidity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (c *SimClock) broadcastDevice(d *devices.Device) {
	c.bMu.Lock()
	b := c.broadcaster
	c.bMu.Unlock()
	if b != nil {
		b.BroadcastDeviceUpdated(d)
	}
}
