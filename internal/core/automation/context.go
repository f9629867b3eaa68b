package automation

import (
	"sync"
	"time"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimeOfDay is the coarse daypart dimension of the ambient context.
type TimeOfDay string

const (
	Morning   TimeOfDay = "MORNING"
	Afternoon TimeOfDay = "AFTERNOON"
	Evening   TimeOfDay = "EVENING"
	Night     TimeOfDay = "NIGHT"
)

// ValidTimeOfDay reports whether s names a known daypart.
func ValidTimeOfDay(s string) bool {
	switch TimeOfDay(s) {
	case Morning, Afternoon, Evening, Night:
		return true
	}
	return false
}

// Dimension identifies one mutable axis of the ambient context.
type Dimension string

const (
	DimensionTimeOfDay          Dimension = "time_of_day"
	DimensionUserPresence       Dimension = "user_presence"
	DimensionOutsideTemperature Dimension = "outside_temperature"
	DimensionSimulationInterval Dimension = "simulation_interval"
)

// MinSimulationInterval is the floor for the simulation clock period.
const MinSimulationInterval = 500 * time.Millisecond

// Context is an immutable snapshot of the ambient environment. Every
// evaluation pass works on one snapshot, never on live store fields.
type Context struct {
	TimeOfDay          TimeOfDay     `json:"time_of_day"`
	UserPresence       bool          `json:"user_presence"`
	OutsideTemp        float64       `json:"outside_temp"`
	SimulationInterval time.Duration `json:"simulation_interval"`
}

// ContextChange describes one committed transition of a context
// dimension.
type ContextChange struct {
	Dimension Dimension   `json:"dimension"`
	OldValue  interface{} `json:"old_value"`
	NewValue  interface{} `json:"new_value"`
}

// ChangeListener consumes a context change synchronously and returns
// the devices its automation pass updated.
type ChangeListener func(change ContextChange, snapshot Context) []*devices.Device

// IntervalListener is notified when the simulation interval changes.
type IntervalListener func(interval time.Duration)

// ContextStore is the process-wide singleton holding the ambient
// context. Setters serialize on the store; change fan-out to listeners
// completes before a setter returns, so callers observe automation side
// effects as part of the same logical operation.
type ContextStore struct {
	mu                sync.Mutex
	ctx               Context
	listeners         []ChangeListener
	intervalListeners []IntervalListener
	logger            *logrus.Logger
}

// NewContextStore creates the store with startup defaults.
func NewContextStore(logger *logrus.Logger, simulationInterval time.Duration) *ContextStore {
	if simulationInterval < MinSimulationInterval {
		simulationInterval = MinSimulationInterval
	}
	return &ContextStore{
		ctx: Context{
			TimeOfDay:          Morning,
			UserPresence:       true,
			OutsideTemp:        18,
			SimulationInterval: simulationInterval,
		},
		logger: logger,
	}
}

// Subscribe registers a listener for context-change events. Listeners
// run synchronously inside the mutating setter, in registration order.
func (s *ContextStore) Subscribe(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SubscribeInterval registers a listener for simulation interval
// changes.
func (s *ContextStore) SubscribeInterval(l IntervalListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervalListeners = append(s.intervalListeners, l)
}

// Get returns a snapshot of the current context.
func (s *ContextStore) Get() Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// SetTimeOfDay commits a new daypart and runs the automation pass. A
// call that does not change the value is a no-op transition and emits
// nothing.
func (s *ContextStore) SetTimeOfDay(t TimeOfDay) ([]*devices.Device, error) {
	if !ValidTimeOfDay(string(t)) {
		return nil, errors.InvalidArgumentf("invalid time of day: %s", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.TimeOfDay == t {
		return nil, nil
	}

	old := s.ctx.TimeOfDay
	s.ctx.TimeOfDay = t

	return s.emit(ContextChange{
		Dimension: DimensionTimeOfDay,
		OldValue:  string(old),
		NewValue:  string(t),
	}), nil
}

// SetUserPresence commits the presence flag and runs the automation
// pass on an actual change.
func (s *ContextStore) SetUserPresence(present bool) ([]*devices.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.UserPresence == present {
		return nil, nil
	}

	old := s.ctx.UserPresence
	s.ctx.UserPresence = present

	return s.emit(ContextChange{
		Dimension: DimensionUserPresence,
		OldValue:  old,
		NewValue:  present,
	}), nil
}

// SetOutsideTemp commits the outside temperature and runs the
// automation pass on an actual change.
func (s *ContextStore) SetOutsideTemp(temp float64) ([]*devices.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.OutsideTemp == temp {
		return nil, nil
	}

	old := s.ctx.OutsideTemp
	s.ctx.OutsideTemp = temp

	return s.emit(ContextChange{
		Dimension: DimensionOutsideTemperature,
		OldValue:  old,
		NewValue:  temp,
	}), nil
}

// SetSimulationInterval updates the clock period. Intervals below the
// 500 ms floor are rejected with InvalidArgument. Interval changes do
// not arm routines; they only restart the simulation clock.
func (s *ContextStore) SetSimulationInterval(interval time.Duration) error {
	if interval < MinSimulationInterval {
		return errors.InvalidArgumentf("simulation interval must be at least %v, got %v", MinSimulationInterval, interval)
	}

	s.mu.Lock()
	if s.ctx.SimulationInterval == interval {
		s.mu.Unlock()
		return nil
	}

	old := s.ctx.SimulationInterval
	s.ctx.SimulationInterval = interval
	listeners := append([]IntervalListener(nil), s.intervalListeners...)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"old_interval": old,
		"new_interval": interval,
	}).Info("Simulation interval changed")

	// Fan-out happens outside the lock: the clock restart waits for an
	// in-flight tick, and ticks read the store.
	for _, l := range listeners {
		l(interval)
	}

	return nil
}

// emit fans a committed change out to listeners while still holding the
// store lock, keeping the pass atomic with the setter. Callers hold
// s.mu.
func (s *ContextStore) emit(change ContextChange) []*devices.Device {
	snapshot := s.ctx

	s.logger.WithFields(logrus.Fields{
		"dimension": change.Dimension,
		"old_value": change.OldValue,
		"new_value": change.NewValue,
	}).Debug("Context changed")

	var updated []*devices.Device
	for _, l := range s.listeners {
		updated = append(updated, l(change, snapshot)...)
	}
	return updated
}
