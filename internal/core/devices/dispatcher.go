package devices

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TemperatureStep is how far a thermostat or AC temperature moves toward
// its target per adjustment, in degrees.
const TemperatureStep = 0.5

// Dispatcher validates an (action, payload) pair against a device's
// type contract and computes the new state. It never mutates the input
// device; callers commit the returned state through the registry.
type Dispatcher struct {
	logger *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDispatcher creates a dispatcher with its own power-draw sampler.
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Apply computes the state resulting from dispatching action against d.
// Unsupported actions fail with UnsupportedAction, malformed payloads
// with InvalidPayload. Out-of-range numeric fields are clamped, never
// rejected.
func (dp *Dispatcher) Apply(d *Device, action ActionType, payload map[string]interface{}) (DeviceState, error) {
	if !Supports(d.Type, action) {
		return nil, errors.UnsupportedActionf("device %s (%s) does not support %s", d.ID, d.Type, action)
	}

	switch d.Type {
	case TypeLight:
		return dp.applyLight(d.State.(*LightState), action, payload)
	case TypeThermostat:
		return dp.applyThermostat(d.State.(*ThermostatState), action, payload)
	case TypeSmartOutlet:
		return dp.applyOutlet(d.State.(*OutletState), action)
	case TypeSmartBlind:
		return dp.applyBlind(d.State.(*BlindState), action, payload)
	case TypeAirConditioner:
		return dp.applyAC(d.State.(*ACState), action, payload)
	default:
		// Sensors carry no supported actions, so Supports already
		// rejected everything that reaches here.
		return nil, errors.UnsupportedActionf("device type %s accepts no actions", d.Type)
	}
}

func (dp *Dispatcher) applyLight(state *LightState, action ActionType, payload map[string]interface{}) (DeviceState, error) {
	next := state.Clone().(*LightState)

	switch action {
	case ActionToggleOnOff:
		next.IsOn = !next.IsOn
	case ActionSetBrightness:
		v, err := numberField(payload, "brightness")
		if err != nil {
			return nil, err
		}
		next.Brightness = clampInt(int(v), BrightnessMin, BrightnessMax)
	}

	return next, nil
}

func (dp *Dispatcher) applyThermostat(state *ThermostatState, action ActionType, payload map[string]interface{}) (DeviceState, error) {
	next := state.Clone().(*ThermostatState)

	switch action {
	case ActionSetTemperature:
		v, err := numberField(payload, "targetTemp")
		if err != nil {
			return nil, err
		}
		next.TargetTemp = clampFloat(v, ThermostatTargetMin, ThermostatTargetMax)
		next.Temperature = StepToward(next.Temperature, next.TargetTemp, TemperatureStep)
	case ActionSetMode:
		mode, err := stringField(payload, "mode")
		if err != nil {
			return nil, err
		}
		if !ValidThermostatMode(mode) {
			return nil, errors.InvalidPayloadf("invalid thermostat mode: %s", mode)
		}
		next.Mode = ThermostatMode(mode)
	case ActionReadTemperature:
		// Pure read, no mutation.
	}

	return next, nil
}

func (dp *Dispatcher) applyOutlet(state *OutletState, action ActionType) (DeviceState, error) {
	next := state.Clone().(*OutletState)

	switch action {
	case ActionToggleOnOff:
		next.IsOn = !next.IsOn
		if !next.IsOn {
			next.PowerUsage = 0
		}
	case ActionReadPowerUsage:
		next.PowerUsage = dp.SamplePowerDraw(next.IsOn)
	}

	return next, nil
}

func (dp *Dispatcher) applyBlind(state *BlindState, action ActionType, payload map[string]interface{}) (DeviceState, error) {
	next := state.Clone().(*BlindState)

	switch action {
	case ActionSetPosition:
		v, err := numberField(payload, "position")
		if err != nil {
			return nil, err
		}
		next.Position = clampInt(int(v), PositionMin, PositionMax)
	case ActionOpen:
		next.Position = PositionMax
	case ActionClose:
		next.Position = PositionMin
	}

	return next, nil
}

func (dp *Dispatcher) applyAC(state *ACState, action ActionType, payload map[string]interface{}) (DeviceState, error) {
	next := state.Clone().(*ACState)

	switch action {
	case ActionToggleOnOff:
		next.IsOn = !next.IsOn
	case ActionSetTemperature:
		v, err := numberField(payload, "targetTemp")
		if err != nil {
			return nil, err
		}
		next.TargetTemp = clampFloat(v, ACTargetMin, ACTargetMax)
		next.Temperature = StepToward(next.Temperature, next.TargetTemp, TemperatureStep)
	case ActionSetMode:
		mode, err := stringField(payload, "mode")
		if err != nil {
			return nil, err
		}
		if !ValidThermostatMode(mode) {
			return nil, errors.InvalidPayloadf("invalid air conditioner mode: %s", mode)
		}
		next.Mode = ThermostatMode(mode)
	case ActionReadTemperature:
		// Pure read, no mutation.
	}

	return next, nil
}

// SamplePowerDraw returns a simulated non-negative draw in watts, zero
// when the outlet is off.
func (dp *Dispatcher) SamplePowerDraw(isOn bool) float64 {
	if !isOn {
		return 0
	}
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return 5 + dp.rng.Float64()*295
}

// StepToward moves current one bounded step toward target without
// overshooting.
func StepToward(current, target, step float64) float64 {
	switch {
	case current < target:
		if current+step > target {
			return target
		}
		return current + step
	case current > target:
		if current-step < target {
			return target
		}
		return current - step
	default:
		return current
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// numberField extracts a required numeric payload field. Any JSON
// numeric representation is accepted; missing or non-numeric values are
// an InvalidPayload error.
func numberField(payload map[string]interface{}, key string) (float64, error) {
	raw, exists := payload[key]
	if !exists {
		return 0, errors.InvalidPayloadf("missing required field: %s", key)
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errors.InvalidPayloadf("field %s is not a number: %v", key, raw)
		}
		return f, nil
	default:
		return 0, errors.InvalidPayloadf("field %s must be a number, got %T", key, raw)
	}
}

func stringField(payload map[string]interface{}, key string) (string, error) {
	raw, exists := payload[key]
	if !exists {
		return "", errors.InvalidPayloadf("missing required field: %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.InvalidPayloadf("field %s must be a string, got %T", key, raw)
	}
	return s, nil
}
