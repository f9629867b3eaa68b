package devices

import (
	"encoding/json"
	"fmt"

	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
)

// DeviceState is the typed state contract per device type. Field names
// and legal ranges are fully determined by the concrete type; the
// dispatcher never mutates a state it did not produce.
type DeviceState interface {
	DeviceType() DeviceType
	Clone() DeviceState
	// Fields exposes the state as named values for condition evaluation
	// and the room on/off derivation.
	Fields() map[string]interface{}
}

// LightState holds a light's switch and dimmer level.
type LightState struct {
	IsOn       bool `json:"isOn"`
	Brightness int  `json:"brightness"`
}

func (s *LightState) DeviceType() DeviceType { return TypeLight }

func (s *LightState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *LightState) Fields() map[string]interface{} {
	return map[string]interface{}{"isOn": s.IsOn, "brightness": s.Brightness}
}

// ThermostatState tracks ambient temperature against a clamped target.
type ThermostatState struct {
	Temperature float64        `json:"temperature"`
	TargetTemp  float64        `json:"targetTemp"`
	Mode        ThermostatMode `json:"mode"`
}

func (s *ThermostatState) DeviceType() DeviceType { return TypeThermostat }

func (s *ThermostatState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *ThermostatState) Fields() map[string]interface{} {
	return map[string]interface{}{
		"temperature": s.Temperature,
		"targetTemp":  s.TargetTemp,
		"mode":        string(s.Mode),
	}
}

// OutletState holds a smart outlet's switch and last sampled draw.
type OutletState struct {
	IsOn       bool    `json:"isOn"`
	PowerUsage float64 `json:"powerUsage"`
}

func (s *OutletState) DeviceType() DeviceType { return TypeSmartOutlet }

func (s *OutletState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *OutletState) Fields() map[string]interface{} {
	return map[string]interface{}{"isOn": s.IsOn, "powerUsage": s.PowerUsage}
}

// BlindState holds a blind position, 0 closed to 100 open.
type BlindState struct {
	Position int `json:"position"`
}

func (s *BlindState) DeviceType() DeviceType { return TypeSmartBlind }

func (s *BlindState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *BlindState) Fields() map[string]interface{} {
	return map[string]interface{}{"position": s.Position}
}

// ACState is the thermostat contract with a tighter target floor and an
// explicit on/off flag.
type ACState struct {
	Temperature float64        `json:"temperature"`
	TargetTemp  float64        `json:"targetTemp"`
	Mode        ThermostatMode `json:"mode"`
	IsOn        bool           `json:"isOn"`
}

func (s *ACState) DeviceType() DeviceType { return TypeAirConditioner }

func (s *ACState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *ACState) Fields() map[string]interface{} {
	return map[string]interface{}{
		"temperature": s.Temperature,
		"targetTemp":  s.TargetTemp,
		"mode":        string(s.Mode),
		"isOn":        s.IsOn,
	}
}

// SensorState is read-only from the dispatcher's point of view; only the
// simulation clock writes it.
type SensorState struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

func (s *SensorState) DeviceType() DeviceType { return TypeSensor }

func (s *SensorState) Clone() DeviceState {
	clone := *s
	return &clone
}

func (s *SensorState) Fields() map[string]interface{} {
	return map[string]interface{}{"temperature": s.Temperature, "humidity": s.Humidity}
}

// DefaultState returns the initial state for a device type.
func DefaultState(t DeviceType) DeviceState {
	switch t {
	case TypeLight:
		return &LightState{IsOn: false, Brightness: 100}
	case TypeThermostat:
		return &ThermostatState{Temperature: 20, TargetTemp: 20, Mode: ModeOff}
	case TypeSmartOutlet:
		return &OutletState{IsOn: false, PowerUsage: 0}
	case TypeSmartBlind:
		return &BlindState{Position: 0}
	case TypeAirConditioner:
		return &ACState{Temperature: 22, TargetTemp: 22, Mode: ModeOff, IsOn: false}
	case TypeSensor:
		return &SensorState{Temperature: 20, Humidity: 45}
	default:
		return nil
	}
}

// NormalizeState clamps numeric fields into the type's legal ranges and
// validates enum fields, so externally supplied state enters the
// registry under the same invariants dispatched actions maintain.
func NormalizeState(s DeviceState) error {
	switch st := s.(type) {
	case *LightState:
		st.Brightness = clampInt(st.Brightness, BrightnessMin, BrightnessMax)
	case *ThermostatState:
		st.TargetTemp = clampFloat(st.TargetTemp, ThermostatTargetMin, ThermostatTargetMax)
		if st.Mode == "" {
			st.Mode = ModeOff
		}
		if !ValidThermostatMode(string(st.Mode)) {
			return errors.InvalidPayloadf("invalid thermostat mode: %s", st.Mode)
		}
	case *OutletState:
		if st.PowerUsage < 0 {
			st.PowerUsage = 0
		}
	case *BlindState:
		st.Position = clampInt(st.Position, PositionMin, PositionMax)
	case *ACState:
		st.TargetTemp = clampFloat(st.TargetTemp, ACTargetMin, ACTargetMax)
		if st.Mode == "" {
			st.Mode = ModeOff
		}
		if !ValidThermostatMode(string(st.Mode)) {
			return errors.InvalidPayloadf("invalid air conditioner mode: %s", st.Mode)
		}
	case *SensorState:
		st.Humidity = clampFloat(st.Humidity, 0, 100)
	}
	return nil
}

// RoomIsOn derives a room's on/off flag from its devices: the room is on
// when any constituent device carrying an isOn field is switched on.
func RoomIsOn(list []*Device) bool {
	for _, d := range list {
		if d.State == nil {
			continue
		}
		if on, ok := d.State.Fields()["isOn"].(bool); ok && on {
			return true
		}
	}
	return false
}

// UnmarshalState decodes a JSON state blob into the concrete type for t.
func UnmarshalState(t DeviceType, data []byte) (DeviceState, error) {
	var state DeviceState
	switch t {
	case TypeLight:
		state = &LightState{}
	case TypeThermostat:
		state = &ThermostatState{}
	case TypeSmartOutlet:
		state = &OutletState{}
	case TypeSmartBlind:
		state = &BlindState{}
	case TypeAirConditioner:
		state = &ACState{}
	case TypeSensor:
		state = &SensorState{}
	default:
		return nil, fmt.Errorf("unknown device type: %s", t)
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode %s state: %w", t, err)
	}
	return state, nil
}
