package devices

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeviceType identifies the state-machine contract a device follows.
type DeviceType string

const (
	TypeLight          DeviceType = "LIGHT"
	TypeThermostat     DeviceType = "THERMOSTAT"
	TypeSmartOutlet    DeviceType = "SMART_OUTLET"
	TypeSmartBlind     DeviceType = "SMART_BLIND"
	TypeAirConditioner DeviceType = "AIR_CONDITIONER"
	TypeSensor         DeviceType = "SENSOR"
)

// ActionType names a dispatchable device action.
type ActionType string

const (
	ActionToggleOnOff     ActionType = "TOGGLE_ON_OFF"
	ActionSetBrightness   ActionType = "SET_BRIGHTNESS"
	ActionSetTemperature  ActionType = "SET_TEMPERATURE"
	ActionSetMode         ActionType = "SET_MODE"
	ActionReadTemperature ActionType = "READ_TEMPERATURE"
	ActionReadPowerUsage  ActionType = "READ_POWER_USAGE"
	ActionSetPosition     ActionType = "SET_POSITION"
	ActionOpen            ActionType = "OPEN"
	ActionClose           ActionType = "CLOSE"
)

// ThermostatMode is shared by thermostats and air conditioners.
type ThermostatMode string

const (
	ModeOff  ThermostatMode = "OFF"
	ModeHeat ThermostatMode = "HEAT"
	ModeCool ThermostatMode = "COOL"
)

// ValidThermostatMode reports whether s names a known mode.
func ValidThermostatMode(s string) bool {
	switch ThermostatMode(s) {
	case ModeOff, ModeHeat, ModeCool:
		return true
	}
	return false
}

// Field ranges per device type (inclusive).
const (
	BrightnessMin = 0
	BrightnessMax = 100
	PositionMin   = 0
	PositionMax   = 100

	ThermostatTargetMin = 10.0
	ThermostatTargetMax = 30.0
	ACTargetMin         = 16.0
	ACTargetMax         = 30.0
)

var supportedActions = map[DeviceType][]ActionType{
	TypeLight:          {ActionToggleOnOff, ActionSetBrightness},
	TypeThermostat:     {ActionSetTemperature, ActionSetMode, ActionReadTemperature},
	TypeSmartOutlet:    {ActionToggleOnOff, ActionReadPowerUsage},
	TypeSmartBlind:     {ActionSetPosition, ActionOpen, ActionClose},
	TypeAirConditioner: {ActionToggleOnOff, ActionSetTemperature, ActionSetMode, ActionReadTemperature},
	TypeSensor:         {},
}

// SupportedActions returns the action set for a device type. Sensors
// support none; only the simulation clock mutates them.
func SupportedActions(t DeviceType) []ActionType {
	actions, ok := supportedActions[t]
	if !ok {
		return nil
	}
	out := make([]ActionType, len(actions))
	copy(out, actions)
	return out
}

// Supports reports whether t supports the given action.
func Supports(t DeviceType, action ActionType) bool {
	for _, a := range supportedActions[t] {
		if a == action {
			return true
		}
	}
	return false
}

// DeviceTypes returns all known device types in a stable order.
func DeviceTypes() []DeviceType {
	return []DeviceType{TypeLight, TypeThermostat, TypeSmartOutlet, TypeSmartBlind, TypeAirConditioner, TypeSensor}
}

// ValidDeviceType reports whether s names a known device type.
func ValidDeviceType(s string) bool {
	_, ok := supportedActions[DeviceType(s)]
	return ok
}

// Device is the canonical record owned by the registry. Rooms reference
// devices by id; the registry owns their lifetime.
type Device struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      DeviceType  `json:"type"`
	RoomID    string      `json:"room_id"`
	State     DeviceState `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to callers.
func (d *Device) Clone() *Device {
	clone := *d
	if d.State != nil {
		clone.State = d.State.Clone()
	}
	return &clone
}

// SupportedActions lists the actions this device accepts.
func (d *Device) SupportedActions() []ActionType {
	return SupportedActions(d.Type)
}

// MarshalJSON includes the supported action set alongside the record.
func (d *Device) MarshalJSON() ([]byte, error) {
	type alias Device
	return json.Marshal(&struct {
		*alias
		SupportedActions []ActionType `json:"supported_actions"`
	}{
		alias:            (*alias)(d),
		SupportedActions: d.SupportedActions(),
	})
}

// UnmarshalJSON decodes the state into the concrete type for d.Type.
func (d *Device) UnmarshalJSON(data []byte) error {
	type alias Device
	aux := &struct {
		State json.RawMessage `json:"state"`
		*alias
	}{
		alias: (*alias)(d),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.State) == 0 {
		d.State = DefaultState(d.Type)
		return nil
	}
	state, err := UnmarshalState(d.Type, aux.State)
	if err != nil {
		return fmt.Errorf("device %s: %w", d.ID, err)
	}
	d.State = state
	return nil
}
