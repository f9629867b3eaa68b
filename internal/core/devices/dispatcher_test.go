package devices

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDispatcher_Apply_Light(t *testing.T) {
	dp := NewDispatcher(testLogger())

	tests := []struct {
		name       string
		state      *LightState
		action     ActionType
		payload    map[string]interface{}
		wantOn     bool
		wantBright int
	}{
		{
			name:       "toggle off to on",
			state:      &LightState{IsOn: false, Brightness: 70},
			action:     ActionToggleOnOff,
			wantOn:     true,
			wantBright: 70,
		},
		{
			name:       "toggle on to off",
			state:      &LightState{IsOn: true, Brightness: 70},
			action:     ActionToggleOnOff,
			wantOn:     false,
			wantBright: 70,
		},
		{
			name:       "brightness in range",
			state:      &LightState{IsOn: true, Brightness: 10},
			action:     ActionSetBrightness,
			payload:    map[string]interface{}{"brightness": 55},
			wantOn:     true,
			wantBright: 55,
		},
		{
			name:       "brightness clamped high",
			state:      &LightState{IsOn: true, Brightness: 10},
			action:     ActionSetBrightness,
			payload:    map[string]interface{}{"brightness": 150},
			wantOn:     true,
			wantBright: BrightnessMax,
		},
		{
			name:       "brightness clamped low",
			state:      &LightState{IsOn: true, Brightness: 10},
			action:     ActionSetBrightness,
			payload:    map[string]interface{}{"brightness": -20},
			wantOn:     true,
			wantBright: BrightnessMin,
		},
		{
			name:       "brightness from json float",
			state:      &LightState{IsOn: true, Brightness: 10},
			action:     ActionSetBrightness,
			payload:    map[string]interface{}{"brightness": 42.0},
			wantOn:     true,
			wantBright: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &Device{ID: "light-1", Type: TypeLight, State: tt.state}

			newState, err := dp.Apply(device, tt.action, tt.payload)
			require.NoError(t, err)

			light := newState.(*LightState)
			assert.Equal(t, tt.wantOn, light.IsOn)
			assert.Equal(t, tt.wantBright, light.Brightness)

			// Input state is never touched.
			assert.NotSame(t, tt.state, light)
		})
	}
}

func TestDispatcher_Apply_Light_ToggleIsSelfInverse(t *testing.T) {
	dp := NewDispatcher(testLogger())
	device := &Device{ID: "light-1", Type: TypeLight, State: &LightState{IsOn: false, Brightness: 30}}

	once, err := dp.Apply(device, ActionToggleOnOff, nil)
	require.NoError(t, err)

	device.State = once
	twice, err := dp.Apply(device, ActionToggleOnOff, nil)
	require.NoError(t, err)

	assert.Equal(t, false, twice.(*LightState).IsOn)
	assert.Equal(t, 30, twice.(*LightState).Brightness)
}

func TestDispatcher_Apply_Light_InvalidPayload(t *testing.T) {
	dp := NewDispatcher(testLogger())
	device := &Device{ID: "light-1", Type: TypeLight, State: &LightState{}}

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{name: "missing field", payload: map[string]interface{}{}},
		{name: "nil payload", payload: nil},
		{name: "string value", payload: map[string]interface{}{"brightness": "bright"}},
		{name: "boolean value", payload: map[string]interface{}{"brightness": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dp.Apply(device, ActionSetBrightness, tt.payload)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidPayload))
		})
	}
}

func TestDispatcher_Apply_Thermostat(t *testing.T) {
	dp := NewDispatcher(testLogger())

	t.Run("target clamped to range", func(t *testing.T) {
		device := &Device{ID: "th-1", Type: TypeThermostat, State: &ThermostatState{Temperature: 20, TargetTemp: 20, Mode: ModeHeat}}

		newState, err := dp.Apply(device, ActionSetTemperature, map[string]interface{}{"targetTemp": 5})
		require.NoError(t, err)
		assert.Equal(t, ThermostatTargetMin, newState.(*ThermostatState).TargetTemp)

		newState, err = dp.Apply(device, ActionSetTemperature, map[string]interface{}{"targetTemp": 99})
		require.NoError(t, err)
		assert.Equal(t, ThermostatTargetMax, newState.(*ThermostatState).TargetTemp)
	})

	t.Run("temperature nudges toward target", func(t *testing.T) {
		device := &Device{ID: "th-1", Type: TypeThermostat, State: &ThermostatState{Temperature: 20, TargetTemp: 20, Mode: ModeHeat}}

		newState, err := dp.Apply(device, ActionSetTemperature, map[string]interface{}{"targetTemp": 25})
		require.NoError(t, err)
		assert.Equal(t, 20+TemperatureStep, newState.(*ThermostatState).Temperature)
	})

	t.Run("set mode", func(t *testing.T) {
		device := &Device{ID: "th-1", Type: TypeThermostat, State: &ThermostatState{Mode: ModeOff}}

		newState, err := dp.Apply(device, ActionSetMode, map[string]interface{}{"mode": "COOL"})
		require.NoError(t, err)
		assert.Equal(t, ModeCool, newState.(*ThermostatState).Mode)
	})

	t.Run("invalid mode rejected", func(t *testing.T) {
		device := &Device{ID: "th-1", Type: TypeThermostat, State: &ThermostatState{Mode: ModeOff}}

		_, err := dp.Apply(device, ActionSetMode, map[string]interface{}{"mode": "TURBO"})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidPayload))
	})

	t.Run("read temperature is pure", func(t *testing.T) {
		state := &ThermostatState{Temperature: 21.5, TargetTemp: 22, Mode: ModeHeat}
		device := &Device{ID: "th-1", Type: TypeThermostat, State: state}

		newState, err := dp.Apply(device, ActionReadTemperature, nil)
		require.NoError(t, err)
		assert.Equal(t, *state, *newState.(*ThermostatState))
	})
}

func TestDispatcher_Apply_Outlet(t *testing.T) {
	dp := NewDispatcher(testLogger())

	t.Run("read power usage samples when on", func(t *testing.T) {
		device := &Device{ID: "out-1", Type: TypeSmartOutlet, State: &OutletState{IsOn: true}}

		newState, err := dp.Apply(device, ActionReadPowerUsage, nil)
		require.NoError(t, err)

		usage := newState.(*OutletState).PowerUsage
		assert.GreaterOrEqual(t, usage, 5.0)
		assert.LessOrEqual(t, usage, 300.0)
	})

	t.Run("read power usage zero when off", func(t *testing.T) {
		device := &Device{ID: "out-1", Type: TypeSmartOutlet, State: &OutletState{IsOn: false}}

		newState, err := dp.Apply(device, ActionReadPowerUsage, nil)
		require.NoError(t, err)
		assert.Zero(t, newState.(*OutletState).PowerUsage)
	})

	t.Run("toggling off resets usage", func(t *testing.T) {
		device := &Device{ID: "out-1", Type: TypeSmartOutlet, State: &OutletState{IsOn: true, PowerUsage: 120}}

		newState, err := dp.Apply(device, ActionToggleOnOff, nil)
		require.NoError(t, err)

		outlet := newState.(*OutletState)
		assert.False(t, outlet.IsOn)
		assert.Zero(t, outlet.PowerUsage)
	})
}

func TestDispatcher_Apply_Blind(t *testing.T) {
	dp := NewDispatcher(testLogger())

	tests := []struct {
		name    string
		action  ActionType
		payload map[string]interface{}
		want    int
	}{
		{name: "set position", action: ActionSetPosition, payload: map[string]interface{}{"position": 40}, want: 40},
		{name: "position clamped high", action: ActionSetPosition, payload: map[string]interface{}{"position": 400}, want: PositionMax},
		{name: "position clamped low", action: ActionSetPosition, payload: map[string]interface{}{"position": -1}, want: PositionMin},
		{name: "open", action: ActionOpen, want: PositionMax},
		{name: "close", action: ActionClose, want: PositionMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &Device{ID: "blind-1", Type: TypeSmartBlind, State: &BlindState{Position: 50}}

			newState, err := dp.Apply(device, tt.action, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, newState.(*BlindState).Position)
		})
	}
}

func TestDispatcher_Apply_AC(t *testing.T) {
	dp := NewDispatcher(testLogger())

	t.Run("target uses AC floor", func(t *testing.T) {
		device := &Device{ID: "ac-1", Type: TypeAirConditioner, State: &ACState{Temperature: 22, TargetTemp: 22, Mode: ModeCool, IsOn: true}}

		newState, err := dp.Apply(device, ActionSetTemperature, map[string]interface{}{"targetTemp": 10})
		require.NoError(t, err)
		assert.Equal(t, ACTargetMin, newState.(*ACState).TargetTemp)
	})

	t.Run("toggle preserves mode and target", func(t *testing.T) {
		device := &Device{ID: "ac-1", Type: TypeAirConditioner, State: &ACState{Temperature: 22, TargetTemp: 19, Mode: ModeCool, IsOn: false}}

		newState, err := dp.Apply(device, ActionToggleOnOff, nil)
		require.NoError(t, err)

		ac := newState.(*ACState)
		assert.True(t, ac.IsOn)
		assert.Equal(t, ModeCool, ac.Mode)
		assert.Equal(t, 19.0, ac.TargetTemp)
	})
}

func TestDispatcher_Apply_UnsupportedAction(t *testing.T) {
	dp := NewDispatcher(testLogger())

	tests := []struct {
		name   string
		device *Device
		action ActionType
	}{
		{
			name:   "brightness on thermostat",
			device: &Device{ID: "th-1", Type: TypeThermostat, State: &ThermostatState{}},
			action: ActionSetBrightness,
		},
		{
			name:   "toggle on blind",
			device: &Device{ID: "blind-1", Type: TypeSmartBlind, State: &BlindState{}},
			action: ActionToggleOnOff,
		},
		{
			name:   "anything on sensor",
			device: &Device{ID: "sensor-1", Type: TypeSensor, State: &SensorState{}},
			action: ActionToggleOnOff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dp.Apply(tt.device, tt.action, nil)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrUnsupportedAction))
		})
	}
}

func TestStepToward(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    float64
	}{
		{name: "step up", current: 20, target: 25, want: 20.5},
		{name: "step down", current: 20, target: 15, want: 19.5},
		{name: "no overshoot up", current: 24.8, target: 25, want: 25},
		{name: "no overshoot down", current: 15.2, target: 15, want: 15},
		{name: "at target", current: 22, target: 22, want: 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepToward(tt.current, tt.target, TemperatureStep))
		})
	}
}
