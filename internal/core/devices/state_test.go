package devices

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
)

func TestNormalizeState_ClampsNumericFields(t *testing.T) {
	tests := []struct {
		name  string
		state DeviceState
		check func(t *testing.T, s DeviceState)
	}{
		{
			name:  "brightness clamped high",
			state: &LightState{IsOn: true, Brightness: 500},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, BrightnessMax, s.(*LightState).Brightness)
			},
		},
		{
			name:  "brightness clamped low",
			state: &LightState{Brightness: -20},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, BrightnessMin, s.(*LightState).Brightness)
			},
		},
		{
			name:  "thermostat target clamped to floor",
			state: &ThermostatState{TargetTemp: 5, Mode: ModeHeat},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, ThermostatTargetMin, s.(*ThermostatState).TargetTemp)
			},
		},
		{
			name:  "empty thermostat mode defaults to off",
			state: &ThermostatState{TargetTemp: 20},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, ModeOff, s.(*ThermostatState).Mode)
			},
		},
		{
			name:  "blind position clamped high",
			state: &BlindState{Position: 150},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, PositionMax, s.(*BlindState).Position)
			},
		},
		{
			name:  "ac target clamped to its tighter floor",
			state: &ACState{TargetTemp: 5, Mode: ModeCool},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, ACTargetMin, s.(*ACState).TargetTemp)
			},
		},
		{
			name:  "negative outlet draw zeroed",
			state: &OutletState{PowerUsage: -12.5},
			check: func(t *testing.T, s DeviceState) {
				assert.Zero(t, s.(*OutletState).PowerUsage)
			},
		},
		{
			name:  "sensor humidity clamped to percent range",
			state: &SensorState{Temperature: 20, Humidity: 120},
			check: func(t *testing.T, s DeviceState) {
				assert.Equal(t, 100.0, s.(*SensorState).Humidity)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, NormalizeState(tt.state))
			tt.check(t, tt.state)
		})
	}
}

func TestNormalizeState_RejectsUnknownMode(t *testing.T) {
	err := NormalizeState(&ThermostatState{TargetTemp: 20, Mode: ThermostatMode("AUTO")})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidPayload))

	err = NormalizeState(&ACState{TargetTemp: 22, Mode: ThermostatMode("TURBO")})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidPayload))
}

func TestRoomIsOn(t *testing.T) {
	tests := []struct {
		name    string
		devices []*Device
		want    bool
	}{
		{
			name: "empty room is off",
			want: false,
		},
		{
			name: "all devices off",
			devices: []*Device{
				{ID: "l1", Type: TypeLight, State: &LightState{IsOn: false}},
				{ID: "o1", Type: TypeSmartOutlet, State: &OutletState{IsOn: false}},
			},
			want: false,
		},
		{
			name: "one light on",
			devices: []*Device{
				{ID: "l1", Type: TypeLight, State: &LightState{IsOn: false}},
				{ID: "l2", Type: TypeLight, State: &LightState{IsOn: true}},
			},
			want: true,
		},
		{
			name: "outlet on",
			devices: []*Device{
				{ID: "o1", Type: TypeSmartOutlet, State: &OutletState{IsOn: true}},
			},
			want: true,
		},
		{
			name: "ac on",
			devices: []*Device{
				{ID: "ac1", Type: TypeAirConditioner, State: &ACState{IsOn: true, Mode: ModeCool}},
			},
			want: true,
		},
		{
			name: "devices without an on flag never switch the room on",
			devices: []*Device{
				{ID: "s1", Type: TypeSensor, State: &SensorState{Temperature: 21}},
				{ID: "b1", Type: TypeSmartBlind, State: &BlindState{Position: 100}},
				{ID: "t1", Type: TypeThermostat, State: &ThermostatState{Mode: ModeHeat}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoomIsOn(tt.devices))
		})
	}
}
