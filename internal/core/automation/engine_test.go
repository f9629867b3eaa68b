package automation

import (
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type testRig struct {
	registry *devices.Registry
	engine   *Engine
	store    *ContextStore
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	logger := testLogger()

	registry := devices.NewRegistry(logger)
	dispatcher := devices.NewDispatcher(logger)
	engine := NewEngine(registry, dispatcher, nil, logger)
	store := NewContextStore(logger, 2*time.Second)
	store.Subscribe(engine.OnContextChange)

	return &testRig{registry: registry, engine: engine, store: store}
}

func (r *testRig) addLight(t *testing.T, id, room string) {
	t.Helper()
	require.NoError(t, r.registry.Add(&devices.Device{ID: id, Name: id, Type: devices.TypeLight, RoomID: room}))
}

func lightState(t *testing.T, registry *devices.Registry, id string) *devices.LightState {
	t.Helper()
	d, err := registry.Get(id)
	require.NoError(t, err)
	return d.State.(*devices.LightState)
}

func TestEngine_ExecuteAction(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	updated, err := rig.engine.ExecuteAction("light-1", devices.ActionToggleOnOff, nil)
	require.NoError(t, err)
	assert.True(t, updated.State.(*devices.LightState).IsOn)

	_, err = rig.engine.ExecuteAction("ghost", devices.ActionToggleOnOff, nil)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	// A failed action leaves the committed state untouched.
	_, err = rig.engine.ExecuteAction("light-1", devices.ActionSetBrightness, map[string]interface{}{"brightness": "max"})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidPayload))
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)
}

func TestEngine_RoutineFiresOnContextChange(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	require.NoError(t, rig.engine.AddRoutine(&Routine{
		Name:     "evening lights",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "EVENING"}},
		Actions:  []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}))

	updated, err := rig.store.SetTimeOfDay(Evening)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, updated[0].State.(*devices.LightState).IsOn)
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)

	routines := rig.engine.ListRoutines()
	require.Len(t, routines, 1)
	assert.EqualValues(t, 1, routines[0].RunCount)
	assert.NotNil(t, routines[0].LastRun)
}

func TestEngine_RoutineConditionsGateExecution(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	require.NoError(t, rig.engine.AddRoutine(&Routine{
		Name:     "welcome home at night",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerUserPresenceChange, Value: true}},
		Conditions: ConditionGroup{
			LogicalOperator: LogicalAnd,
			Conditions:      []Condition{{Type: ConditionTimeOfDay, Value: "NIGHT"}},
		},
		Actions: []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}))

	// Default daypart is MORNING: the trigger matches but the condition
	// fails, so nothing runs.
	_, err := rig.store.SetUserPresence(false)
	require.NoError(t, err)
	updated, err := rig.store.SetUserPresence(true)
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.False(t, lightState(t, rig.registry, "light-1").IsOn)

	_, err = rig.store.SetTimeOfDay(Night)
	require.NoError(t, err)
	_, err = rig.store.SetUserPresence(false)
	require.NoError(t, err)
	updated, err = rig.store.SetUserPresence(true)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)
}

func TestEngine_DisabledRoutineNeverFires(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	routine := &Routine{
		Name:     "disabled",
		Enabled:  false,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
		Actions:  []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}
	require.NoError(t, rig.engine.AddRoutine(routine))

	updated, err := rig.store.SetTimeOfDay(Night)
	require.NoError(t, err)
	assert.Empty(t, updated)

	require.NoError(t, rig.engine.SetRoutineEnabled(routine.ID, true))
	updated, err = rig.store.SetTimeOfDay(Evening)
	require.NoError(t, err)
	assert.Empty(t, updated)

	updated, err = rig.store.SetTimeOfDay(Night)
	require.NoError(t, err)
	assert.Len(t, updated, 1)
}

func TestEngine_NoOpTransitionEmitsNothing(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	require.NoError(t, rig.engine.AddRoutine(&Routine{
		Name:     "morning toggle",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "MORNING"}},
		Actions:  []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}))

	// The store already holds MORNING.
	updated, err := rig.store.SetTimeOfDay(Morning)
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.False(t, lightState(t, rig.registry, "light-1").IsOn)
}

func TestEngine_ActionFailuresAreBestEffort(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")
	rig.addLight(t, "light-2", "living")

	require.NoError(t, rig.engine.AddRoutine(&Routine{
		Name:     "partially broken",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
		Actions: []Action{
			{DeviceID: "light-1", Type: devices.ActionToggleOnOff},
			{DeviceID: "ghost", Type: devices.ActionToggleOnOff},
			{DeviceID: "light-2", Type: devices.ActionToggleOnOff},
		},
	}))

	updated, err := rig.store.SetTimeOfDay(Night)
	require.NoError(t, err)

	// The missing device is skipped; the actions around it still land.
	require.Len(t, updated, 2)
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)
	assert.True(t, lightState(t, rig.registry, "light-2").IsOn)
}

func TestEngine_RoutinesRunInCreationOrder(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	first := &Routine{
		Name:      "set low",
		Enabled:   true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Triggers:  []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
		Actions:   []Action{{DeviceID: "light-1", Type: devices.ActionSetBrightness, Payload: map[string]interface{}{"brightness": 10}}},
	}
	second := &Routine{
		Name:      "set high",
		Enabled:   true,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Triggers:  []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
		Actions:   []Action{{DeviceID: "light-1", Type: devices.ActionSetBrightness, Payload: map[string]interface{}{"brightness": 80}}},
	}
	require.NoError(t, rig.engine.AddRoutine(second))
	require.NoError(t, rig.engine.AddRoutine(first))

	updated, err := rig.store.SetTimeOfDay(Night)
	require.NoError(t, err)

	// Both routines touch the same device; the later creation wins and
	// the device appears once in the result.
	require.Len(t, updated, 1)
	assert.Equal(t, 80, updated[0].State.(*devices.LightState).Brightness)
}

func TestEngine_PreferenceReconciliation(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")
	rig.addLight(t, "light-2", "bedroom")

	require.NoError(t, rig.engine.AddPreference(&Preference{
		Name:   "bright evenings",
		RoomID: "living",
		Conditions: ConditionGroup{
			LogicalOperator: LogicalAnd,
			Conditions:      []Condition{{Type: ConditionTimeOfDay, Value: "EVENING"}},
		},
		DesiredState: map[devices.DeviceType]map[string]interface{}{
			devices.TypeLight: {"isOn": true, "brightness": 90},
		},
	}))

	updated, err := rig.store.SetTimeOfDay(Evening)
	require.NoError(t, err)
	require.Len(t, updated, 1)

	living := lightState(t, rig.registry, "light-1")
	assert.True(t, living.IsOn)
	assert.Equal(t, 90, living.Brightness)

	// Devices outside the preference's room are untouched.
	assert.False(t, lightState(t, rig.registry, "light-2").IsOn)
}

func TestEngine_PreferenceToggleIsIdempotent(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	require.NoError(t, rig.engine.AddPreference(&Preference{
		Name:   "lights on when home",
		RoomID: "living",
		Conditions: ConditionGroup{
			LogicalOperator: LogicalAnd,
			Conditions:      []Condition{{Type: ConditionUserPresence, Value: true}},
		},
		DesiredState: map[devices.DeviceType]map[string]interface{}{
			devices.TypeLight: {"isOn": true},
		},
	}))

	_, err := rig.engine.ExecuteAction("light-1", devices.ActionToggleOnOff, nil)
	require.NoError(t, err)
	require.True(t, lightState(t, rig.registry, "light-1").IsOn)

	// Re-applying the already satisfied desired state must not flip the
	// light back off.
	rig.engine.OnStateChange(rig.store.Get())
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)
}

func TestEngine_QuickAction(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")
	rig.addLight(t, "light-2", "living")

	qa := &QuickAction{
		Name: "movie time",
		Actions: []Action{
			{DeviceID: "light-1", Type: devices.ActionToggleOnOff},
			{DeviceID: "light-2", Type: devices.ActionSetBrightness, Payload: map[string]interface{}{"brightness": 20}},
		},
	}
	require.NoError(t, rig.engine.AddQuickAction(qa))

	updated, err := rig.engine.ExecuteQuickAction(qa.ID)
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	assert.True(t, lightState(t, rig.registry, "light-1").IsOn)
	assert.Equal(t, 20, lightState(t, rig.registry, "light-2").Brightness)

	_, err = rig.engine.ExecuteQuickAction("ghost")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestEngine_RoutineCRUD(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	routine := &Routine{
		Name:     "crud",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
		Actions:  []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}
	require.NoError(t, rig.engine.AddRoutine(routine))
	require.NotEmpty(t, routine.ID)

	got, err := rig.engine.GetRoutine(routine.ID)
	require.NoError(t, err)
	assert.Equal(t, "crud", got.Name)

	got.Name = "renamed"
	require.NoError(t, rig.engine.UpdateRoutine(got))
	got, err = rig.engine.GetRoutine(routine.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, rig.engine.RemoveRoutine(routine.ID))
	_, err = rig.engine.GetRoutine(routine.ID)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestEngine_UpdateRoutinePreservesRunStats(t *testing.T) {
	rig := newTestRig(t)
	rig.addLight(t, "light-1", "living")

	routine := &Routine{
		Name:     "evening lights",
		Enabled:  true,
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "EVENING"}},
		Actions:  []Action{{DeviceID: "light-1", Type: devices.ActionToggleOnOff}},
	}
	require.NoError(t, rig.engine.AddRoutine(routine))

	_, err := rig.store.SetTimeOfDay(Evening)
	require.NoError(t, err)

	fired, err := rig.engine.GetRoutine(routine.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, fired.RunCount)
	require.NotNil(t, fired.LastRun)

	// Editing the definition must not reset the execution accounting.
	fired.Name = "evening lights v2"
	fired.Actions = []Action{{DeviceID: "light-1", Type: devices.ActionSetBrightness, Payload: map[string]interface{}{"brightness": 40}}}
	require.NoError(t, rig.engine.UpdateRoutine(fired))

	got, err := rig.engine.GetRoutine(routine.ID)
	require.NoError(t, err)
	assert.Equal(t, "evening lights v2", got.Name)
	assert.EqualValues(t, 1, got.RunCount)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, fired.CreatedAt, got.CreatedAt)
}

func TestEngine_AddRoutine_RejectsInvalid(t *testing.T) {
	rig := newTestRig(t)

	err := rig.engine.AddRoutine(&Routine{Name: "no triggers", Actions: []Action{{DeviceID: "x", Type: devices.ActionToggleOnOff}}})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidArgument))

	err = rig.engine.AddRoutine(&Routine{
		Name:     "no actions",
		Triggers: []Trigger{{Type: TriggerTimeOfDayChange, Value: "NIGHT"}},
	})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidArgument))
}

func TestContextStore_SetSimulationInterval(t *testing.T) {
	rig := newTestRig(t)

	err := rig.store.SetSimulationInterval(100 * time.Millisecond)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidArgument))

	var observed time.Duration
	rig.store.SubscribeInterval(func(interval time.Duration) { observed = interval })

	require.NoError(t, rig.store.SetSimulationInterval(time.Second))
	assert.Equal(t, time.Second, observed)
	assert.Equal(t, time.Second, rig.store.Get().SimulationInterval)

	// Setting the same value again is a no-op.
	observed = 0
	require.NoError(t, rig.store.SetSimulationInterval(time.Second))
	assert.Zero(t, observed)
}
