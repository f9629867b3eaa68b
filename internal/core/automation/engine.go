package automation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Broadcaster pushes updates to connected UI clients. The websocket hub
// implements it; a nil broadcaster disables push.
type Broadcaster interface {
	BroadcastDeviceUpdated(d *devices.Device)
	BroadcastContextChanged(change ContextChange)
}

// ActionResult is the per-action outcome of one automation pass.
// Failures never abort the remainder of an action list.
type ActionResult struct {
	Action Action          `json:"action"`
	Device *devices.Device `json:"device,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Engine orchestrates the full pass for one triggering event: snapshot
// context, match routines, evaluate preferences, dispatch the combined
// action list in match order, and collect the updated devices.
type Engine struct {
	registry   *devices.Registry
	dispatcher *devices.Dispatcher

	mu           sync.RWMutex
	routines     map[string]*Routine
	preferences  map[string]*Preference
	quickActions map[string]*QuickAction

	broadcaster Broadcaster
	collector   *metrics.Collector
	logger      *logrus.Logger
}

// NewEngine creates an engine bound to the device registry and
// dispatcher. Subscribe it to a ContextStore to receive change events.
func NewEngine(registry *devices.Registry, dispatcher *devices.Dispatcher, collector *metrics.Collector, logger *logrus.Logger) *Engine {
	return &Engine{
		registry:     registry,
		dispatcher:   dispatcher,
		routines:     make(map[string]*Routine),
		preferences:  make(map[string]*Preference),
		quickActions: make(map[string]*QuickAction),
		collector:    collector,
		logger:       logger,
	}
}

// SetBroadcaster wires the push channel for device updates.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcaster = b
}

// AddRoutine registers a routine, generating an id when absent.
func (e *Engine) AddRoutine(r *Routine) error {
	if r == nil {
		return errors.InvalidArgumentf("routine cannot be nil")
	}
	if err := r.Validate(); err != nil {
		return errors.InvalidArgumentf("routine validation failed: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	e.routines[r.ID] = r.Clone()

	e.updateCounts()
	e.logger.WithFields(logrus.Fields{
		"routine_id":   r.ID,
		"routine_name": r.Name,
	}).Info("Routine added")

	return nil
}

// UpdateRoutine replaces an existing routine definition.
func (e *Engine) UpdateRoutine(r *Routine) error {
	if r == nil || r.ID == "" {
		return errors.InvalidArgumentf("routine id is required for update")
	}
	if err := r.Validate(); err != nil {
		return errors.InvalidArgumentf("routine validation failed: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old, exists := e.routines[r.ID]
	if !exists {
		return errors.NotFoundf("routine %s not found", r.ID)
	}

	// Execution accounting survives a definition replacement.
	r.CreatedAt = old.CreatedAt
	r.LastRun = old.LastRun
	r.RunCount = old.RunCount
	r.UpdatedAt = time.Now()
	e.routines[r.ID] = r.Clone()

	e.logger.WithField("routine_id", r.ID).Info("Routine updated")
	return nil
}

// RemoveRoutine deletes a routine.
func (e *Engine) RemoveRoutine(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.routines[id]; !exists {
		return errors.NotFoundf("routine %s not found", id)
	}
	delete(e.routines, id)

	e.updateCounts()
	e.logger.WithField("routine_id", id).Info("Routine removed")
	return nil
}

// GetRoutine retrieves a routine by id.
func (e *Engine) GetRoutine(id string) (*Routine, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, exists := e.routines[id]
	if !exists {
		return nil, errors.NotFoundf("routine %s not found", id)
	}
	return r.Clone(), nil
}

// ListRoutines returns all routines ordered by creation time.
func (e *Engine) ListRoutines() []*Routine {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Routine, 0, len(e.routines))
	for _, r := range e.routines {
		out = append(out, r.Clone())
	}
	sortRoutines(out)
	return out
}

// SetRoutineEnabled toggles a routine without touching its definition.
func (e *Engine) SetRoutineEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.routines[id]
	if !exists {
		return errors.NotFoundf("routine %s not found", id)
	}
	if r.Enabled == enabled {
		return nil
	}
	r.Enabled = enabled
	r.UpdatedAt = time.Now()

	e.logger.WithFields(logrus.Fields{
		"routine_id": id,
		"enabled":    enabled,
	}).Info("Routine toggled")
	return nil
}

// AddPreference registers a room-scoped preference.
func (e *Engine) AddPreference(p *Preference) error {
	if p == nil {
		return errors.InvalidArgumentf("preference cannot be nil")
	}
	if err := p.Validate(); err != nil {
		return errors.InvalidArgumentf("preference validation failed: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	e.preferences[p.ID] = p.Clone()

	e.logger.WithFields(logrus.Fields{
		"preference_id": p.ID,
		"room_id":       p.RoomID,
	}).Info("Preference added")
	return nil
}

// RemovePreference deletes a preference.
func (e *Engine) RemovePreference(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.preferences[id]; !exists {
		return errors.NotFoundf("preference %s not found", id)
	}
	delete(e.preferences, id)

	e.logger.WithField("preference_id", id).Info("Preference removed")
	return nil
}

// GetPreference retrieves a preference by id.
func (e *Engine) GetPreference(id string) (*Preference, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, exists := e.preferences[id]
	if !exists {
		return nil, errors.NotFoundf("preference %s not found", id)
	}
	return p.Clone(), nil
}

// ListPreferences returns all preferences ordered by creation time.
func (e *Engine) ListPreferences() []*Preference {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Preference, 0, len(e.preferences))
	for _, p := range e.preferences {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// AddQuickAction registers a quick action.
func (e *Engine) AddQuickAction(q *QuickAction) error {
	if q == nil {
		return errors.InvalidArgumentf("quick action cannot be nil")
	}
	if err := q.Validate(); err != nil {
		return errors.InvalidArgumentf("quick action validation failed: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	e.quickActions[q.ID] = q.Clone()

	e.logger.WithFields(logrus.Fields{
		"quick_action_id":   q.ID,
		"quick_action_name": q.Name,
	}).Info("Quick action added")
	return nil
}

// RemoveQuickAction deletes a quick action.
func (e *Engine) RemoveQuickAction(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.quickActions[id]; !exists {
		return errors.NotFoundf("quick action %s not found", id)
	}
	delete(e.quickActions, id)

	e.logger.WithField("quick_action_id", id).Info("Quick action removed")
	return nil
}

// ListQuickActions returns all quick actions ordered by creation time.
func (e *Engine) ListQuickActions() []*QuickAction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*QuickAction, 0, len(e.quickActions))
	for _, q := range e.quickActions {
		out = append(out, q.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ExecuteAction dispatches a single user-initiated action against a
// device and returns the full updated record. Validation failures leave
// the committed state untouched.
func (e *Engine) ExecuteAction(deviceID string, action devices.ActionType, payload map[string]interface{}) (*devices.Device, error) {
	updated, err := e.registry.Mutate(deviceID, func(d *devices.Device) (devices.DeviceState, error) {
		return e.dispatcher.Apply(d, action, payload)
	})
	if err != nil {
		e.collector.ObserveAction(string(action), "error")
		return nil, err
	}

	e.collector.ObserveAction(string(action), "ok")
	e.broadcastDevice(updated)

	e.logger.WithFields(logrus.Fields{
		"device_id": deviceID,
		"action":    action,
	}).Debug("Action executed")

	return updated, nil
}

// ExecuteQuickAction dispatches a quick action's list immediately in
// listed order, skipping trigger matching and condition evaluation.
func (e *Engine) ExecuteQuickAction(id string) ([]*devices.Device, error) {
	e.mu.RLock()
	q, exists := e.quickActions[id]
	e.mu.RUnlock()

	if !exists {
		return nil, errors.NotFoundf("quick action %s not found", id)
	}

	e.logger.WithFields(logrus.Fields{
		"quick_action_id":   q.ID,
		"quick_action_name": q.Name,
	}).Info("Executing quick action")

	results := e.dispatchAll(q.Actions)
	return updatedDevices(results), nil
}

// OnContextChange is the ContextStore listener: it runs the full
// automation pass for one committed context transition and returns the
// devices it updated. The pass operates entirely on the given snapshot.
func (e *Engine) OnContextChange(change ContextChange, snapshot Context) []*devices.Device {
	start := time.Now()

	actions := e.matchRoutines(change, snapshot)
	actions = append(actions, e.reconcilePreferences(snapshot)...)

	results := e.dispatchAll(actions)
	updated := updatedDevices(results)

	e.collector.ObserveAutomationPass(time.Since(start))
	e.broadcastChange(change)

	e.logger.WithFields(logrus.Fields{
		"dimension":       change.Dimension,
		"actions":         len(actions),
		"updated_devices": len(updated),
		"duration":        time.Since(start),
	}).Debug("Automation pass completed")

	return updated
}

// OnStateChange runs the preference reconciliation pass after device
// state changed outside a context transition (a simulation tick).
// Routines are keyed only to context dimensions and never fire here.
func (e *Engine) OnStateChange(snapshot Context) []*devices.Device {
	actions := e.reconcilePreferences(snapshot)
	if len(actions) == 0 {
		return nil
	}
	return updatedDevices(e.dispatchAll(actions))
}

// matchRoutines returns the combined action list of every enabled
// routine armed by the change whose conditions hold on the snapshot,
// in match order.
func (e *Engine) matchRoutines(change ContextChange, snapshot Context) []Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	matched := make([]*Routine, 0, len(e.routines))
	for _, r := range e.routines {
		if !r.Enabled {
			continue
		}
		for i := range r.Triggers {
			if r.Triggers[i].Matches(change) {
				matched = append(matched, r)
				break
			}
		}
	}
	sortRoutines(matched)

	var actions []Action
	for _, r := range matched {
		pass, err := r.Conditions.Evaluate(snapshot)
		if err != nil {
			e.logger.WithError(err).WithField("routine_id", r.ID).Error("Condition evaluation failed")
			continue
		}
		if !pass {
			e.logger.WithField("routine_id", r.ID).Debug("Routine conditions not met")
			continue
		}

		now := time.Now()
		r.LastRun = &now
		r.RunCount++
		e.collector.ObserveRoutineRun(r.ID)

		e.logger.WithFields(logrus.Fields{
			"routine_id":   r.ID,
			"routine_name": r.Name,
		}).Info("Routine armed")

		actions = append(actions, r.Actions...)
	}
	return actions
}

// reconcilePreferences converts every preference whose conditions hold
// into the per-device actions that realize its desired state. Applying
// an already-satisfied desired state still flows through the dispatcher
// and is a state-level no-op.
func (e *Engine) reconcilePreferences(snapshot Context) []Action {
	e.mu.RLock()
	prefs := make([]*Preference, 0, len(e.preferences))
	for _, p := range e.preferences {
		prefs = append(prefs, p)
	}
	e.mu.RUnlock()

	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].CreatedAt.Equal(prefs[j].CreatedAt) {
			return prefs[i].ID < prefs[j].ID
		}
		return prefs[i].CreatedAt.Before(prefs[j].CreatedAt)
	})

	var actions []Action
	for _, p := range prefs {
		pass, err := p.Conditions.Evaluate(snapshot)
		if err != nil {
			e.logger.WithError(err).WithField("preference_id", p.ID).Error("Preference condition evaluation failed")
			continue
		}
		if !pass {
			continue
		}

		for deviceType, desired := range p.DesiredState {
			for _, d := range e.registry.ListByRoom(p.RoomID) {
				if d.Type != deviceType {
					continue
				}
				actions = append(actions, desiredStateActions(d, desired)...)
			}
		}
	}
	return actions
}

// desiredStateActions maps a partial desired state onto dispatcher
// actions for one device. TOGGLE_ON_OFF is emitted only on an isOn
// mismatch since toggling is not idempotent.
func desiredStateActions(d *devices.Device, desired map[string]interface{}) []Action {
	var actions []Action

	fields := d.State.Fields()
	for field, value := range desired {
		switch field {
		case "isOn":
			want, ok := value.(bool)
			if !ok {
				continue
			}
			current, _ := fields["isOn"].(bool)
			if current != want {
				actions = append(actions, Action{DeviceID: d.ID, Type: devices.ActionToggleOnOff})
			}
		case "brightness":
			actions = append(actions, Action{DeviceID: d.ID, Type: devices.ActionSetBrightness, Payload: map[string]interface{}{"brightness": value}})
		case "targetTemp":
			actions = append(actions, Action{DeviceID: d.ID, Type: devices.ActionSetTemperature, Payload: map[string]interface{}{"targetTemp": value}})
		case "mode":
			actions = append(actions, Action{DeviceID: d.ID, Type: devices.ActionSetMode, Payload: map[string]interface{}{"mode": value}})
		case "position":
			actions = append(actions, Action{DeviceID: d.ID, Type: devices.ActionSetPosition, Payload: map[string]interface{}{"position": value}})
		}
	}
	return actions
}

// dispatchAll applies an action list sequentially, best-effort. Each
// action is dispatched independently; one failure never blocks the
// rest, and callers receive the outcomes of every attempt.
func (e *Engine) dispatchAll(actions []Action) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, action := range actions {
		updated, err := e.registry.Mutate(action.DeviceID, func(d *devices.Device) (devices.DeviceState, error) {
			return e.dispatcher.Apply(d, action.Type, action.Payload)
		})
		if err != nil {
			e.collector.ObserveAction(string(action.Type), "error")
			e.logger.WithError(err).WithFields(logrus.Fields{
				"device_id": action.DeviceID,
				"action":    action.Type,
			}).Warn("Action dispatch failed")
			results = append(results, ActionResult{Action: action, Error: err.Error()})
			continue
		}

		e.collector.ObserveAction(string(action.Type), "ok")
		e.broadcastDevice(updated)
		results = append(results, ActionResult{Action: action, Device: updated})
	}
	return results
}

func (e *Engine) broadcastDevice(d *devices.Device) {
	e.mu.RLock()
	b := e.broadcaster
	e.mu.RUnlock()
	if b != nil {
		b.BroadcastDeviceUpdated(d)
	}
}

func (e *Engine) broadcastChange(change ContextChange) {
	e.mu.RLock()
	b := e.broadcaster
	e.mu.RUnlock()
	if b != nil {
		b.BroadcastContextChanged(change)
	}
}

func (e *Engine) updateCounts() {
	e.collector.SetRoutineCount(len(e.routines))
}

// updatedDevices collapses action results into the set of devices that
// were successfully updated, keeping the latest record per id.
func updatedDevices(results []ActionResult) []*devices.Device {
	latest := make(map[string]*devices.Device)
	order := make([]string, 0, len(results))
	for _, res := range results {
		if res.Device == nil {
			continue
		}
		if _, seen := latest[res.Device.ID]; !seen {
			order = append(order, res.Device.ID)
		}
		latest[res.Device.ID] = res.Device
	}

	out := make([]*devices.Device, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

func sortRoutines(list []*Routine) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
