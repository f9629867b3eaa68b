package automation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
)

// Action is one device mutation in an automation's ordered action list.
type Action struct {
	DeviceID string                 `json:"device_id"`
	Type     devices.ActionType     `json:"action_type"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Validate checks the action's required fields.
func (a *Action) Validate() error {
	if a.DeviceID == "" {
		return fmt.Errorf("action device_id is required")
	}
	if a.Type == "" {
		return fmt.Errorf("action type is required")
	}
	return nil
}

// Routine is a trigger-gated, condition-filtered, multi-action
// automation. Triggers are OR-combined; conditions gate execution once
// a trigger matches.
type Routine struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Enabled    bool           `json:"enabled"`
	Triggers   []Trigger      `json:"triggers"`
	Conditions ConditionGroup `json:"conditions"`
	Actions    []Action       `json:"actions"`
	LastRun    *time.Time     `json:"last_run,omitempty"`
	RunCount   int64          `json:"run_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Validate performs full validation of the routine definition.
func (r *Routine) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("routine name is required")
	}
	if len(r.Triggers) == 0 {
		return fmt.Errorf("at least one trigger is required")
	}
	for i := range r.Triggers {
		if err := r.Triggers[i].Validate(); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	if err := r.Conditions.Validate(); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("at least one action is required")
	}
	for i := range r.Actions {
		if err := r.Actions[i].Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// Clone creates a deep copy of the routine.
func (r *Routine) Clone() *Routine {
	data, _ := json.Marshal(r)
	var clone Routine
	json.Unmarshal(data, &clone)
	return &clone
}

// Preference is a room-scoped desired device state, condition-gated
// but not trigger-gated. It is reconciled on every context change and
// on simulation-tick state changes; reconciliation is one-directional
// with no undo when the conditions stop holding.
type Preference struct {
	ID         string                                       `json:"id"`
	Name       string                                       `json:"name"`
	RoomID     string                                       `json:"room_id"`
	Conditions ConditionGroup                               `json:"conditions"`
	// DesiredState maps a device type to the partial state applied to
	// every device of that type in the room.
	DesiredState map[devices.DeviceType]map[string]interface{} `json:"desired_state"`
	CreatedAt    time.Time                                     `json:"created_at"`
	UpdatedAt    time.Time                                     `json:"updated_at"`
}

// Validate performs full validation of the preference definition.
func (p *Preference) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("preference room_id is required")
	}
	if err := p.Conditions.Validate(); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	if len(p.DesiredState) == 0 {
		return fmt.Errorf("desired state must name at least one device type")
	}
	for deviceType := range p.DesiredState {
		if !devices.ValidDeviceType(string(deviceType)) {
			return fmt.Errorf("unknown device type in desired state: %s", deviceType)
		}
	}
	return nil
}

// Clone creates a deep copy of the preference.
func (p *Preference) Clone() *Preference {
	data, _ := json.Marshal(p)
	var clone Preference
	json.Unmarshal(data, &clone)
	return &clone
}

// QuickAction is an unconditional action list executed only on direct
// invocation; it has no triggers or conditions.
type QuickAction struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Actions   []Action  `json:"actions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate performs full validation of the quick action definition.
func (q *QuickAction) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("quick action name is required")
	}
	if len(q.Actions) == 0 {
		return fmt.Errorf("at least one action is required")
	}
	for i := range q.Actions {
		if err := q.Actions[i].Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// Clone creates a deep copy of the quick action.
func (q *QuickAction) Clone() *QuickAction {
	data, _ := json.Marshal(q)
	var clone QuickAction
	json.Unmarshal(data, &clone)
	return &clone
}
