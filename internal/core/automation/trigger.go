package automation

import (
	"fmt"
)

// TriggerType names the context transition a trigger reacts to. Each
// type maps 1:1 to a context dimension; device-level state changes do
// not arm routines.
type TriggerType string

const (
	TriggerTimeOfDayChange    TriggerType = "TIME_OF_DAY_CHANGE"
	TriggerUserPresenceChange TriggerType = "USER_PRESENCE_CHANGE"
	TriggerOutsideTempChange  TriggerType = "OUTSIDE_TEMPERATURE_CHANGE"
)

var triggerDimensions = map[TriggerType]Dimension{
	TriggerTimeOfDayChange:    DimensionTimeOfDay,
	TriggerUserPresenceChange: DimensionUserPresence,
	TriggerOutsideTempChange:  DimensionOutsideTemperature,
}

// Trigger arms a routine when the named dimension transitions to its
// value. A routine's trigger list is OR-combined: any one matching
// transition arms the routine.
type Trigger struct {
	Type  TriggerType `json:"type"`
	Value interface{} `json:"value"`
}

// Validate checks the trigger type and that a value is present.
func (t *Trigger) Validate() error {
	if _, ok := triggerDimensions[t.Type]; !ok {
		return fmt.Errorf("unknown trigger type: %s", t.Type)
	}
	if t.Value == nil {
		return fmt.Errorf("trigger value is required")
	}
	if t.Type == TriggerTimeOfDayChange {
		s, ok := t.Value.(string)
		if !ok || !ValidTimeOfDay(s) {
			return fmt.Errorf("time of day trigger requires a valid daypart value, got %v", t.Value)
		}
	}
	return nil
}

// Matches reports whether a committed context change arms this trigger:
// the dimension must correspond to the trigger type and the new value
// must equal the trigger value.
func (t *Trigger) Matches(change ContextChange) bool {
	dimension, ok := triggerDimensions[t.Type]
	if !ok || dimension != change.Dimension {
		return false
	}
	return compareValues(change.NewValue, t.Value)
}

// compareValues normalizes both sides through formatting so that
// JSON-decoded numbers and native types compare equal.
func compareValues(actual, expected interface{}) bool {
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}
