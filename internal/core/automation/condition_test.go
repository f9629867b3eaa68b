package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_Evaluate(t *testing.T) {
	snapshot := Context{
		TimeOfDay:    Evening,
		UserPresence: true,
		OutsideTemp:  12.5,
	}

	tests := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{
			name:      "time of day match",
			condition: Condition{Type: ConditionTimeOfDay, Value: "EVENING"},
			want:      true,
		},
		{
			name:      "time of day mismatch",
			condition: Condition{Type: ConditionTimeOfDay, Value: "MORNING"},
			want:      false,
		},
		{
			name:      "presence match",
			condition: Condition{Type: ConditionUserPresence, Value: true},
			want:      true,
		},
		{
			name:      "presence mismatch",
			condition: Condition{Type: ConditionUserPresence, Value: false},
			want:      false,
		},
		{
			name:      "temperature less than",
			condition: Condition{Type: ConditionOutsideTemperature, Operator: OpLess, Value: 15.0},
			want:      true,
		},
		{
			name:      "temperature greater or equal at boundary",
			condition: Condition{Type: ConditionOutsideTemperature, Operator: OpGreaterEqual, Value: 12.5},
			want:      true,
		},
		{
			name:      "temperature equal mismatch",
			condition: Condition{Type: ConditionOutsideTemperature, Operator: OpEqual, Value: 13.0},
			want:      false,
		},
		{
			name:      "integer threshold accepted",
			condition: Condition{Type: ConditionOutsideTemperature, Operator: OpGreater, Value: 10},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.condition.Evaluate(snapshot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_Evaluate_IsPure(t *testing.T) {
	snapshot := Context{TimeOfDay: Night, UserPresence: false, OutsideTemp: 5}
	condition := Condition{Type: ConditionOutsideTemperature, Operator: OpLessEqual, Value: 5.0}

	for i := 0; i < 3; i++ {
		got, err := condition.Evaluate(snapshot)
		require.NoError(t, err)
		assert.True(t, got)
	}
}

func TestCondition_Validate(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		wantErr   bool
	}{
		{name: "valid time of day", condition: Condition{Type: ConditionTimeOfDay, Value: "NIGHT"}},
		{name: "invalid daypart", condition: Condition{Type: ConditionTimeOfDay, Value: "DUSK"}, wantErr: true},
		{name: "valid presence", condition: Condition{Type: ConditionUserPresence, Value: false}},
		{name: "presence requires bool", condition: Condition{Type: ConditionUserPresence, Value: "yes"}, wantErr: true},
		{name: "valid temperature", condition: Condition{Type: ConditionOutsideTemperature, Operator: OpLess, Value: 20.0}},
		{name: "temperature requires operator", condition: Condition{Type: ConditionOutsideTemperature, Value: 20.0}, wantErr: true},
		{name: "temperature requires number", condition: Condition{Type: ConditionOutsideTemperature, Operator: OpLess, Value: true}, wantErr: true},
		{name: "unknown type", condition: Condition{Type: ConditionType("MOON_PHASE"), Value: "full"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.condition.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConditionGroup_Evaluate(t *testing.T) {
	snapshot := Context{TimeOfDay: Morning, UserPresence: true, OutsideTemp: 20}

	pass := Condition{Type: ConditionUserPresence, Value: true}
	fail := Condition{Type: ConditionUserPresence, Value: false}

	tests := []struct {
		name  string
		group ConditionGroup
		want  bool
	}{
		{
			name:  "AND all pass",
			group: ConditionGroup{LogicalOperator: LogicalAnd, Conditions: []Condition{pass, pass}},
			want:  true,
		},
		{
			name:  "AND one fails",
			group: ConditionGroup{LogicalOperator: LogicalAnd, Conditions: []Condition{pass, fail}},
			want:  false,
		},
		{
			name:  "OR one passes",
			group: ConditionGroup{LogicalOperator: LogicalOr, Conditions: []Condition{fail, pass}},
			want:  true,
		},
		{
			name:  "OR all fail",
			group: ConditionGroup{LogicalOperator: LogicalOr, Conditions: []Condition{fail, fail}},
			want:  false,
		},
		{
			name:  "AND empty is vacuously true",
			group: ConditionGroup{LogicalOperator: LogicalAnd},
			want:  true,
		},
		{
			name:  "OR empty is vacuously false",
			group: ConditionGroup{LogicalOperator: LogicalOr},
			want:  false,
		},
		{
			name:  "missing operator defaults to AND",
			group: ConditionGroup{},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.group.Evaluate(snapshot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrigger_Matches(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		change  ContextChange
		want    bool
	}{
		{
			name:    "time of day transition",
			trigger: Trigger{Type: TriggerTimeOfDayChange, Value: "NIGHT"},
			change:  ContextChange{Dimension: DimensionTimeOfDay, OldValue: "EVENING", NewValue: "NIGHT"},
			want:    true,
		},
		{
			name:    "time of day wrong value",
			trigger: Trigger{Type: TriggerTimeOfDayChange, Value: "MORNING"},
			change:  ContextChange{Dimension: DimensionTimeOfDay, OldValue: "EVENING", NewValue: "NIGHT"},
			want:    false,
		},
		{
			name:    "wrong dimension",
			trigger: Trigger{Type: TriggerUserPresenceChange, Value: true},
			change:  ContextChange{Dimension: DimensionTimeOfDay, OldValue: "EVENING", NewValue: "NIGHT"},
			want:    false,
		},
		{
			name:    "presence transition",
			trigger: Trigger{Type: TriggerUserPresenceChange, Value: false},
			change:  ContextChange{Dimension: DimensionUserPresence, OldValue: true, NewValue: false},
			want:    true,
		},
		{
			name:    "temperature int trigger matches float change",
			trigger: Trigger{Type: TriggerOutsideTempChange, Value: 8},
			change:  ContextChange{Dimension: DimensionOutsideTemperature, OldValue: 10.0, NewValue: float64(8)},
			want:    true,
		},
		{
			name:    "interval change never arms triggers",
			trigger: Trigger{Type: TriggerTimeOfDayChange, Value: "NIGHT"},
			change:  ContextChange{Dimension: DimensionSimulationInterval, OldValue: "2s", NewValue: "1s"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trigger.Matches(tt.change))
		})
	}
}

func TestTrigger_Validate(t *testing.T) {
	assert.NoError(t, (&Trigger{Type: TriggerUserPresenceChange, Value: true}).Validate())
	assert.Error(t, (&Trigger{Type: TriggerType("DOOR_OPENED"), Value: 1}).Validate())
	assert.Error(t, (&Trigger{Type: TriggerTimeOfDayChange, Value: "DUSK"}).Validate())
	assert.Error(t, (&Trigger{Type: TriggerUserPresenceChange}).Validate())
}
