package automation

import (
	"fmt"
	"strconv"
)

// ConditionType represents the dimension a condition inspects.
type ConditionType string

const (
	ConditionTimeOfDay          ConditionType = "TIME_OF_DAY"
	ConditionUserPresence       ConditionType = "USER_PRESENCE"
	ConditionOutsideTemperature ConditionType = "OUTSIDE_TEMPERATURE"
)

// Operator is the comparison applied by numeric conditions.
type Operator string

const (
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpGreaterEqual Operator = ">="
	OpGreater      Operator = ">"
)

// LogicalOperator combines the conditions of a group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is a single predicate over the ambient context. Operator is
// required only for numeric condition types.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator,omitempty"`
	Value    interface{}   `json:"value"`
}

// ConditionGroup combines an ordered condition list with AND/OR logic.
type ConditionGroup struct {
	LogicalOperator LogicalOperator `json:"logical_operator"`
	Conditions      []Condition     `json:"conditions"`
}

// Validate checks a single condition's shape.
func (c *Condition) Validate() error {
	switch c.Type {
	case ConditionTimeOfDay:
		s, ok := c.Value.(string)
		if !ok || !ValidTimeOfDay(s) {
			return fmt.Errorf("time of day condition requires a valid daypart value, got %v", c.Value)
		}
	case ConditionUserPresence:
		if _, ok := c.Value.(bool); !ok {
			return fmt.Errorf("user presence condition requires a boolean value, got %v", c.Value)
		}
	case ConditionOutsideTemperature:
		if _, err := toFloat(c.Value); err != nil {
			return fmt.Errorf("outside temperature condition requires a numeric value, got %v", c.Value)
		}
		switch c.Operator {
		case OpLess, OpLessEqual, OpEqual, OpGreaterEqual, OpGreater:
		default:
			return fmt.Errorf("outside temperature condition requires an operator, got %q", c.Operator)
		}
	default:
		return fmt.Errorf("unknown condition type: %s", c.Type)
	}
	return nil
}

// Validate checks the group operator and every member condition.
func (g *ConditionGroup) Validate() error {
	switch g.LogicalOperator {
	case LogicalAnd, LogicalOr:
	case "":
		// Treated as AND by Evaluate; accepted for definitions that
		// omit the operator with an empty condition list.
	default:
		return fmt.Errorf("logical operator must be AND or OR, got %q", g.LogicalOperator)
	}

	for i := range g.Conditions {
		if err := g.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}

// Evaluate resolves the condition against a context snapshot. It is a
// pure function: re-evaluating the same snapshot always yields the same
// result.
func (c *Condition) Evaluate(snapshot Context) (bool, error) {
	switch c.Type {
	case ConditionTimeOfDay:
		expected, ok := c.Value.(string)
		if !ok {
			return false, fmt.Errorf("time of day condition value must be a string, got %T", c.Value)
		}
		return string(snapshot.TimeOfDay) == expected, nil

	case ConditionUserPresence:
		expected, ok := c.Value.(bool)
		if !ok {
			return false, fmt.Errorf("user presence condition value must be a boolean, got %T", c.Value)
		}
		return snapshot.UserPresence == expected, nil

	case ConditionOutsideTemperature:
		threshold, err := toFloat(c.Value)
		if err != nil {
			return false, err
		}
		return compareNumeric(snapshot.OutsideTemp, c.Operator, threshold)

	default:
		return false, fmt.Errorf("unknown condition type: %s", c.Type)
	}
}

// Evaluate resolves the group: AND over an empty list is vacuously
// true, OR over an empty list is vacuously false.
func (g *ConditionGroup) Evaluate(snapshot Context) (bool, error) {
	op := g.LogicalOperator
	if op == "" {
		op = LogicalAnd
	}

	switch op {
	case LogicalAnd:
		for i := range g.Conditions {
			result, err := g.Conditions[i].Evaluate(snapshot)
			if err != nil {
				return false, err
			}
			if !result {
				return false, nil
			}
		}
		return true, nil

	case LogicalOr:
		for i := range g.Conditions {
			result, err := g.Conditions[i].Evaluate(snapshot)
			if err != nil {
				return false, err
			}
			if result {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("invalid logical operator: %s", op)
	}
}

func compareNumeric(actual float64, op Operator, threshold float64) (bool, error) {
	switch op {
	case OpLess:
		return actual < threshold, nil
	case OpLessEqual:
		return actual <= threshold, nil
	case OpEqual:
		return actual == threshold, nil
	case OpGreaterEqual:
		return actual >= threshold, nil
	case OpGreater:
		return actual > threshold, nil
	default:
		return false, fmt.Errorf("invalid operator: %s", op)
	}
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}
