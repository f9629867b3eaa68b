package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/database/models"
)

// routineDefinition is the persisted JSON shape of a routine's logic.
type routineDefinition struct {
	Triggers   []automation.Trigger      `json:"triggers"`
	Conditions automation.ConditionGroup `json:"conditions"`
	Actions    []automation.Action       `json:"actions"`
}

// preferenceDefinition is the persisted JSON shape of a preference's
// logic.
type preferenceDefinition struct {
	Conditions   automation.ConditionGroup                     `json:"conditions"`
	DesiredState map[devices.DeviceType]map[string]interface{} `json:"desired_state"`
}

// DeviceToRecord converts a registry device into its persisted form.
func DeviceToRecord(d *devices.Device) (*models.DeviceRecord, error) {
	state, err := json.Marshal(d.State)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device state: %w", err)
	}

	return &models.DeviceRecord{
		ID:        d.ID,
		Name:      d.Name,
		Type:      string(d.Type),
		RoomID:    nullString(d.RoomID),
		State:     state,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// RecordToDevice rehydrates a registry device from its persisted form.
func RecordToDevice(rec *models.DeviceRecord) (*devices.Device, error) {
	deviceType := devices.DeviceType(rec.Type)
	state, err := devices.UnmarshalState(deviceType, rec.State)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", rec.ID, err)
	}

	return &devices.Device{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      deviceType,
		RoomID:    rec.RoomID.String,
		State:     state,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// RoutineToRecord converts a routine into its persisted form.
func RoutineToRecord(r *automation.Routine) (*models.RoutineRecord, error) {
	definition, err := json.Marshal(routineDefinition{
		Triggers:   r.Triggers,
		Conditions: r.Conditions,
		Actions:    r.Actions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode routine definition: %w", err)
	}

	rec := &models.RoutineRecord{
		ID:         r.ID,
		Name:       r.Name,
		Enabled:    r.Enabled,
		Definition: definition,
		RunCount:   r.RunCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.LastRun != nil {
		rec.LastRun = sql.NullTime{Time: *r.LastRun, Valid: true}
	}
	return rec, nil
}

// RecordToRoutine rehydrates a routine from its persisted form.
func RecordToRoutine(rec *models.RoutineRecord) (*automation.Routine, error) {
	var definition routineDefinition
	if err := json.Unmarshal(rec.Definition, &definition); err != nil {
		return nil, fmt.Errorf("routine %s: %w", rec.ID, err)
	}

	r := &automation.Routine{
		ID:         rec.ID,
		Name:       rec.Name,
		Enabled:    rec.Enabled,
		Triggers:   definition.Triggers,
		Conditions: definition.Conditions,
		Actions:    definition.Actions,
		RunCount:   rec.RunCount,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	if rec.LastRun.Valid {
		lastRun := rec.LastRun.Time
		r.LastRun = &lastRun
	}
	return r, nil
}

// PreferenceToRecord converts a preference into its persisted form.
func PreferenceToRecord(p *automation.Preference) (*models.PreferenceRecord, error) {
	definition, err := json.Marshal(preferenceDefinition{
		Conditions:   p.Conditions,
		DesiredState: p.DesiredState,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode preference definition: %w", err)
	}

	return &models.PreferenceRecord{
		ID:         p.ID,
		Name:       p.Name,
		RoomID:     p.RoomID,
		Definition: definition,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

// RecordToPreference rehydrates a preference from its persisted form.
func RecordToPreference(rec *models.PreferenceRecord) (*automation.Preference, error) {
	var definition preferenceDefinition
	if err := json.Unmarshal(rec.Definition, &definition); err != nil {
		return nil, fmt.Errorf("preference %s: %w", rec.ID, err)
	}

	return &automation.Preference{
		ID:           rec.ID,
		Name:         rec.Name,
		RoomID:       rec.RoomID,
		Conditions:   definition.Conditions,
		DesiredState: definition.DesiredState,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// QuickActionToRecord converts a quick action into its persisted form.
func QuickActionToRecord(q *automation.QuickAction) (*models.QuickActionRecord, error) {
	actions, err := json.Marshal(q.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quick action list: %w", err)
	}

	return &models.QuickActionRecord{
		ID:        q.ID,
		Name:      q.Name,
		Actions:   actions,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}, nil
}

// RecordToQuickAction rehydrates a quick action from its persisted form.
func RecordToQuickAction(rec *models.QuickActionRecord) (*automation.QuickAction, error) {
	var actions []automation.Action
	if err := json.Unmarshal(rec.Actions, &actions); err != nil {
		return nil, fmt.Errorf("quick action %s: %w", rec.ID, err)
	}

	return &automation.QuickAction{
		ID:        rec.ID,
		Name:      rec.Name,
		Actions:   actions,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
