package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Room represents a room in the home
type Room struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Icon        sql.NullString `json:"icon" db:"icon"`
	Description sql.NullString `json:"description" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// DeviceRecord is the persisted form of a registry device. State is the
// JSON encoding of the typed state struct.
type DeviceRecord struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Type      string          `json:"type" db:"type"`
	RoomID    sql.NullString  `json:"room_id" db:"room_id"`
	State     json.RawMessage `json:"state" db:"state"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// RoutineRecord is the persisted form of a routine. Definition holds the
// JSON encoding of triggers, conditions and actions.
type RoutineRecord struct {
	ID         string          `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Enabled    bool            `json:"enabled" db:"enabled"`
	Definition json.RawMessage `json:"definition" db:"definition"`
	LastRun    sql.NullTime    `json:"last_run" db:"last_run"`
	RunCount   int64           `json:"run_count" db:"run_count"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// PreferenceRecord is the persisted form of a room preference.
type PreferenceRecord struct {
	ID         string          `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	RoomID     string          `json:"room_id" db:"room_id"`
	Definition json.RawMessage `json:"definition" db:"definition"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// QuickActionRecord is the persisted form of a quick action.
type QuickActionRecord struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Actions   json.RawMessage `json:"actions" db:"actions"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
