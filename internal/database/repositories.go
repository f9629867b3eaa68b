package database

import (
	"github.com/jmoiron/sqlx"

	"github.com/hestia-ops/hestia-backend-go/internal/database/repositories"
	"github.com/hestia-ops/hestia-backend-go/internal/database/sqlite"
)

// NewRepositories wires the SQLite implementations behind the
// repository interfaces.
func NewRepositories(db *sqlx.DB) *repositories.Repositories {
	return &repositories.Repositories{
		Room:        sqlite.NewRoomRepository(db),
		Device:      sqlite.NewDeviceRepository(db),
		Routine:     sqlite.NewRoutineRepository(db),
		Preference:  sqlite.NewPreferenceRepository(db),
		QuickAction: sqlite.NewQuickActionRepository(db),
	}
}
