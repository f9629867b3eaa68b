package repositories

import (
	"context"

	"github.com/hestia-ops/hestia-backend-go/internal/database/models"
)

// RoomRepository defines room persistence operations
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id string) (*models.Room, error)
	GetAll(ctx context.Context) ([]*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// DeviceRepository defines device persistence operations
type DeviceRepository interface {
	Upsert(ctx context.Context, device *models.DeviceRecord) error
	GetByID(ctx context.Context, id string) (*models.DeviceRecord, error)
	GetAll(ctx context.Context) ([]*models.DeviceRecord, error)
	GetByRoom(ctx context.Context, roomID string) ([]*models.DeviceRecord, error)
	Delete(ctx context.Context, id string) error
}

// RoutineRepository defines routine persistence operations
type RoutineRepository interface {
	Upsert(ctx context.Context, routine *models.RoutineRecord) error
	GetByID(ctx context.Context, id string) (*models.RoutineRecord, error)
	GetAll(ctx context.Context) ([]*models.RoutineRecord, error)
	Delete(ctx context.Context, id string) error
}

// PreferenceRepository defines preference persistence operations
type PreferenceRepository interface {
	Upsert(ctx context.Context, preference *models.PreferenceRecord) error
	GetByID(ctx context.Context, id string) (*models.PreferenceRecord, error)
	GetAll(ctx context.Context) ([]*models.PreferenceRecord, error)
	Delete(ctx context.Context, id string) error
}

// QuickActionRepository defines quick action persistence operations
type QuickActionRepository interface {
	Upsert(ctx context.Context, action *models.QuickActionRecord) error
	GetByID(ctx context.Context, id string) (*models.QuickActionRecord, error)
	GetAll(ctx context.Context) ([]*models.QuickActionRecord, error)
	Delete(ctx context.Context, id string) error
}

// Repositories aggregates all repository implementations
type Repositories struct {
	Room        RoomRepository
	Device      DeviceRepository
	Routine     RoutineRepository
	Preference  PreferenceRepository
	QuickAction QuickActionRepository
}
