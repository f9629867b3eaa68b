package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hestia-ops/hestia-backend-go/internal/database/models"
	"github.com/hestia-ops/hestia-backend-go/internal/database/repositories"
	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
)

// DeviceRepository implements repositories.DeviceRepository
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new DeviceRepository
func NewDeviceRepository(db *sqlx.DB) repositories.DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert inserts a device record or replaces the existing one. The
// registry is the source of truth; persistence follows it.
func (r *DeviceRepository) Upsert(ctx context.Context, device *models.DeviceRecord) error {
	query := `
		INSERT INTO devices (id, name, type, room_id, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			room_id = excluded.room_id,
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	if device.UpdatedAt.IsZero() {
		device.UpdatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, device.ID, device.Name, device.Type, device.RoomID, device.State, device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	return nil
}

// GetByID retrieves a device record by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.DeviceRecord, error) {
	query := `
		SELECT id, name, type, room_id, state, updated_at
		FROM devices
		WHERE id = ?
	`

	device := &models.DeviceRecord{}
	err := r.db.GetContext(ctx, device, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("device %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return device, nil
}

// GetAll retrieves all device records ordered by ID
func (r *DeviceRepository) GetAll(ctx context.Context) ([]*models.DeviceRecord, error) {
	query := `
		SELECT id, name, type, room_id, state, updated_at
		FROM devices
		ORDER BY id
	`

	devices := []*models.DeviceRecord{}
	if err := r.db.SelectContext(ctx, &devices, query); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return devices, nil
}

// GetByRoom retrieves the device records assigned to a room
func (r *DeviceRepository) GetByRoom(ctx context.Context, roomID string) ([]*models.DeviceRecord, error) {
	query := `
		SELECT id, name, type, room_id, state, updated_at
		FROM devices
		WHERE room_id = ?
		ORDER BY id
	`

	devices := []*models.DeviceRecord{}
	if err := r.db.SelectContext(ctx, &devices, query, roomID); err != nil {
		return nil, fmt.Errorf("failed to list devices for room %s: %w", roomID, err)
	}

	return devices, nil
}

// Delete removes a device record
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return errors.NotFoundf("device %s not found", id)
	}

	return nil
}
