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

// RoomRepository implements repositories.RoomRepository
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *sqlx.DB) repositories.RoomRepository {
	return &RoomRepository{db: db}
}

// Create creates a new room
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name, icon, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, room.ID, room.Name, room.Icon, room.Description, now, now)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT id, name, icon, description, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`

	room := &models.Room{}
	err := r.db.GetContext(ctx, room, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("room %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// GetAll retrieves all rooms ordered by name
func (r *RoomRepository) GetAll(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, name, icon, description, created_at, updated_at
		FROM rooms
		ORDER BY name
	`

	rooms := []*models.Room{}
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return rooms, nil
}

// Update updates an existing room
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = ?, icon = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, room.Name, room.Icon, room.Description, now, room.ID)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return errors.NotFoundf("room %s not found", room.ID)
	}

	room.UpdatedAt = now
	return nil
}

// Delete removes a room
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return errors.NotFoundf("room %s not found", id)
	}

	return nil
}
