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

// RoutineRepository implements repositories.RoutineRepository
type RoutineRepository struct {
	db *sqlx.DB
}

// NewRoutineRepository creates a new RoutineRepository
func NewRoutineRepository(db *sqlx.DB) repositories.RoutineRepository {
	return &RoutineRepository{db: db}
}

// Upsert inserts a routine record or replaces the existing one
func (r *RoutineRepository) Upsert(ctx context.Context, routine *models.RoutineRecord) error {
	query := `
		INSERT INTO routines (id, name, enabled, definition, last_run, run_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			enabled = excluded.enabled,
			definition = excluded.definition,
			last_run = excluded.last_run,
			run_count = excluded.run_count,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	if routine.CreatedAt.IsZero() {
		routine.CreatedAt = now
	}
	routine.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		routine.ID, routine.Name, routine.Enabled, routine.Definition,
		routine.LastRun, routine.RunCount, routine.CreatedAt, routine.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert routine: %w", err)
	}

	return nil
}

// GetByID retrieves a routine record by ID
func (r *RoutineRepository) GetByID(ctx context.Context, id string) (*models.RoutineRecord, error) {
	query := `
		SELECT id, name, enabled, definition, last_run, run_count, created_at, updated_at
		FROM routines
		WHERE id = ?
	`

	routine := &models.RoutineRecord{}
	err := r.db.GetContext(ctx, routine, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("routine %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}

	return routine, nil
}

// GetAll retrieves all routine records ordered by creation time
func (r *RoutineRepository) GetAll(ctx context.Context) ([]*models.RoutineRecord, error) {
	query := `
		SELECT id, name, enabled, definition, last_run, run_count, created_at, updated_at
		FROM routines
		ORDER BY created_at, id
	`

	routines := []*models.RoutineRecord{}
	if err := r.db.SelectContext(ctx, &routines, query); err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}

	return routines, nil
}

// Delete removes a routine record
func (r *RoutineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return checkAffected(result, "routine", id)
}

// PreferenceRepository implements repositories.PreferenceRepository
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *sqlx.DB) repositories.PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Upsert inserts a preference record or replaces the existing one
func (r *PreferenceRepository) Upsert(ctx context.Context, preference *models.PreferenceRecord) error {
	query := `
		INSERT INTO preferences (id, name, room_id, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			room_id = excluded.room_id,
			definition = excluded.definition,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	if preference.CreatedAt.IsZero() {
		preference.CreatedAt = now
	}
	preference.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		preference.ID, preference.Name, preference.RoomID, preference.Definition,
		preference.CreatedAt, preference.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	return nil
}

// GetByID retrieves a preference record by ID
func (r *PreferenceRepository) GetByID(ctx context.Context, id string) (*models.PreferenceRecord, error) {
	query := `
		SELECT id, name, room_id, definition, created_at, updated_at
		FROM preferences
		WHERE id = ?
	`

	preference := &models.PreferenceRecord{}
	err := r.db.GetContext(ctx, preference, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("preference %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return preference, nil
}

// GetAll retrieves all preference records ordered by creation time
func (r *PreferenceRepository) GetAll(ctx context.Context) ([]*models.PreferenceRecord, error) {
	query := `
		SELECT id, name, room_id, definition, created_at, updated_at
		FROM preferences
		ORDER BY created_at, id
	`

	preferences := []*models.PreferenceRecord{}
	if err := r.db.SelectContext(ctx, &preferences, query); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	return preferences, nil
}

// Delete removes a preference record
func (r *PreferenceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return checkAffected(result, "preference", id)
}

// QuickActionRepository implements repositories.QuickActionRepository
type QuickActionRepository struct {
	db *sqlx.DB
}

// NewQuickActionRepository creates a new QuickActionRepository
func NewQuickActionRepository(db *sqlx.DB) repositories.QuickActionRepository {
	return &QuickActionRepository{db: db}
}

// Upsert inserts a quick action record or replaces the existing one
func (r *QuickActionRepository) Upsert(ctx context.Context, action *models.QuickActionRecord) error {
	query := `
		INSERT INTO quick_actions (id, name, actions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			actions = excluded.actions,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		action.ID, action.Name, action.Actions, action.CreatedAt, action.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert quick action: %w", err)
	}

	return nil
}

// GetByID retrieves a quick action record by ID
func (r *QuickActionRepository) GetByID(ctx context.Context, id string) (*models.QuickActionRecord, error) {
	query := `
		SELECT id, name, actions, created_at, updated_at
		FROM quick_actions
		WHERE id = ?
	`

	action := &models.QuickActionRecord{}
	err := r.db.GetContext(ctx, action, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("quick action %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quick action: %w", err)
	}

	return action, nil
}

// GetAll retrieves all quick action records ordered by creation time
func (r *QuickActionRepository) GetAll(ctx context.Context) ([]*models.QuickActionRecord, error) {
	query := `
		SELECT id, name, actions, created_at, updated_at
		FROM quick_actions
		ORDER BY created_at, id
	`

	actions := []*models.QuickActionRecord{}
	if err := r.db.SelectContext(ctx, &actions, query); err != nil {
		return nil, fmt.Errorf("failed to list quick actions: %w", err)
	}

	return actions, nil
}

// Delete removes a quick action record
func (r *QuickActionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quick_actions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quick action: %w", err)
	}
	return checkAffected(result, "quick action", id)
}

func checkAffected(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return errors.NotFoundf("%s %s not found", kind, id)
	}
	return nil
}
