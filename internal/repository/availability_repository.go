package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-school-api/internal/models"
)

const availabilityColumns = `id, owner_user_id, day_of_week, start_time, end_time, category, created_at, updated_at`

// AvailabilityRepository persists weekly availability slots.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByOwner returns an owner's slots ordered by day and start time.
func (r *AvailabilityRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_slots WHERE owner_user_id = $1 ORDER BY day_of_week ASC, start_time ASC, end_time ASC`
	var slots []models.AvailabilitySlot
	if err := r.db.SelectContext(ctx, &slots, query, ownerID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}

// ListByOwnerDay returns one day of an owner's slots.
func (r *AvailabilityRepository) ListByOwnerDay(ctx context.Context, exec sqlx.ExtContext, ownerID string, day int) ([]models.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_slots WHERE owner_user_id = $1 AND day_of_week = $2 ORDER BY start_time ASC, end_time ASC`
	var slots []models.AvailabilitySlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, ownerID, day); err != nil {
		return nil, fmt.Errorf("list availability day: %w", err)
	}
	return slots, nil
}

// FindByID fetches a slot. It returns sql.ErrNoRows when absent.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_slots WHERE id = $1`
	var slot models.AvailabilitySlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a slot, assigning its id and timestamps when unset.
func (r *AvailabilityRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO availability_slots (id, owner_user_id, day_of_week, start_time, end_time, category, created_at, updated_at)
VALUES (:id, :owner_user_id, :day_of_week, :start_time, :end_time, :category, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create availability slot: %w", err)
	}
	return nil
}

// Update rewrites a slot's interval and category. It returns sql.ErrNoRows when absent.
func (r *AvailabilityRepository) Update(ctx context.Context, slot *models.AvailabilitySlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_slots SET start_time = $1, end_time = $2, category = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, slot.StartTime, slot.EndTime, slot.Category, slot.UpdatedAt, slot.ID)
	if err != nil {
		return fmt.Errorf("update availability slot: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a slot and reports whether a row was deleted.
func (r *AvailabilityRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	const query = `DELETE FROM availability_slots WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete availability slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete availability slot rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteDay removes every slot an owner has on a day.
func (r *AvailabilityRepository) DeleteDay(ctx context.Context, exec sqlx.ExtContext, ownerID string, day int) (int64, error) {
	const query = `DELETE FROM availability_slots WHERE owner_user_id = $1 AND day_of_week = $2`
	res, err := r.exec(exec).ExecContext(ctx, query, ownerID, day)
	if err != nil {
		return 0, fmt.Errorf("delete availability day: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete availability day rows: %w", err)
	}
	return affected, nil
}
