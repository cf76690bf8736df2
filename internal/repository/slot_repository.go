package repository

import (
	"booking-service/internal/model"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SlotRepository interface {
	Insert(ctx context.Context, slot *model.Slot) (*model.Slot, error)
	// Find resolves a slot for one instructor, searching categories in
	// general, lesson, test order. Within that order an id match outranks a
	// (date, start, end) match. slotID may be nil when the caller only has
	// the time triple.
	Find(ctx context.Context, instructorID uuid.UUID, slotID *uuid.UUID, date time.Time, start, end string) (*model.Slot, error)
	GetByID(ctx context.Context, slotID uuid.UUID) (*model.Slot, error)
	Delete(ctx context.Context, slotID uuid.UUID) (bool, error)
	Confirm(ctx context.Context, slotID, studentID uuid.UUID, paymentID string) (bool, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Slot, error)
	ListByInstructorCategory(ctx context.Context, instructorID uuid.UUID, category model.ScheduleCategory) ([]model.Slot, error)
}

type postgresSlotRepository struct {
	db *sqlx.DB
}

func NewPostgresSlotRepository(db *sqlx.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) Insert(ctx context.Context, slot *model.Slot) (*model.Slot, error) {
	query := `
		INSERT INTO slots (instructor_id, category, slot_date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query, slot.InstructorID, slot.Category, slot.SlotDate, slot.StartTime, slot.EndTime, slot.Status)
	err := row.Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	return slot, nil
}

func (r *postgresSlotRepository) Find(ctx context.Context, instructorID uuid.UUID, slotID *uuid.UUID, date time.Time, start, end string) (*model.Slot, error) {
	var slot model.Slot
	query := `
		SELECT id, instructor_id, category, slot_date, start_time, end_time, status, student_id, payment_id, booked_at, created_at
		FROM slots
		WHERE instructor_id = $1
		  AND (id = $2 OR (slot_date = $3 AND start_time = $4 AND end_time = $5))
		ORDER BY
			CASE category WHEN 'general' THEN 0 WHEN 'lesson' THEN 1 ELSE 2 END,
			CASE WHEN id = $2 THEN 0 ELSE 1 END
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &slot, query, instructorID, slotID, date, start, end)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("find slot: %w", err)
	}

	return &slot, nil
}

func (r *postgresSlotRepository) GetByID(ctx context.Context, slotID uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	query := `
		SELECT id, instructor_id, category, slot_date, start_time, end_time, status, student_id, payment_id, booked_at, created_at
		FROM slots
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &slot, query, slotID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("get slot: %w", err)
	}

	return &slot, nil
}

// Delete is a single identifier-scoped statement so two concurrent
// cancellations of the same slot can never both observe success.
func (r *postgresSlotRepository) Delete(ctx context.Context, slotID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, slotID)

	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresSlotRepository) Confirm(ctx context.Context, slotID, studentID uuid.UUID, paymentID string) (bool, error) {
	query := `
		UPDATE slots
		SET status = 'booked', student_id = $2, payment_id = $3, booked_at = now()
		WHERE id = $1 AND status IN ('free', 'pending')
	`

	result, err := r.db.ExecContext(ctx, query, slotID, studentID, paymentID)

	if err != nil {
		return false, fmt.Errorf("confirm slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresSlotRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Slot, error) {
	var slots []model.Slot
	query := `
		SELECT id, instructor_id, category, slot_date, start_time, end_time, status, student_id, payment_id, booked_at, created_at
		FROM slots
		WHERE instructor_id = $1
		ORDER BY
			CASE category WHEN 'general' THEN 0 WHEN 'lesson' THEN 1 ELSE 2 END,
			slot_date, start_time
	`

	err := r.db.SelectContext(ctx, &slots, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	if slots == nil {
		slots = []model.Slot{}
	}

	return slots, nil
}

func (r *postgresSlotRepository) ListByInstructorCategory(ctx context.Context, instructorID uuid.UUID, category model.ScheduleCategory) ([]model.Slot, error) {
	var slots []model.Slot
	query := `
		SELECT id, instructor_id, category, slot_date, start_time, end_time, status, student_id, payment_id, booked_at, created_at
		FROM slots
		WHERE instructor_id = $1 AND category = $2
		ORDER BY slot_date, start_time
	`

	err := r.db.SelectContext(ctx, &slots, query, instructorID, category)
	if err != nil {
		return nil, fmt.Errorf("list slots by category: %w", err)
	}

	if slots == nil {
		slots = []model.Slot{}
	}

	return slots, nil
}
