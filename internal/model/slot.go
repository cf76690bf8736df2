package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleCategory tags which of the instructor's three schedules a slot
// belongs to. Lookup order across categories is general, then lesson, then
// driving test.
type ScheduleCategory string

const (
	CategoryGeneral ScheduleCategory = "general"
	CategoryLesson  ScheduleCategory = "lesson"
	CategoryTest    ScheduleCategory = "test"
)

// CategoryPriority returns the search rank of a category. Lower ranks are
// searched first.
func CategoryPriority(c ScheduleCategory) int {
	switch c {
	case CategoryGeneral:
		return 0
	case CategoryLesson:
		return 1
	case CategoryTest:
		return 2
	default:
		return 3
	}
}

type SlotStatus string

const (
	SlotFree      SlotStatus = "free"
	SlotPending   SlotStatus = "pending"
	SlotBooked    SlotStatus = "booked"
	SlotCancelled SlotStatus = "cancelled"
)

// Slot is a single bookable time interval owned by one instructor.
// StartTime and EndTime are wall-clock "HH:MM" values; SlotDate carries the
// calendar date only.
type Slot struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	InstructorID uuid.UUID        `db:"instructor_id" json:"instructor_id"`
	Category     ScheduleCategory `db:"category" json:"category"`
	SlotDate     time.Time        `db:"slot_date" json:"date"`
	StartTime    string           `db:"start_time" json:"start"`
	EndTime      string           `db:"end_time" json:"end"`
	Status       SlotStatus       `db:"status" json:"status"`
	StudentID    *uuid.UUID       `db:"student_id" json:"student_id,omitempty"`
	PaymentID    *string          `db:"payment_id" json:"payment_id,omitempty"`
	BookedAt     *time.Time       `db:"booked_at" json:"booked_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
