package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the per-(class, student) state. A student holds at most
// one row per class, so they can never appear as both requested and confirmed.
type EnrollmentStatus string

const (
	EnrollmentRequested EnrollmentStatus = "requested"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentRejected  EnrollmentStatus = "rejected"
)

// TicketClass is a scheduled, capacity-bounded group session. Hour is the
// wall-clock "HH:MM" start; Spots is the total seat count.
type TicketClass struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	ClassDate time.Time `db:"class_date" json:"date"`
	Hour      string    `db:"hour" json:"hour"`
	Duration  string    `db:"duration" json:"duration"`
	Spots     int       `db:"spots" json:"spots"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassStudent is one student's membership row in a ticket class.
type ClassStudent struct {
	TicketClassID uuid.UUID        `db:"ticket_class_id" json:"ticket_class_id"`
	StudentID     uuid.UUID        `db:"student_id" json:"student_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt    *time.Time       `db:"enrolled_at" json:"enrolled_at,omitempty"`
	PaymentID     *string          `db:"payment_id" json:"payment_id,omitempty"`
	OrderID       *string          `db:"order_id" json:"order_id,omitempty"`
}
