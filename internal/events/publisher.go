package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type EventPublisher interface {
	PublishScheduleUpdated(instructorID uuid.UUID, reason string) error
	PublishBookingCancelled(instructorID, slotID uuid.UUID) error
	PublishEnrollmentChanged(classID, studentID uuid.UUID, status string) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

type ScheduleUpdatedEvent struct {
	EventType    string    `json:"event_type"`
	InstructorID uuid.UUID `json:"instructor_id"`
	Reason       string    `json:"reason"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingCancelledEvent struct {
	EventType    string    `json:"event_type"`
	InstructorID uuid.UUID `json:"instructor_id"`
	SlotID       uuid.UUID `json:"slot_id"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

type EnrollmentChangedEvent struct {
	EventType     string    `json:"event_type"`
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	StudentID     uuid.UUID `json:"student_id"`
	Status        string    `json:"status"`
	ChangedAt     time.Time `json:"changed_at"`
}

// PublishScheduleUpdated announces that an instructor's schedule changed. The
// subject carries the instructor id so the schedule-feed subscriber can fan
// the change out to that instructor's live viewers.
func (p *NatsPublisher) PublishScheduleUpdated(instructorID uuid.UUID, reason string) error {
	event := ScheduleUpdatedEvent{
		EventType:    "schedule.updated",
		InstructorID: instructorID,
		Reason:       reason,
		UpdatedAt:    time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling schedule event", slog.String("error", err.Error()))
		return err
	}

	subject := "schedule.updated." + instructorID.String()
	err = p.conn.Publish(subject, eventJSON)

	if err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	return nil
}

func (p *NatsPublisher) PublishBookingCancelled(instructorID, slotID uuid.UUID) error {
	event := BookingCancelledEvent{
		EventType:    "booking.cancelled",
		InstructorID: instructorID,
		SlotID:       slotID,
		CancelledAt:  time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		return err
	}

	err = p.conn.Publish("booking.cancelled", eventJSON)

	if err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", "booking.cancelled"), slog.String("error", err.Error()))
		return err
	}

	return nil
}

func (p *NatsPublisher) PublishEnrollmentChanged(classID, studentID uuid.UUID, status string) error {
	event := EnrollmentChangedEvent{
		EventType:     "class.enrollment.changed",
		TicketClassID: classID,
		StudentID:     studentID,
		Status:        status,
		ChangedAt:     time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		return err
	}

	err = p.conn.Publish("class.enrollment.changed", eventJSON)

	if err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", "class.enrollment.changed"), slog.String("error", err.Error()))
		return err
	}

	return nil
}
