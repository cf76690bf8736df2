package service

import (
	"booking-service/internal/broadcast"
	"booking-service/internal/events"
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingService owns the slot lifecycle: publishing availability, confirming
// a booking once payment completes, and deleting a booking. It is the only
// writer of instructor schedules.
type BookingService interface {
	PublishSlot(ctx context.Context, slot *model.Slot) (*model.Slot, error)
	ConfirmBooking(ctx context.Context, slotID, studentID uuid.UUID, paymentID string) (*model.Slot, error)
	DeleteBooking(ctx context.Context, instructorID uuid.UUID, slotID *uuid.UUID, date time.Time, start, end string) (*model.Slot, error)
	Schedule(ctx context.Context, instructorID uuid.UUID) ([]model.Slot, error)
}

type bookingService struct {
	instructorRepo repository.InstructorRepository
	slotRepo       repository.SlotRepository
	publisher      events.EventPublisher
}

func NewBookingService(instructorRepo repository.InstructorRepository, slotRepo repository.SlotRepository, pub events.EventPublisher) BookingService {
	return &bookingService{
		instructorRepo: instructorRepo,
		slotRepo:       slotRepo,
		publisher:      pub,
	}
}

func (s *bookingService) PublishSlot(ctx context.Context, slot *model.Slot) (*model.Slot, error) {
	exists, err := s.instructorRepo.Exists(ctx, slot.InstructorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrInstructorNotFound
	}

	if slot.Status == "" {
		slot.Status = model.SlotFree
	}

	created, err := s.slotRepo.Insert(ctx, slot)
	if err != nil {
		// The unique (instructor, date, start, end) constraint guards
		// against a duplicate time interval in any category.
		return nil, ErrSlotTaken
	}

	go s.publisher.PublishScheduleUpdated(created.InstructorID, "slot.published")

	return created, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, slotID, studentID uuid.UUID, paymentID string) (*model.Slot, error) {
	ok, err := s.slotRepo.Confirm(ctx, slotID, studentID, paymentID)
	if err != nil {
		return nil, err
	}

	if !ok {
		slot, err := s.slotRepo.GetByID(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			return nil, ErrSlotNotFound
		}
		// A repeated confirm for the same student is a no-op success.
		if slot.Status == model.SlotBooked && slot.StudentID != nil && *slot.StudentID == studentID {
			return slot, nil
		}
		return nil, ErrAlreadyBooked
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	// A concurrent delete can remove the slot between the confirm and the
	// re-fetch; the booking no longer exists.
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	go s.publisher.PublishScheduleUpdated(slot.InstructorID, "booking.confirmed")

	return slot, nil
}

// DeleteBooking resolves the slot via the category-priority search and
// removes it. The removal itself is a single identifier-scoped delete, so of
// two concurrent cancellations exactly one succeeds; the loser observes
// ErrSlotNotFound.
func (s *bookingService) DeleteBooking(ctx context.Context, instructorID uuid.UUID, slotID *uuid.UUID, date time.Time, start, end string) (*model.Slot, error) {
	exists, err := s.instructorRepo.Exists(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrInstructorNotFound
	}

	slot, err := s.slotRepo.Find(ctx, instructorID, slotID, date, start, end)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	deleted, err := s.slotRepo.Delete(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrSlotNotFound
	}

	go s.publisher.PublishScheduleUpdated(instructorID, "booking.deleted")
	go s.publisher.PublishBookingCancelled(instructorID, slot.ID)

	return slot, nil
}

func (s *bookingService) Schedule(ctx context.Context, instructorID uuid.UUID) ([]model.Slot, error) {
	exists, err := s.instructorRepo.Exists(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrInstructorNotFound
	}

	return s.slotRepo.ListByInstructor(ctx, instructorID)
}

// ScheduleSnapshotter adapts the slot repository to the broadcast hub's
// snapshot contract.
type ScheduleSnapshotter struct {
	slotRepo repository.SlotRepository
}

func NewScheduleSnapshotter(slotRepo repository.SlotRepository) *ScheduleSnapshotter {
	return &ScheduleSnapshotter{slotRepo: slotRepo}
}

func (s *ScheduleSnapshotter) Snapshot(ctx context.Context, instructorID uuid.UUID, variant broadcast.SnapshotVariant) ([]model.Slot, error) {
	if variant == broadcast.VariantLessons {
		return s.slotRepo.ListByInstructorCategory(ctx, instructorID, model.CategoryLesson)
	}
	return s.slotRepo.ListByInstructor(ctx, instructorID)
}
