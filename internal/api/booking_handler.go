package api

import (
	"booking-service/internal/broadcast"
	"booking-service/internal/model"
	"booking-service/internal/service"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	bookingService service.BookingService
	hub            *broadcast.Hub
	validate       *validator.Validate
}

func NewBookingHandler(bookingService service.BookingService, hub *broadcast.Hub) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		hub:            hub,
		validate:       validator.New(),
	}
}

type DeleteBookingRequest struct {
	BookingID    *string `json:"bookingId,omitempty"`
	InstructorID string  `json:"instructorId" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Start        string  `json:"start" validate:"required"`
	End          string  `json:"end" validate:"required"`
}

func (h *BookingHandler) DeleteBooking(c *fiber.Ctx) error {
	var request DeleteBookingRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields", "details": err.Error()})
	}

	instructorID, err := uuid.Parse(request.InstructorID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	var slotID *uuid.UUID
	if request.BookingID != nil && *request.BookingID != "" {
		parsed, err := uuid.Parse(*request.BookingID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
		}
		slotID = &parsed
	}

	date, err := time.Parse(dateLayout, request.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format"})
	}

	slot, err := h.bookingService.DeleteBooking(c.Context(), instructorID, slotID, date, request.Start, request.End)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstructorNotFound), errors.Is(err, service.ErrSlotNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		default:
			slog.ErrorContext(c.UserContext(), "Error deleting booking", slog.String("error", err.Error()))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete booking"})
		}
	}

	// Broadcast only after the mutation is confirmed; a failed delete must
	// never push a stale snapshot.
	h.hub.Broadcast(slot.InstructorID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

type PublishSlotRequest struct {
	Category string `json:"category" validate:"required,oneof=general lesson test"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
}

func (h *BookingHandler) PublishSlot(c *fiber.Ctx) error {
	role := GetRoleFromClaims(c)
	if role != "staff" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Forbidden",
			"message": "Only staff can publish availability",
		})
	}

	instructorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	var request PublishSlotRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	date, err := time.Parse(dateLayout, request.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format"})
	}

	slot := &model.Slot{
		InstructorID: instructorID,
		Category:     model.ScheduleCategory(request.Category),
		SlotDate:     date,
		StartTime:    request.Start,
		EndTime:      request.End,
		Status:       model.SlotFree,
	}

	created, err := h.bookingService.PublishSlot(c.Context(), slot)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstructorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrSlotTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not publish slot"})
		}
	}

	h.hub.Broadcast(created.InstructorID)

	return c.Status(fiber.StatusCreated).JSON(created)
}

type ConfirmBookingRequest struct {
	SlotID    string           `json:"slotId" validate:"required"`
	StudentID model.StudentRef `json:"studentId" validate:"required"`
	PaymentID string           `json:"paymentId" validate:"required"`
}

// ConfirmBooking marks a slot booked once the payment collaborator reports
// completion. Payment verification itself happens upstream.
func (h *BookingHandler) ConfirmBooking(c *fiber.Ctx) error {
	var request ConfirmBookingRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	slotID, err := uuid.Parse(request.SlotID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot ID format"})
	}

	slot, err := h.bookingService.ConfirmBooking(c.Context(), slotID, request.StudentID.ID, request.PaymentID)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyBooked):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not confirm booking"})
		}
	}

	h.hub.Broadcast(slot.InstructorID)

	return c.Status(fiber.StatusOK).JSON(slot)
}

func (h *BookingHandler) GetSchedule(c *fiber.Ctx) error {
	instructorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	schedule, err := h.bookingService.Schedule(c.Context(), instructorID)
	if err != nil {
		if errors.Is(err, service.ErrInstructorNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch schedule"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"schedule": schedule})
}
