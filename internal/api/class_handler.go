package api

import (
	"booking-service/internal/model"
	"booking-service/internal/service"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ClassHandler struct {
	enrollmentService service.EnrollmentService
	classService      service.ClassAdminService
	validate          *validator.Validate
}

func NewClassHandler(enrollmentService service.EnrollmentService, classService service.ClassAdminService) *ClassHandler {
	return &ClassHandler{
		enrollmentService: enrollmentService,
		classService:      classService,
		validate:          validator.New(),
	}
}

type CreateClassRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Location string `json:"location" validate:"max=200"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour     string `json:"hour" validate:"required"`
	Duration string `json:"duration" validate:"required"`
	Spots    int    `json:"spots" validate:"required,min=1"`
}

func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	role := GetRoleFromClaims(c)
	if role != "staff" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Forbidden",
			"message": "Only staff can create ticket classes",
		})
	}

	var request CreateClassRequest

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

	class := &model.TicketClass{
		Name:      request.Name,
		Location:  request.Location,
		ClassDate: date,
		Hour:      request.Hour,
		Duration:  request.Duration,
		Spots:     request.Spots,
	}

	created, err := h.classService.CreateClass(c.Context(), class)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create ticket class"})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	class, err := h.classService.GetClass(c.Context(), classID)

	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not get ticket class"})
	}

	return c.Status(fiber.StatusOK).JSON(class)
}

type SeatRequest struct {
	StudentID model.StudentRef `json:"studentId" validate:"required"`
}

func (h *ClassHandler) RequestSeat(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	var request SeatRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil || request.StudentID.ID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "message": "studentId is required"})
	}

	occupancy, err := h.enrollmentService.RequestSeat(c.Context(), classID, request.StudentID.ID)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyEnrolled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not request seat"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(occupancy)
}

func (h *ClassHandler) CheckCancellationPolicy(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	// The fee decision depends only on the class start; userId is accepted
	// and validated for callers that send it.
	if userID := c.Query("userId"); userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
		}
	}

	result, err := h.enrollmentService.CheckCancellationPolicy(c.Context(), classID)

	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not check cancellation policy"})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

type CancelEnrollmentRequest struct {
	UserID model.StudentRef `json:"userId" validate:"required"`
}

// CancelEnrollment is the free cancellation path. Inside the 48-hour fee
// window nothing is mutated; the client receives the fee quote and must
// complete payment before calling the paid-completion endpoint.
func (h *ClassHandler) CancelEnrollment(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	var request CancelEnrollmentRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil || request.UserID.ID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "message": "userId is required"})
	}

	occupancy, quote, err := h.enrollmentService.CancelEnrollment(c.Context(), classID, request.UserID.ID)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentRequired):
			return c.Status(fiber.StatusPaymentRequired).JSON(quote)
		case errors.Is(err, service.ErrClassNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotEnrolled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			slog.ErrorContext(c.UserContext(), "Error cancelling enrollment", slog.String("error", err.Error()))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not cancel enrollment"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(occupancy)
}

type CompletePaidCancellationRequest struct {
	UserID    model.StudentRef `json:"userId" validate:"required"`
	PaymentID string           `json:"paymentId" validate:"required"`
}

func (h *ClassHandler) CompletePaidCancellation(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	var request CompletePaidCancellationRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil || request.UserID.ID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "message": "userId and paymentId are required"})
	}

	occupancy, err := h.enrollmentService.CompletePaidCancellation(c.Context(), classID, request.UserID.ID, request.PaymentID)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotEnrolled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not complete cancellation"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(occupancy)
}

type UpdateStudentStatusRequest struct {
	Status    string  `json:"status" validate:"required,oneof=confirmed enrolled cancelled rejected"`
	PaymentID *string `json:"paymentId,omitempty"`
	OrderID   *string `json:"orderId,omitempty"`
}

func (h *ClassHandler) UpdateStudentStatus(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
	}

	var request UpdateStudentStatusRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	occupancy, err := h.enrollmentService.UpdateStudentStatus(c.Context(), classID, studentID, request.Status, request.PaymentID, request.OrderID)

	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotEnrolled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrClassFull):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrPaymentRequired):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update student status"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(occupancy)
}
