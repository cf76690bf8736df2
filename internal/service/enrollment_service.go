package service

import (
	"booking-service/internal/events"
	"booking-service/internal/model"
	"booking-service/internal/policy"
	"booking-service/internal/repository"
	"context"
	"time"

	"github.com/google/uuid"
)

// PolicyResult is the quote returned by the read-only policy check and on the
// payment-required cancellation path.
type PolicyResult struct {
	RequiresPayment bool    `json:"requiresPayment"`
	CancellationFee float64 `json:"cancellationFee,omitempty"`
	HoursDifference float64 `json:"hoursDifference"`
}

// ClassOccupancy is reported to callers after every enrollment mutation.
type ClassOccupancy struct {
	EnrolledStudents []model.ClassStudent `json:"enrolledStudents"`
	AvailableSpots   int                  `json:"availableSpots"`
}

// EnrollmentService drives the per-(class, student) state machine:
// requested -> confirmed -> cancelled (free or paid) -> redeemed, with
// rejected terminal from requested.
type EnrollmentService interface {
	RequestSeat(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, error)
	ConfirmStudent(ctx context.Context, classID, studentID uuid.UUID, paymentID, orderID *string) (*ClassOccupancy, error)
	RejectRequest(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, error)
	CheckCancellationPolicy(ctx context.Context, classID uuid.UUID) (*PolicyResult, error)
	// CancelEnrollment is the free path: inside the fee window it mutates
	// nothing and returns ErrPaymentRequired together with the quote.
	CancelEnrollment(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, *PolicyResult, error)
	// CompletePaidCancellation performs the same mutation after the caller
	// verified payment; the 48-hour gate does not apply.
	CompletePaidCancellation(ctx context.Context, classID, studentID uuid.UUID, paymentID string) (*ClassOccupancy, error)
	UpdateStudentStatus(ctx context.Context, classID, studentID uuid.UUID, status string, paymentID, orderID *string) (*ClassOccupancy, error)
}

type enrollmentService struct {
	classRepo  repository.ClassRepository
	creditRepo repository.CreditRepository
	publisher  events.EventPublisher
	now        func() time.Time
}

func NewEnrollmentService(classRepo repository.ClassRepository, creditRepo repository.CreditRepository, pub events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		classRepo:  classRepo,
		creditRepo: creditRepo,
		publisher:  pub,
		now:        time.Now,
	}
}

// NewEnrollmentServiceWithClock injects the clock; used by tests exercising
// the 48-hour boundary.
func NewEnrollmentServiceWithClock(classRepo repository.ClassRepository, creditRepo repository.CreditRepository, pub events.EventPublisher, now func() time.Time) EnrollmentService {
	return &enrollmentService{
		classRepo:  classRepo,
		creditRepo: creditRepo,
		publisher:  pub,
		now:        now,
	}
}

func (s *enrollmentService) RequestSeat(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	ok, err := s.classRepo.InsertRequest(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyEnrolled
	}

	go s.publisher.PublishEnrollmentChanged(classID, studentID, string(model.EnrollmentRequested))

	return s.occupancy(ctx, class)
}

func (s *enrollmentService) ConfirmStudent(ctx context.Context, classID, studentID uuid.UUID, paymentID, orderID *string) (*ClassOccupancy, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	ok, err := s.classRepo.ConfirmStudent(ctx, classID, studentID, paymentID, orderID)
	if err != nil {
		return nil, err
	}

	if !ok {
		student, err := s.classRepo.GetStudent(ctx, classID, studentID)
		if err != nil {
			return nil, err
		}
		if student == nil {
			return nil, ErrNotEnrolled
		}
		// A duplicate confirm for an already-confirmed student is a no-op
		// success.
		if student.Status == model.EnrollmentConfirmed {
			return s.occupancy(ctx, class)
		}
		if student.Status == model.EnrollmentRequested {
			return nil, ErrClassFull
		}
		return nil, ErrNotEnrolled
	}

	// Confirming consumes any unredeemed credit the student held for this
	// same class. The flip is guarded by redeemed = FALSE, so a credit can
	// back at most one enrollment.
	if _, err := s.creditRepo.MarkRedeemed(ctx, studentID, classID); err != nil {
		return nil, err
	}

	go s.publisher.PublishEnrollmentChanged(classID, studentID, string(model.EnrollmentConfirmed))

	return s.occupancy(ctx, class)
}

func (s *enrollmentService) RejectRequest(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	// Payment never completed, so the request is simply removed and no
	// credit is created.
	ok, err := s.classRepo.DeleteRequest(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotEnrolled
	}

	go s.publisher.PublishEnrollmentChanged(classID, studentID, string(model.EnrollmentRejected))

	return s.occupancy(ctx, class)
}

func (s *enrollmentService) CheckCancellationPolicy(ctx context.Context, classID uuid.UUID) (*PolicyResult, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	decision, err := policy.Evaluate(class.ClassDate, class.Hour, s.now())
	if err != nil {
		return nil, err
	}

	return &PolicyResult{
		RequiresPayment: decision.FeeRequired,
		CancellationFee: decision.Fee,
		HoursDifference: decision.HoursUntilStart,
	}, nil
}

func (s *enrollmentService) CancelEnrollment(ctx context.Context, classID, studentID uuid.UUID) (*ClassOccupancy, *PolicyResult, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, nil, err
	}
	if class == nil {
		return nil, nil, ErrClassNotFound
	}

	student, err := s.classRepo.GetStudent(ctx, classID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil || student.Status != model.EnrollmentConfirmed {
		return nil, nil, ErrNotEnrolled
	}

	decision, err := policy.Evaluate(class.ClassDate, class.Hour, s.now())
	if err != nil {
		return nil, nil, err
	}

	if decision.FeeRequired {
		quote := &PolicyResult{
			RequiresPayment: true,
			CancellationFee: decision.Fee,
			HoursDifference: decision.HoursUntilStart,
		}
		return nil, quote, ErrPaymentRequired
	}

	return s.cancelConfirmed(ctx, class, studentID, false, nil)
}

func (s *enrollmentService) CompletePaidCancellation(ctx context.Context, classID, studentID uuid.UUID, paymentID string) (*ClassOccupancy, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	student, err := s.classRepo.GetStudent(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Status != model.EnrollmentConfirmed {
		return nil, ErrNotEnrolled
	}

	occupancy, _, err := s.cancelConfirmed(ctx, class, studentID, true, &paymentID)
	return occupancy, err
}

func (s *enrollmentService) UpdateStudentStatus(ctx context.Context, classID, studentID uuid.UUID, status string, paymentID, orderID *string) (*ClassOccupancy, error) {
	switch status {
	case "confirmed", "enrolled":
		return s.ConfirmStudent(ctx, classID, studentID, paymentID, orderID)
	case "cancelled":
		if paymentID != nil {
			return s.CompletePaidCancellation(ctx, classID, studentID, *paymentID)
		}
		occupancy, _, err := s.CancelEnrollment(ctx, classID, studentID)
		return occupancy, err
	case "rejected":
		return s.RejectRequest(ctx, classID, studentID)
	default:
		return nil, ErrInvalidStatus
	}
}

// cancelConfirmed is the shared mutation behind both cancellation paths: flip
// the membership row, then record the credit. paidFee distinguishes which
// path created the credit.
func (s *enrollmentService) cancelConfirmed(ctx context.Context, class *model.TicketClass, studentID uuid.UUID, paidFee bool, paymentID *string) (*ClassOccupancy, *PolicyResult, error) {
	ok, err := s.classRepo.CancelStudent(ctx, class.ID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotEnrolled
	}

	credit := &model.CancelledCredit{
		UserID:              studentID,
		TicketClassID:       class.ID,
		ClassName:           class.Name,
		Location:            class.Location,
		ClassDate:           class.ClassDate,
		Hour:                class.Hour,
		Duration:            class.Duration,
		PaidCancellationFee: paidFee,
		CancelledAt:         s.now(),
	}
	if paidFee {
		credit.Amount = policy.CancellationFee
	}

	if _, err := s.creditRepo.Insert(ctx, credit); err != nil {
		return nil, nil, err
	}

	go s.publisher.PublishEnrollmentChanged(class.ID, studentID, string(model.EnrollmentCancelled))

	occupancy, err := s.occupancy(ctx, class)
	if err != nil {
		return nil, nil, err
	}
	return occupancy, nil, nil
}

func (s *enrollmentService) occupancy(ctx context.Context, class *model.TicketClass) (*ClassOccupancy, error) {
	students, err := s.classRepo.ListStudents(ctx, class.ID, model.EnrollmentConfirmed)
	if err != nil {
		return nil, err
	}

	return &ClassOccupancy{
		EnrolledStudents: students,
		AvailableSpots:   class.Spots - len(students),
	}, nil
}
