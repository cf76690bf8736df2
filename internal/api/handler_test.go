package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"booking-service/internal/api"
	"booking-service/internal/broadcast"
	"booking-service/internal/model"
	"booking-service/internal/policy"
	"booking-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubSnapshotSource struct{}

func (stubSnapshotSource) Snapshot(context.Context, uuid.UUID, broadcast.SnapshotVariant) ([]model.Slot, error) {
	return []model.Slot{}, nil
}

type fakeBookingService struct {
	slot        *model.Slot
	err         error
	deleteCalls int
}

func (s *fakeBookingService) PublishSlot(_ context.Context, slot *model.Slot) (*model.Slot, error) {
	if s.err != nil {
		return nil, s.err
	}
	slot.ID = uuid.New()
	return slot, nil
}

func (s *fakeBookingService) ConfirmBooking(context.Context, uuid.UUID, uuid.UUID, string) (*model.Slot, error) {
	return s.slot, s.err
}

func (s *fakeBookingService) DeleteBooking(context.Context, uuid.UUID, *uuid.UUID, time.Time, string, string) (*model.Slot, error) {
	s.deleteCalls++
	return s.slot, s.err
}

func (s *fakeBookingService) Schedule(context.Context, uuid.UUID) ([]model.Slot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.Slot{}, nil
}

type fakeEnrollmentService struct {
	occupancy    *service.ClassOccupancy
	quote        *service.PolicyResult
	err          error
	requestCalls int
	cancelCalls  int
	updateCalls  int
}

func (s *fakeEnrollmentService) RequestSeat(context.Context, uuid.UUID, uuid.UUID) (*service.ClassOccupancy, error) {
	s.requestCalls++
	return s.occupancy, s.err
}

func (s *fakeEnrollmentService) ConfirmStudent(context.Context, uuid.UUID, uuid.UUID, *string, *string) (*service.ClassOccupancy, error) {
	return s.occupancy, s.err
}

func (s *fakeEnrollmentService) RejectRequest(context.Context, uuid.UUID, uuid.UUID) (*service.ClassOccupancy, error) {
	return s.occupancy, s.err
}

func (s *fakeEnrollmentService) CheckCancellationPolicy(context.Context, uuid.UUID) (*service.PolicyResult, error) {
	return s.quote, s.err
}

func (s *fakeEnrollmentService) CancelEnrollment(context.Context, uuid.UUID, uuid.UUID) (*service.ClassOccupancy, *service.PolicyResult, error) {
	s.cancelCalls++
	return s.occupancy, s.quote, s.err
}

func (s *fakeEnrollmentService) CompletePaidCancellation(context.Context, uuid.UUID, uuid.UUID, string) (*service.ClassOccupancy, error) {
	return s.occupancy, s.err
}

func (s *fakeEnrollmentService) UpdateStudentStatus(context.Context, uuid.UUID, uuid.UUID, string, *string, *string) (*service.ClassOccupancy, error) {
	s.updateCalls++
	return s.occupancy, s.err
}

type fakeClassAdminService struct {
	class *model.TicketClass
	err   error
}

func (s *fakeClassAdminService) CreateClass(_ context.Context, class *model.TicketClass) (*model.TicketClass, error) {
	return class, s.err
}

func (s *fakeClassAdminService) GetClass(context.Context, uuid.UUID) (*model.TicketClass, error) {
	return s.class, s.err
}

func newBookingApp(t *testing.T, svc *fakeBookingService) *fiber.App {
	t.Helper()
	hub := broadcast.NewHub(stubSnapshotSource{}, time.Hour)
	t.Cleanup(hub.Stop)

	handler := api.NewBookingHandler(svc, hub)
	app := fiber.New()
	app.Delete("/v1/bookings", handler.DeleteBooking)
	app.Post("/v1/bookings/confirm", handler.ConfirmBooking)
	return app
}

func newClassApp(t *testing.T, svc *fakeEnrollmentService) *fiber.App {
	t.Helper()
	handler := api.NewClassHandler(svc, &fakeClassAdminService{})
	app := fiber.New()
	app.Get("/v1/ticket-classes/:id/cancellation-policy", handler.CheckCancellationPolicy)
	app.Post("/v1/ticket-classes/:id/requests", handler.RequestSeat)
	app.Post("/v1/ticket-classes/:id/cancel", handler.CancelEnrollment)
	app.Patch("/v1/ticket-classes/:id/students/:studentId", handler.UpdateStudentStatus)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestDeleteBookingRejectsMissingFields(t *testing.T) {
	svc := &fakeBookingService{}
	app := newBookingApp(t, svc)

	status, body := doJSON(t, app, "DELETE", "/v1/bookings", `{"instructorId":"`+uuid.NewString()+`"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, body, "error")
	require.Zero(t, svc.deleteCalls)
}

func TestDeleteBookingRejectsBadDate(t *testing.T) {
	svc := &fakeBookingService{}
	app := newBookingApp(t, svc)

	status, _ := doJSON(t, app, "DELETE", "/v1/bookings",
		`{"instructorId":"`+uuid.NewString()+`","date":"10-06-2025","start":"10:00","end":"11:00"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Zero(t, svc.deleteCalls)
}

func TestDeleteBookingNotFound(t *testing.T) {
	svc := &fakeBookingService{err: service.ErrSlotNotFound}
	app := newBookingApp(t, svc)

	status, body := doJSON(t, app, "DELETE", "/v1/bookings",
		`{"instructorId":"`+uuid.NewString()+`","date":"2025-06-10","start":"10:00","end":"11:00"}`)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Contains(t, body, "error")
	require.Equal(t, 1, svc.deleteCalls)
}

func TestDeleteBookingSuccess(t *testing.T) {
	svc := &fakeBookingService{slot: &model.Slot{ID: uuid.New(), InstructorID: uuid.New()}}
	app := newBookingApp(t, svc)

	status, body := doJSON(t, app, "DELETE", "/v1/bookings",
		`{"instructorId":"`+uuid.NewString()+`","date":"2025-06-10","start":"10:00","end":"11:00"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, true, body["success"])
}

func TestConfirmBookingRejectsMissingPayment(t *testing.T) {
	svc := &fakeBookingService{}
	app := newBookingApp(t, svc)

	status, _ := doJSON(t, app, "POST", "/v1/bookings/confirm",
		`{"slotId":"`+uuid.NewString()+`","studentId":"`+uuid.NewString()+`"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestRequestSeatRejectsMissingStudent(t *testing.T) {
	svc := &fakeEnrollmentService{}
	app := newClassApp(t, svc)

	// An empty body must fail validation before any storage mutation; the
	// all-zero student id must never reach the service.
	status, body := doJSON(t, app, "POST", "/v1/ticket-classes/"+uuid.NewString()+"/requests", `{}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, body, "error")
	require.Zero(t, svc.requestCalls)
}

func TestRequestSeatAcceptsBothStudentShapes(t *testing.T) {
	classID := uuid.NewString()

	for _, payload := range []string{
		`{"studentId":"` + uuid.NewString() + `"}`,
		`{"studentId":{"studentId":"` + uuid.NewString() + `"}}`,
	} {
		svc := &fakeEnrollmentService{occupancy: &service.ClassOccupancy{EnrolledStudents: []model.ClassStudent{}, AvailableSpots: 5}}
		app := newClassApp(t, svc)

		status, _ := doJSON(t, app, "POST", "/v1/ticket-classes/"+classID+"/requests", payload)
		require.Equal(t, fiber.StatusCreated, status)
		require.Equal(t, 1, svc.requestCalls)
	}
}

func TestCancelEnrollmentRejectsMissingUser(t *testing.T) {
	svc := &fakeEnrollmentService{}
	app := newClassApp(t, svc)

	status, _ := doJSON(t, app, "POST", "/v1/ticket-classes/"+uuid.NewString()+"/cancel", `{}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Zero(t, svc.cancelCalls)
}

func TestCancelEnrollmentFeeWindowReturnsQuote(t *testing.T) {
	svc := &fakeEnrollmentService{
		err: service.ErrPaymentRequired,
		quote: &service.PolicyResult{
			RequiresPayment: true,
			CancellationFee: policy.CancellationFee,
			HoursDifference: 24,
		},
	}
	app := newClassApp(t, svc)

	status, body := doJSON(t, app, "POST", "/v1/ticket-classes/"+uuid.NewString()+"/cancel",
		`{"userId":"`+uuid.NewString()+`"}`)
	require.Equal(t, fiber.StatusPaymentRequired, status)
	require.Equal(t, true, body["requiresPayment"])
	require.Equal(t, policy.CancellationFee, body["cancellationFee"])
}

func TestCancelEnrollmentNotEnrolled(t *testing.T) {
	svc := &fakeEnrollmentService{err: service.ErrNotEnrolled}
	app := newClassApp(t, svc)

	status, _ := doJSON(t, app, "POST", "/v1/ticket-classes/"+uuid.NewString()+"/cancel",
		`{"userId":"`+uuid.NewString()+`"}`)
	require.Equal(t, fiber.StatusConflict, status)
}

func TestUpdateStudentStatusRejectsUnknownStatus(t *testing.T) {
	svc := &fakeEnrollmentService{}
	app := newClassApp(t, svc)

	status, _ := doJSON(t, app, "PATCH",
		"/v1/ticket-classes/"+uuid.NewString()+"/students/"+uuid.NewString(),
		`{"status":"bogus"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Zero(t, svc.updateCalls)
}

func TestUpdateStudentStatusClassFull(t *testing.T) {
	svc := &fakeEnrollmentService{err: service.ErrClassFull}
	app := newClassApp(t, svc)

	status, _ := doJSON(t, app, "PATCH",
		"/v1/ticket-classes/"+uuid.NewString()+"/students/"+uuid.NewString(),
		`{"status":"confirmed"}`)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, 1, svc.updateCalls)
}

func TestCheckCancellationPolicyValidatesUserParam(t *testing.T) {
	svc := &fakeEnrollmentService{quote: &service.PolicyResult{RequiresPayment: false, HoursDifference: 72}}
	app := newClassApp(t, svc)

	classID := uuid.NewString()

	status, _ := doJSON(t, app, "GET", "/v1/ticket-classes/"+classID+"/cancellation-policy?userId=not-a-uuid", "")
	require.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, "GET", "/v1/ticket-classes/"+classID+"/cancellation-policy?userId="+uuid.NewString(), "")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, false, body["requiresPayment"])
}
