package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"booking-service/internal/model"
	repo "booking-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newSlotRepo(t *testing.T) (repo.SlotRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return repo.NewPostgresSlotRepository(sqlxDB), mock, func() { db.Close() }
}

func TestPostgresSlotRepository_Insert(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO slots (instructor_id, category, slot_date, start_time, end_time, status)`)).
		WithArgs(sqlmock.AnyArg(), model.CategoryLesson, sqlmock.AnyArg(), "10:00", "11:00", model.SlotFree).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))

	created, err := r.Insert(context.Background(), &model.Slot{
		InstructorID: uuid.New(),
		Category:     model.CategoryLesson,
		SlotDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       model.SlotFree,
	})
	require.NoError(t, err)
	require.Equal(t, id, created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Insert_DuplicateInterval(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO slots`)).
		WillReturnError(sql.ErrConnDone)

	_, err := r.Insert(context.Background(), &model.Slot{
		InstructorID: uuid.New(),
		Category:     model.CategoryGeneral,
		SlotDate:     time.Now(),
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       model.SlotFree,
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Find_OrdersByCategoryPriority(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	instructorID := uuid.New()
	slotID := uuid.New()
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// The priority ranking lives in the query itself, so the test pins the
	// ORDER BY clause.
	mock.ExpectQuery(regexp.QuoteMeta(`CASE category WHEN 'general' THEN 0 WHEN 'lesson' THEN 1 ELSE 2 END`)).
		WithArgs(instructorID, nil, date, "10:00", "11:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "category", "slot_date", "start_time", "end_time", "status", "student_id", "payment_id", "booked_at", "created_at"}).
			AddRow(slotID, instructorID, "general", date, "10:00", "11:00", "free", nil, nil, nil, time.Now()))

	found, err := r.Find(context.Background(), instructorID, nil, date, "10:00", "11:00")
	require.NoError(t, err)
	require.Equal(t, slotID, found.ID)
	require.Equal(t, model.CategoryGeneral, found.Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Find_NoRows(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM slots`)).
		WillReturnError(sql.ErrNoRows)

	found, err := r.Find(context.Background(), uuid.New(), nil, time.Now(), "10:00", "11:00")
	require.NoError(t, err)
	require.Nil(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Delete(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	slotID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM slots WHERE id = $1`)).
		WithArgs(slotID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := r.Delete(context.Background(), slotID)
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Delete_AlreadyGone(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM slots WHERE id = $1`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := r.Delete(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_Confirm_GuardedByStatus(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	slotID := uuid.New()
	studentID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status IN ('free', 'pending')`)).
		WithArgs(slotID, studentID, "pay_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := r.Confirm(context.Background(), slotID, studentID, "pay_1")
	require.NoError(t, err)
	require.True(t, ok)

	// A slot already booked matches zero rows.
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status IN ('free', 'pending')`)).
		WithArgs(slotID, studentID, "pay_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = r.Confirm(context.Background(), slotID, studentID, "pay_1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotRepository_ListByInstructor_Empty(t *testing.T) {
	r, mock, closeDB := newSlotRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE instructor_id = $1`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "category", "slot_date", "start_time", "end_time", "status", "student_id", "payment_id", "booked_at", "created_at"}))

	slots, err := r.ListByInstructor(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, slots)
	require.Empty(t, slots)
	require.NoError(t, mock.ExpectationsWereMet())
}
