package repository_test

import (
	"context"
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

func newCreditRepo(t *testing.T) (repo.CreditRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return repo.NewPostgresCreditRepository(sqlxDB), mock, func() { db.Close() }
}

func TestPostgresCreditRepository_Insert(t *testing.T) {
	r, mock, closeDB := newCreditRepo(t)
	defer closeDB()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO cancelled_credits`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))

	credit, err := r.Insert(context.Background(), &model.CancelledCredit{
		UserID:        uuid.New(),
		TicketClassID: uuid.New(),
		ClassName:     "Defensive driving",
		Location:      "Lake Worth",
		ClassDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Hour:          "09:00",
		Duration:      "4h",
		CancelledAt:   time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, id, credit.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreditRepository_MarkRedeemed_AtMostOnce(t *testing.T) {
	r, mock, closeDB := newCreditRepo(t)
	defer closeDB()

	userID := uuid.New()
	classID := uuid.New()
	query := regexp.QuoteMeta(`WHERE user_id = $1 AND ticket_class_id = $2 AND redeemed = FALSE`)

	mock.ExpectExec(query).
		WithArgs(userID, classID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WithArgs(userID, classID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.MarkRedeemed(context.Background(), userID, classID)
	require.NoError(t, err)
	require.True(t, ok)

	// Already flipped, so the guard matches nothing.
	ok, err = r.MarkRedeemed(context.Background(), userID, classID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreditRepository_ListRedeemable_FiltersInQuery(t *testing.T) {
	r, mock, closeDB := newCreditRepo(t)
	defer closeDB()

	userID := uuid.New()
	creditID := uuid.New()
	classID := uuid.New()
	now := time.Now()

	// Redeemability is decided in SQL; the test pins the eligibility clause.
	mock.ExpectQuery(regexp.QuoteMeta(`OR (class_date + hour::time) > cancelled_at + INTERVAL '48 hours'`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "ticket_class_id", "class_name", "location", "class_date", "hour", "duration", "amount", "paid_cancellation_fee", "redeemed", "cancelled_at"}).
			AddRow(creditID, userID, classID, "Defensive driving", "Lake Worth", now, "09:00", "4h", 0.0, false, false, now))

	credits, err := r.ListRedeemable(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	require.Equal(t, creditID, credits[0].ID)
	require.False(t, credits[0].Redeemed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreditRepository_ListByUser_Empty(t *testing.T) {
	r, mock, closeDB := newCreditRepo(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY cancelled_at DESC`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "ticket_class_id", "class_name", "location", "class_date", "hour", "duration", "amount", "paid_cancellation_fee", "redeemed", "cancelled_at"}))

	credits, err := r.ListByUser(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, credits)
	require.Empty(t, credits)
	require.NoError(t, mock.ExpectationsWereMet())
}
