package repository

import (
	"booking-service/internal/model"
	"context"
	"log"
	"os"
	"testing"
	"time"

	_ "booking-service/migrations"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type SlotRepositoryIntegrationTestSuite struct {
	suite.Suite
	db             *sqlx.DB
	slotRepo       SlotRepository
	instructorRepo InstructorRepository
	pgc            *postgres.PostgresContainer
	ctx            context.Context
}

func (s *SlotRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}
	s.pgc = pgc

	connStr, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	assert.NoError(s.T(), err)

	db, err := sqlx.Connect("pgx", connStr)
	assert.NoError(s.T(), err)
	s.db = db

	err = goose.Up(db.DB, "../../migrations")
	assert.NoError(s.T(), err)

	s.slotRepo = NewPostgresSlotRepository(s.db)
	s.instructorRepo = NewPostgresInstructorRepository(s.db)
}

func (s *SlotRepositoryIntegrationTestSuite) TearDownSuite() {
	s.db.Close()
	if err := s.pgc.Terminate(s.ctx); err != nil {
		log.Fatalf("failed to terminate pg container: %s", err)
	}
}

func (s *SlotRepositoryIntegrationTestSuite) newInstructor(name string) uuid.UUID {
	instructor, err := s.instructorRepo.Create(s.ctx, &model.Instructor{Name: name})
	assert.NoError(s.T(), err)
	return instructor.ID
}

func (s *SlotRepositoryIntegrationTestSuite) TestSlotRepository_UniqueInterval() {
	instructorID := s.newInstructor("Unique Interval Instructor")
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// Arrange: one lesson slot at 10:00-11:00.
	_, err := s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryLesson,
		SlotDate:     date,
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       model.SlotFree,
	})
	assert.NoError(s.T(), err)

	// Act: same interval in another category.
	_, err = s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryTest,
		SlotDate:     date,
		StartTime:    "10:00",
		EndTime:      "11:00",
		Status:       model.SlotFree,
	})

	// Assert: the unique constraint spans categories.
	assert.Error(s.T(), err)
}

func (s *SlotRepositoryIntegrationTestSuite) TestSlotRepository_FindPrefersGeneral() {
	instructorID := s.newInstructor("Priority Instructor")
	date := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	// Same-looking bookings in two categories at different times; Find by a
	// time triple that matches the lesson slot must still resolve it, and a
	// triple matching a general slot resolves general first.
	general, err := s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryGeneral,
		SlotDate:     date,
		StartTime:    "09:00",
		EndTime:      "10:00",
		Status:       model.SlotFree,
	})
	assert.NoError(s.T(), err)

	lesson, err := s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryLesson,
		SlotDate:     date,
		StartTime:    "11:00",
		EndTime:      "12:00",
		Status:       model.SlotFree,
	})
	assert.NoError(s.T(), err)

	found, err := s.slotRepo.Find(s.ctx, instructorID, nil, date, "09:00", "10:00")
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), found)
	assert.Equal(s.T(), general.ID, found.ID)

	found, err = s.slotRepo.Find(s.ctx, instructorID, nil, date, "11:00", "12:00")
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), found)
	assert.Equal(s.T(), lesson.ID, found.ID)
}

func (s *SlotRepositoryIntegrationTestSuite) TestSlotRepository_DeleteIsExclusive() {
	instructorID := s.newInstructor("Exclusive Delete Instructor")
	date := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	slot, err := s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryLesson,
		SlotDate:     date,
		StartTime:    "14:00",
		EndTime:      "15:00",
		Status:       model.SlotFree,
	})
	assert.NoError(s.T(), err)

	deleted, err := s.slotRepo.Delete(s.ctx, slot.ID)
	assert.NoError(s.T(), err)
	assert.True(s.T(), deleted)

	// A repeated delete observes the slot already gone.
	deleted, err = s.slotRepo.Delete(s.ctx, slot.ID)
	assert.NoError(s.T(), err)
	assert.False(s.T(), deleted)
}

func (s *SlotRepositoryIntegrationTestSuite) TestSlotRepository_ConfirmOnlyOnce() {
	instructorID := s.newInstructor("Confirm Once Instructor")
	date := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	slot, err := s.slotRepo.Insert(s.ctx, &model.Slot{
		InstructorID: instructorID,
		Category:     model.CategoryTest,
		SlotDate:     date,
		StartTime:    "08:00",
		EndTime:      "09:00",
		Status:       model.SlotFree,
	})
	assert.NoError(s.T(), err)

	ok, err := s.slotRepo.Confirm(s.ctx, slot.ID, uuid.New(), "pay_1")
	assert.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.slotRepo.Confirm(s.ctx, slot.ID, uuid.New(), "pay_2")
	assert.NoError(s.T(), err)
	assert.False(s.T(), ok)

	booked, err := s.slotRepo.GetByID(s.ctx, slot.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), model.SlotBooked, booked.Status)
}

func TestSlotRepositoryIntegration(t *testing.T) {
	if os.Getenv("DOCKER_HOST") == "" {
		t.Skip("Docker is not available, skipping integration test.")
	}
	suite.Run(t, new(SlotRepositoryIntegrationTestSuite))
}
