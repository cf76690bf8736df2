package repository

import (
	"booking-service/internal/model"
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ClassRepository interface {
	Create(ctx context.Context, class *model.TicketClass) (*model.TicketClass, error)
	FindByID(ctx context.Context, classID uuid.UUID) (*model.TicketClass, error)
	GetStudent(ctx context.Context, classID, studentID uuid.UUID) (*model.ClassStudent, error)
	// InsertRequest registers a pending seat request. A student who
	// previously cancelled may re-request the same class; a live request or
	// confirmed enrollment reports false.
	InsertRequest(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	DeleteRequest(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	// ConfirmStudent flips a pending request to confirmed inside a
	// transaction that locks the class row first, so concurrent confirms for
	// the same class are serialized and can never overfill it.
	ConfirmStudent(ctx context.Context, classID, studentID uuid.UUID, paymentID, orderID *string) (bool, error)
	// CancelStudent flips confirmed to cancelled; exactly one of two
	// concurrent cancellations sees true.
	CancelStudent(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	CountConfirmed(ctx context.Context, classID uuid.UUID) (int, error)
	ListStudents(ctx context.Context, classID uuid.UUID, status model.EnrollmentStatus) ([]model.ClassStudent, error)
}

type postgresClassRepository struct {
	db *sqlx.DB
}

func NewPostgresClassRepository(db *sqlx.DB) ClassRepository {
	return &postgresClassRepository{db: db}
}

func (r *postgresClassRepository) Create(ctx context.Context, class *model.TicketClass) (*model.TicketClass, error) {
	query := `
		INSERT INTO ticket_classes (name, location, class_date, hour, duration, spots)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query, class.Name, class.Location, class.ClassDate, class.Hour, class.Duration, class.Spots)
	err := row.Scan(&class.ID, &class.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("create ticket class: %w", err)
	}

	return class, nil
}

func (r *postgresClassRepository) FindByID(ctx context.Context, classID uuid.UUID) (*model.TicketClass, error) {
	var class model.TicketClass
	query := `SELECT id, name, location, class_date, hour, duration, spots, created_at FROM ticket_classes WHERE id = $1`
	err := r.db.GetContext(ctx, &class, query, classID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("find ticket class: %w", err)
	}

	return &class, nil
}

func (r *postgresClassRepository) GetStudent(ctx context.Context, classID, studentID uuid.UUID) (*model.ClassStudent, error) {
	var student model.ClassStudent
	query := `
		SELECT ticket_class_id, student_id, status, enrolled_at, payment_id, order_id
		FROM ticket_class_students
		WHERE ticket_class_id = $1 AND student_id = $2
	`
	err := r.db.GetContext(ctx, &student, query, classID, studentID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("get class student: %w", err)
	}

	return &student, nil
}

func (r *postgresClassRepository) InsertRequest(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO ticket_class_students (ticket_class_id, student_id, status)
		VALUES ($1, $2, 'requested')
		ON CONFLICT (ticket_class_id, student_id) DO UPDATE
		SET status = 'requested', enrolled_at = NULL, payment_id = NULL, order_id = NULL
		WHERE ticket_class_students.status IN ('cancelled', 'rejected')
	`

	result, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("insert seat request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresClassRepository) DeleteRequest(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM ticket_class_students
		WHERE ticket_class_id = $1 AND student_id = $2 AND status = 'requested'
	`

	result, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("delete seat request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresClassRepository) ConfirmStudent(ctx context.Context, classID, studentID uuid.UUID, paymentID, orderID *string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("confirm class student: %w", err)
	}
	defer tx.Rollback()

	// Locking the class row serializes confirms per class, so the confirmed
	// count below always sees the previous winner's row and the class can
	// never overfill.
	var spots int
	err = tx.GetContext(ctx, &spots, `SELECT spots FROM ticket_classes WHERE id = $1 FOR UPDATE`, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}

		return false, fmt.Errorf("lock ticket class: %w", err)
	}

	query := `
		UPDATE ticket_class_students
		SET status = 'confirmed', enrolled_at = now(), payment_id = $3, order_id = $4
		WHERE ticket_class_id = $1 AND student_id = $2 AND status = 'requested'
		  AND (SELECT COUNT(*) FROM ticket_class_students c
		       WHERE c.ticket_class_id = $1 AND c.status = 'confirmed') < $5
	`

	result, err := tx.ExecContext(ctx, query, classID, studentID, paymentID, orderID, spots)
	if err != nil {
		return false, fmt.Errorf("confirm class student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("confirm class student: %w", err)
	}

	return affected > 0, nil
}

func (r *postgresClassRepository) CancelStudent(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	query := `
		UPDATE ticket_class_students
		SET status = 'cancelled'
		WHERE ticket_class_id = $1 AND student_id = $2 AND status = 'confirmed'
	`

	result, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("cancel class student: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *postgresClassRepository) CountConfirmed(ctx context.Context, classID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ticket_class_students WHERE ticket_class_id = $1 AND status = 'confirmed'`
	err := r.db.GetContext(ctx, &count, query, classID)

	if err != nil {
		return 0, fmt.Errorf("count confirmed students: %w", err)
	}

	return count, nil
}

func (r *postgresClassRepository) ListStudents(ctx context.Context, classID uuid.UUID, status model.EnrollmentStatus) ([]model.ClassStudent, error) {
	var students []model.ClassStudent
	query := `
		SELECT ticket_class_id, student_id, status, enrolled_at, payment_id, order_id
		FROM ticket_class_students
		WHERE ticket_class_id = $1 AND status = $2
		ORDER BY enrolled_at NULLS LAST, student_id
	`

	err := r.db.SelectContext(ctx, &students, query, classID, status)
	if err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}

	if students == nil {
		students = []model.ClassStudent{}
	}

	return students, nil
}
