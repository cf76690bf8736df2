package repository

import (
	"booking-service/internal/model"
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type InstructorRepository interface {
	Create(ctx context.Context, instructor *model.Instructor) (*model.Instructor, error)
	FindByID(ctx context.Context, instructorID uuid.UUID) (*model.Instructor, error)
	Exists(ctx context.Context, instructorID uuid.UUID) (bool, error)
}

type postgresInstructorRepository struct {
	db *sqlx.DB
}

func NewPostgresInstructorRepository(db *sqlx.DB) InstructorRepository {
	return &postgresInstructorRepository{db: db}
}

func (r *postgresInstructorRepository) Create(ctx context.Context, instructor *model.Instructor) (*model.Instructor, error) {
	query := `
		INSERT INTO instructors (name)
		VALUES ($1)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query, instructor.Name)
	err := row.Scan(&instructor.ID, &instructor.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("create instructor: %w", err)
	}

	return instructor, nil
}

func (r *postgresInstructorRepository) FindByID(ctx context.Context, instructorID uuid.UUID) (*model.Instructor, error) {
	var instructor model.Instructor
	query := `SELECT id, name, created_at FROM instructors WHERE id = $1`
	err := r.db.GetContext(ctx, &instructor, query, instructorID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("find instructor: %w", err)
	}

	return &instructor, nil
}

func (r *postgresInstructorRepository) Exists(ctx context.Context, instructorID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM instructors WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, instructorID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("instructor exists: %w", err)
	}
	return exists, nil
}
