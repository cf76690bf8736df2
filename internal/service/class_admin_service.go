package service

import (
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"context"

	"github.com/google/uuid"
)

// ClassAdminService covers staff-side ticket-class management.
type ClassAdminService interface {
	CreateClass(ctx context.Context, class *model.TicketClass) (*model.TicketClass, error)
	GetClass(ctx context.Context, classID uuid.UUID) (*model.TicketClass, error)
}

type classAdminService struct {
	classRepo repository.ClassRepository
}

func NewClassAdminService(classRepo repository.ClassRepository) ClassAdminService {
	return &classAdminService{classRepo: classRepo}
}

func (s *classAdminService) CreateClass(ctx context.Context, class *model.TicketClass) (*model.TicketClass, error) {
	return s.classRepo.Create(ctx, class)
}

func (s *classAdminService) GetClass(ctx context.Context, classID uuid.UUID) (*model.TicketClass, error) {
	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}
	return class, nil
}
