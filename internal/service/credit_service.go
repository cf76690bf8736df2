package service

import (
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"context"

	"github.com/google/uuid"
)

// CreditService reads the cancelled-credit ledger. Writes happen only through
// EnrollmentService, which appends on cancellation and flips redeemed on
// re-confirmation.
type CreditService interface {
	RedeemableCredits(ctx context.Context, userID uuid.UUID) (map[string][]model.CancelledCredit, error)
	CreditHistory(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error)
}

type creditService struct {
	creditRepo repository.CreditRepository
}

func NewCreditService(creditRepo repository.CreditRepository) CreditService {
	return &creditService{creditRepo: creditRepo}
}

// RedeemableCredits groups the user's still-usable credits by class duration.
// Grouping is for display; redemption is not restricted by duration.
func (s *creditService) RedeemableCredits(ctx context.Context, userID uuid.UUID) (map[string][]model.CancelledCredit, error) {
	credits, err := s.creditRepo.ListRedeemable(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.CancelledCredit)
	for _, credit := range credits {
		grouped[credit.Duration] = append(grouped[credit.Duration], credit)
	}

	return grouped, nil
}

func (s *creditService) CreditHistory(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error) {
	return s.creditRepo.ListByUser(ctx, userID)
}
