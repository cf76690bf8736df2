package repository

import (
	"booking-service/internal/model"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CreditRepository interface {
	Insert(ctx context.Context, credit *model.CancelledCredit) (*model.CancelledCredit, error)
	// MarkRedeemed flips redeemed at most once per credit; the WHERE clause
	// makes a second redemption attempt a no-op.
	MarkRedeemed(ctx context.Context, userID, classID uuid.UUID) (bool, error)
	ListRedeemable(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error)
}

type postgresCreditRepository struct {
	db *sqlx.DB
}

func NewPostgresCreditRepository(db *sqlx.DB) CreditRepository {
	return &postgresCreditRepository{db: db}
}

func (r *postgresCreditRepository) Insert(ctx context.Context, credit *model.CancelledCredit) (*model.CancelledCredit, error) {
	query := `
		INSERT INTO cancelled_credits
			(user_id, ticket_class_id, class_name, location, class_date, hour, duration, amount, paid_cancellation_fee, redeemed, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query,
		credit.UserID,
		credit.TicketClassID,
		credit.ClassName,
		credit.Location,
		credit.ClassDate,
		credit.Hour,
		credit.Duration,
		credit.Amount,
		credit.PaidCancellationFee,
		credit.CancelledAt,
	)
	err := row.Scan(&credit.ID)

	if err != nil {
		return nil, fmt.Errorf("insert cancelled credit: %w", err)
	}

	return credit, nil
}

func (r *postgresCreditRepository) MarkRedeemed(ctx context.Context, userID, classID uuid.UUID) (bool, error) {
	query := `
		UPDATE cancelled_credits
		SET redeemed = TRUE
		WHERE user_id = $1 AND ticket_class_id = $2 AND redeemed = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, userID, classID)
	if err != nil {
		return false, fmt.Errorf("mark credit redeemed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ListRedeemable returns credits still usable for a future enrollment: not
// yet redeemed, and either the cancellation fee was paid or the class started
// more than 48 hours after the cancellation (the free-cancellation window).
func (r *postgresCreditRepository) ListRedeemable(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error) {
	var credits []model.CancelledCredit
	query := `
		SELECT id, user_id, ticket_class_id, class_name, location, class_date, hour, duration, amount, paid_cancellation_fee, redeemed, cancelled_at
		FROM cancelled_credits
		WHERE user_id = $1
		  AND redeemed = FALSE
		  AND (paid_cancellation_fee = TRUE
		       OR (class_date + hour::time) > cancelled_at + INTERVAL '48 hours')
		ORDER BY duration, cancelled_at
	`

	err := r.db.SelectContext(ctx, &credits, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list redeemable credits: %w", err)
	}

	if credits == nil {
		credits = []model.CancelledCredit{}
	}

	return credits, nil
}

func (r *postgresCreditRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CancelledCredit, error) {
	var credits []model.CancelledCredit
	query := `
		SELECT id, user_id, ticket_class_id, class_name, location, class_date, hour, duration, amount, paid_cancellation_fee, redeemed, cancelled_at
		FROM cancelled_credits
		WHERE user_id = $1
		ORDER BY cancelled_at DESC
	`

	err := r.db.SelectContext(ctx, &credits, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}

	if credits == nil {
		credits = []model.CancelledCredit{}
	}

	return credits, nil
}
