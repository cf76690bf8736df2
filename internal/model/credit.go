package model

import (
	"time"

	"github.com/google/uuid"
)

// CancelledCredit records an entitlement created by a qualifying cancellation.
// Rows are never deleted; redemption flips Redeemed exactly once so the audit
// history stays intact.
type CancelledCredit struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	UserID              uuid.UUID `db:"user_id" json:"user_id"`
	TicketClassID       uuid.UUID `db:"ticket_class_id" json:"ticket_class_id"`
	ClassName           string    `db:"class_name" json:"class_name"`
	Location            string    `db:"location" json:"location"`
	ClassDate           time.Time `db:"class_date" json:"date"`
	Hour                string    `db:"hour" json:"hour"`
	Duration            string    `db:"duration" json:"duration"`
	Amount              float64   `db:"amount" json:"amount"`
	PaidCancellationFee bool      `db:"paid_cancellation_fee" json:"paid_cancellation_fee"`
	Redeemed            bool      `db:"redeemed" json:"redeemed"`
	CancelledAt         time.Time `db:"cancelled_at" json:"cancelled_at"`
}
