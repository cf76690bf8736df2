package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateCancelledCreditsTable, downCreateCancelledCreditsTable)
}

func upCreateCancelledCreditsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE cancelled_credits (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			ticket_class_id UUID NOT NULL REFERENCES ticket_classes(id) ON DELETE CASCADE,
			class_name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			class_date DATE NOT NULL,
			hour TEXT NOT NULL,
			duration TEXT NOT NULL DEFAULT '',
			amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			paid_cancellation_fee BOOLEAN NOT NULL DEFAULT FALSE,
			redeemed BOOLEAN NOT NULL DEFAULT FALSE,
			cancelled_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		);

		CREATE INDEX idx_cancelled_credits_user ON cancelled_credits (user_id, redeemed);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateCancelledCreditsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS cancelled_credits;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
