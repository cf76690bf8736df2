package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSlotsTable, downCreateSlotsTable)
}

func upCreateSlotsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE slots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			instructor_id UUID NOT NULL REFERENCES instructors(id) ON DELETE CASCADE,
			category TEXT NOT NULL CHECK (category IN ('general', 'lesson', 'test')),
			slot_date DATE NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'free' CHECK (status IN ('free', 'pending', 'booked', 'cancelled')),
			student_id UUID,
			payment_id TEXT,
			booked_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			UNIQUE (instructor_id, slot_date, start_time, end_time)
		);

		CREATE INDEX idx_slots_instructor_category ON slots (instructor_id, category, slot_date, start_time);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateSlotsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS slots;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
