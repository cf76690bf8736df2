package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTicketClassStudentsTable, downCreateTicketClassStudentsTable)
}

func upCreateTicketClassStudentsTable(ctx context.Context, tx *sql.Tx) error {
	// The primary key keeps a student in at most one membership state per
	// class at any time.
	query := `
		CREATE TABLE ticket_class_students (
			ticket_class_id UUID NOT NULL REFERENCES ticket_classes(id) ON DELETE CASCADE,
			student_id UUID NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('requested', 'confirmed', 'cancelled', 'rejected')),
			enrolled_at TIMESTAMP WITH TIME ZONE,
			payment_id TEXT,
			order_id TEXT,
			PRIMARY KEY (ticket_class_id, student_id)
		);

		CREATE INDEX idx_class_students_status ON ticket_class_students (ticket_class_id, status);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateTicketClassStudentsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS ticket_class_students;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
