package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTicketClassesTable, downCreateTicketClassesTable)
}

func upCreateTicketClassesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE ticket_classes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			class_date DATE NOT NULL,
			hour TEXT NOT NULL,
			duration TEXT NOT NULL DEFAULT '',
			spots INT NOT NULL DEFAULT 1,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
		);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateTicketClassesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS ticket_classes;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
