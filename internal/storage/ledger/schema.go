package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS synced_reminders (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		course_name TEXT NOT NULL,
		due_date TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		source TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_synced_reminders_due_date ON synced_reminders (due_date)`,
	`CREATE TABLE IF NOT EXISTS sync_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		status TEXT NOT NULL,
		reminders_created INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS synced_reminders (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		course_name TEXT NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_synced_reminders_due_date ON synced_reminders (due_date)`,
	`CREATE TABLE IF NOT EXISTS sync_logs (
		id BIGSERIAL PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		reminders_created INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	)`,
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := sqliteSchema
	if db.DriverName() == DriverPostgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create ledger schema: %w", err)
		}
	}
	return nil
}
