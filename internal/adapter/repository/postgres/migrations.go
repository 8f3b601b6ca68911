package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id            UUID PRIMARY KEY,
		owner_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		initial_value NUMERIC(20, 8) NOT NULL CHECK (initial_value > 0),
		start_date    DATE NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_owner ON applications (owner_id, start_date)`,
	`CREATE TABLE IF NOT EXISTS history (
		id             UUID PRIMARY KEY,
		seq            BIGSERIAL NOT NULL,
		application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		owner_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date           DATE NOT NULL,
		gross_value    NUMERIC(20, 8) NOT NULL CHECK (gross_value > 0),
		net_value      NUMERIC(20, 8) CHECK (net_value IS NULL OR net_value > 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_application ON history (application_id, date, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_history_owner ON history (owner_id)`,
}

// Migrate creates the tables and indexes used by the repositories
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
