package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		state       TEXT NOT NULL DEFAULT 'COLD',
		stage       TEXT NOT NULL DEFAULT 'COLD',
		next_action TEXT NOT NULL DEFAULT 'NONE',
		archived    BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         BIGSERIAL PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		direction  TEXT NOT NULL CHECK (direction IN ('incoming', 'outgoing')),
		body       TEXT NOT NULL DEFAULT '',
		sent_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_contact_sent_idx
		ON messages (contact_id, sent_at)`,
	`CREATE TABLE IF NOT EXISTS state_transitions (
		id         BIGSERIAL PRIMARY KEY,
		contact_id TEXT NOT NULL REFERENCES contacts(id),
		from_state TEXT NOT NULL,
		to_state   TEXT NOT NULL,
		at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id               UUID PRIMARY KEY,
		owner_user_id    TEXT NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'cancelled', 'completed')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS meetings_owner_start_idx
		ON meetings (owner_user_id, start_time)
		WHERE status = 'scheduled'`,
}

// Migrate applies the schema. Every statement is idempotent, so running it
// on every startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
