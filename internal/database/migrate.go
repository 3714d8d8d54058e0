package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY,
		item_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Working',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES items (item_id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		user_name TEXT NOT NULL,
		msg_type TEXT NOT NULL DEFAULT 'general',
		progress INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_item_created
		ON messages (item_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created
		ON messages (created_at)`,
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
