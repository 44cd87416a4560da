// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the core tables and indexes. All columns are defined
// in the initial CREATE TABLE statements; there is no migration machinery
// yet.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_players START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_catalog_entries START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_ownership START 1`,

		// One row per Steam user. Created lazily on first observation.
		`CREATE TABLE IF NOT EXISTS players (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_players'),
			steam_id TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-title metadata shared across players. app_id is NULL for
		// entries never verified against the Steam catalog; those are keyed
		// by name instead.
		`CREATE TABLE IF NOT EXISTS catalog_entries (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_catalog_entries'),
			app_id BIGINT,
			name TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT 'Other',
			is_multiplayer BOOLEAN NOT NULL DEFAULT false,
			is_mixed BOOLEAN NOT NULL DEFAULT false,
			is_verified BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per (player, entry) pair, updated in place on resync.
		`CREATE TABLE IF NOT EXISTS ownership (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_ownership'),
			player_id BIGINT NOT NULL,
			entry_id BIGINT NOT NULL,
			playtime_minutes INTEGER NOT NULL DEFAULT 0,
			recent_2week_minutes INTEGER NOT NULL DEFAULT 0,
			last_synced_at TIMESTAMP NOT NULL,
			is_favorite BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (player_id, entry_id)
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_app_id ON catalog_entries (app_id)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_name ON catalog_entries (name)`,
		`CREATE INDEX IF NOT EXISTS idx_ownership_player ON ownership (player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ownership_synced ON ownership (last_synced_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
