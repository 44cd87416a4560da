// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/playdexapp/playdex/internal/models"
)

// GetEntryByAppID fetches a catalog entry by Steam appid. Returns
// models.ErrNotFound when no row exists.
func (db *DB) GetEntryByAppID(ctx context.Context, appID int64) (*models.CatalogEntry, error) {
	var e models.CatalogEntry
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, app_id, name, genre, is_multiplayer, is_mixed, is_verified
		 FROM catalog_entries WHERE app_id = ?`,
		appID,
	).Scan(&e.ID, &e.AppID, &e.Name, &e.Genre, &e.IsMultiplayer, &e.IsMixed, &e.IsVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: catalog entry for appid %d", models.ErrNotFound, appID)
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry %d: %w", appID, err)
	}
	return &e, nil
}

// UpsertCatalogEntry inserts or updates a catalog entry and returns the
// stored row. Verified entries are keyed by appid; unverified entries
// (AppID nil) fall back to name identity so repeated syncs of an
// unresolvable title do not multiply rows.
//
// A later verified upsert wins over an earlier unverified classification,
// but an unverified upsert never downgrades a verified row.
func (db *DB) UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	existing, err := db.findEntry(ctx, entry)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.IsVerified && !entry.IsVerified {
			return existing, nil
		}
		_, err := db.conn.ExecContext(ctx,
			`UPDATE catalog_entries
			 SET app_id = ?, name = ?, genre = ?, is_multiplayer = ?, is_mixed = ?, is_verified = ?
			 WHERE id = ?`,
			entry.AppID, entry.Name, entry.Genre, entry.IsMultiplayer, entry.IsMixed, entry.IsVerified, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("update catalog entry %q: %w", entry.Name, err)
		}
		updated := *entry
		updated.ID = existing.ID
		return &updated, nil
	}

	var stored models.CatalogEntry
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO catalog_entries (app_id, name, genre, is_multiplayer, is_mixed, is_verified)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id, app_id, name, genre, is_multiplayer, is_mixed, is_verified`,
		entry.AppID, entry.Name, entry.Genre, entry.IsMultiplayer, entry.IsMixed, entry.IsVerified,
	).Scan(&stored.ID, &stored.AppID, &stored.Name, &stored.Genre, &stored.IsMultiplayer, &stored.IsMixed, &stored.IsVerified)
	if err != nil {
		return nil, fmt.Errorf("insert catalog entry %q: %w", entry.Name, err)
	}
	return &stored, nil
}

// findEntry locates the identity row for an upsert: by appid when present,
// by name among unverified rows otherwise.
func (db *DB) findEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error) {
	if entry.AppID != nil {
		return db.GetEntryByAppID(ctx, *entry.AppID)
	}

	var e models.CatalogEntry
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, app_id, name, genre, is_multiplayer, is_mixed, is_verified
		 FROM catalog_entries WHERE app_id IS NULL AND name = ?`,
		entry.Name,
	).Scan(&e.ID, &e.AppID, &e.Name, &e.Genre, &e.IsMultiplayer, &e.IsMixed, &e.IsVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: catalog entry %q", models.ErrNotFound, entry.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog entry %q: %w", entry.Name, err)
	}
	return &e, nil
}
