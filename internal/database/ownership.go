// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/playdexapp/playdex/internal/models"
)

// UpsertOwnership inserts or refreshes the (player, entry) ownership row.
// Idempotent: resyncing never multiplies rows, it only moves playtime and
// the sync timestamp forward. The favorite flag is preserved across
// resyncs.
func (db *DB) UpsertOwnership(ctx context.Context, playerID, entryID int64, playtimeMinutes, recent2WeekMinutes int, syncedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ownership (player_id, entry_id, playtime_minutes, recent_2week_minutes, last_synced_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (player_id, entry_id) DO UPDATE SET
			playtime_minutes = excluded.playtime_minutes,
			recent_2week_minutes = excluded.recent_2week_minutes,
			last_synced_at = excluded.last_synced_at`,
		playerID, entryID, playtimeMinutes, recent2WeekMinutes, syncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert ownership (%d, %d): %w", playerID, entryID, err)
	}
	return nil
}

// GetOwnership lists a player's ownership rows with catalog entries joined.
// An empty library returns an empty slice, not an error.
func (db *DB) GetOwnership(ctx context.Context, playerID int64) ([]models.OwnershipRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT o.id, o.player_id, o.entry_id, o.playtime_minutes, o.recent_2week_minutes,
			o.last_synced_at, o.is_favorite,
			e.id, e.app_id, e.name, e.genre, e.is_multiplayer, e.is_mixed, e.is_verified
		 FROM ownership o
		 JOIN catalog_entries e ON e.id = o.entry_id
		 WHERE o.player_id = ?
		 ORDER BY o.playtime_minutes DESC, e.name`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("get ownership for player %d: %w", playerID, err)
	}
	defer rows.Close()

	records := make([]models.OwnershipRecord, 0)
	for rows.Next() {
		var r models.OwnershipRecord
		var e models.CatalogEntry
		if err := rows.Scan(
			&r.ID, &r.PlayerID, &r.EntryID, &r.PlaytimeMinutes, &r.Recent2WeekMinutes,
			&r.LastSyncedAt, &r.IsFavorite,
			&e.ID, &e.AppID, &e.Name, &e.Genre, &e.IsMultiplayer, &e.IsMixed, &e.IsVerified,
		); err != nil {
			return nil, fmt.Errorf("scan ownership row: %w", err)
		}
		r.Entry = &e
		records = append(records, r)
	}
	return records, rows.Err()
}

// OldestSyncTime returns the oldest last_synced_at across a player's
// ownership rows, or the zero time when the player owns nothing. Staleness
// is judged against the oldest row: one stale record makes the whole
// library stale.
func (db *DB) OldestSyncTime(ctx context.Context, playerID int64) (time.Time, error) {
	var oldest *time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT min(last_synced_at) FROM ownership WHERE player_id = ?`,
		playerID,
	).Scan(&oldest)
	if err != nil {
		return time.Time{}, fmt.Errorf("oldest sync time for player %d: %w", playerID, err)
	}
	if oldest == nil {
		return time.Time{}, nil
	}
	return *oldest, nil
}

// SetFavorite marks or unmarks a player's title as a favorite. Returns
// models.ErrNotFound when the player does not own the title.
func (db *DB) SetFavorite(ctx context.Context, playerID, entryID int64, favorite bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE ownership SET is_favorite = ? WHERE player_id = ? AND entry_id = ?`,
		favorite, playerID, entryID,
	)
	if err != nil {
		return fmt.Errorf("set favorite (%d, %d): %w", playerID, entryID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set favorite (%d, %d): %w", playerID, entryID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: player %d does not own entry %d", models.ErrNotFound, playerID, entryID)
	}
	return nil
}

// ListFavorites lists a player's favorite titles.
func (db *DB) ListFavorites(ctx context.Context, playerID int64) ([]models.FavoriteGame, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.app_id, e.name
		 FROM ownership o
		 JOIN catalog_entries e ON e.id = o.entry_id
		 WHERE o.player_id = ? AND o.is_favorite
		 ORDER BY e.name`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites for player %d: %w", playerID, err)
	}
	defer rows.Close()

	favorites := make([]models.FavoriteGame, 0)
	for rows.Next() {
		var f models.FavoriteGame
		if err := rows.Scan(&f.AppID, &f.Name); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		if f.AppID != nil {
			img := fmt.Sprintf("https://cdn.cloudflare.steamstatic.com/steam/apps/%d/header.jpg", *f.AppID)
			f.ImageURL = &img
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// GenrePlaytime is a per-genre total playtime aggregate, in minutes.
type GenrePlaytime struct {
	Genre   string
	Minutes int
}

// PlaytimeByGenre aggregates a player's total playtime per genre,
// descending. Used for the favorite-genre profile section.
func (db *DB) PlaytimeByGenre(ctx context.Context, playerID int64) ([]GenrePlaytime, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.genre, sum(o.playtime_minutes) AS minutes
		 FROM ownership o
		 JOIN catalog_entries e ON e.id = o.entry_id
		 WHERE o.player_id = ?
		 GROUP BY e.genre
		 ORDER BY minutes DESC, e.genre`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("playtime by genre for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var totals []GenrePlaytime
	for rows.Next() {
		var g GenrePlaytime
		if err := rows.Scan(&g.Genre, &g.Minutes); err != nil {
			return nil, fmt.Errorf("scan genre playtime: %w", err)
		}
		totals = append(totals, g)
	}
	return totals, rows.Err()
}
