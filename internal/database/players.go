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
	"time"

	"github.com/playdexapp/playdex/internal/models"
)

// GetPlayerBySteamID fetches a player by Steam ID. Returns
// models.ErrNotFound when no row exists.
func (db *DB) GetPlayerBySteamID(ctx context.Context, steamID string) (*models.Player, error) {
	var p models.Player
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, steam_id, username, avatar_url FROM players WHERE steam_id = ?`,
		steamID,
	).Scan(&p.ID, &p.SteamID, &p.Username, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: player %s", models.ErrNotFound, steamID)
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", steamID, err)
	}
	return &p, nil
}

// FindOrCreatePlayer returns the player for steamID, creating the row on
// first observation. Username and avatar are refreshed when non-empty.
func (db *DB) FindOrCreatePlayer(ctx context.Context, steamID, username, avatarURL string) (*models.Player, error) {
	existing, err := db.GetPlayerBySteamID(ctx, steamID)
	if err == nil {
		if username != "" && (existing.Username != username || existing.AvatarURL != avatarURL) {
			if _, err := db.conn.ExecContext(ctx,
				`UPDATE players SET username = ?, avatar_url = ? WHERE id = ?`,
				username, avatarURL, existing.ID,
			); err != nil {
				return nil, fmt.Errorf("update player %s: %w", steamID, err)
			}
			existing.Username = username
			existing.AvatarURL = avatarURL
		}
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	var p models.Player
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO players (steam_id, username, avatar_url) VALUES (?, ?, ?)
		 RETURNING id, steam_id, username, avatar_url`,
		steamID, username, avatarURL,
	).Scan(&p.ID, &p.SteamID, &p.Username, &p.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("create player %s: %w", steamID, err)
	}
	return &p, nil
}

// RecentlySyncedPlayers lists players whose most recent ownership sync falls
// within lookback. The background refresh scheduler uses this to bound which
// libraries it proactively resyncs.
func (db *DB) RecentlySyncedPlayers(ctx context.Context, lookback time.Duration) ([]models.Player, error) {
	cutoff := time.Now().UTC().Add(-lookback)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.steam_id, p.username, p.avatar_url
		 FROM players p
		 JOIN ownership o ON o.player_id = p.id
		 GROUP BY p.id, p.steam_id, p.username, p.avatar_url
		 HAVING max(o.last_synced_at) >= ?`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list recently synced players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.SteamID, &p.Username, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
