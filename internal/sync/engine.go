// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/events"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
	"github.com/playdexapp/playdex/internal/models"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
	"github.com/playdexapp/playdex/internal/steam"
)

// ownedGamesSnapshotTTL is how long the raw owned-games snapshot is cached
// after a sync.
const ownedGamesSnapshotTTL = time.Hour

// DBInterface defines the database operations the sync engine needs.
// Implemented by *database.DB.
type DBInterface interface {
	GetPlayerBySteamID(ctx context.Context, steamID string) (*models.Player, error)
	FindOrCreatePlayer(ctx context.Context, steamID, username, avatarURL string) (*models.Player, error)
	OldestSyncTime(ctx context.Context, playerID int64) (time.Time, error)
	UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error)
	UpsertOwnership(ctx context.Context, playerID, entryID int64, playtimeMinutes, recent2WeekMinutes int, syncedAt time.Time) error
}

// EventPublisher is the slice of the event bus the engine needs.
type EventPublisher interface {
	Publish(topic string, payload interface{}) error
}

// Engine keeps each player's ownership set in step with Steam. Syncs are
// idempotent and skipped entirely while the player's data is fresh.
type Engine struct {
	client          steam.ClientInterface
	db              DBInterface
	cache           cache.Store
	enricher        *CatalogEnricher
	publisher       EventPublisher
	stalenessWindow time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// NewEngine creates a sync engine.
func NewEngine(client steam.ClientInterface, db DBInterface, store cache.Store, enricher *CatalogEnricher, publisher EventPublisher, stalenessWindow time.Duration) *Engine {
	return &Engine{
		client:          client,
		db:              db,
		cache:           store,
		enricher:        enricher,
		publisher:       publisher,
		stalenessWindow: stalenessWindow,
		now:             time.Now,
	}
}

// ownedGamesKey is the raw owned-games snapshot cache key.
func ownedGamesKey(steamID string) string {
	return "owned_games:" + steamID
}

// SyncLibrary ensures the player exists and their ownership set is fresh,
// resyncing from Steam when stale. Returns the player row either way.
//
// A failed owned-games fetch fails the whole sync: stale-but-complete data
// is preferable to a partially emptied library. A failed per-title
// enrichment does not: that title is stored with safe defaults.
func (e *Engine) SyncLibrary(ctx context.Context, steamID string) (*models.Player, error) {
	player, err := e.ensurePlayer(ctx, steamID)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	stale, err := e.isStale(ctx, player.ID)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if !stale {
		metrics.SyncsTotal.WithLabelValues("fresh").Inc()
		return player, nil
	}

	if err := e.resync(ctx, player); err != nil {
		metrics.SyncsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.SyncsTotal.WithLabelValues("synced").Inc()
	return player, nil
}

// ensurePlayer resolves the player row, creating it from the Steam profile
// on first observation. When the profile fetch fails but the player is
// already known, the stored row is used so profile outages do not block
// syncs.
func (e *Engine) ensurePlayer(ctx context.Context, steamID string) (*models.Player, error) {
	summary, err := e.client.GetPlayerSummary(ctx, steamID)
	if err != nil {
		existing, dbErr := e.db.GetPlayerBySteamID(ctx, steamID)
		if dbErr == nil {
			logging.Warn().Err(err).Str("steam_id", steamID).Msg("Profile fetch failed, using stored player")
			return existing, nil
		}
		return nil, fmt.Errorf("fetch profile for %s: %w", steamID, err)
	}
	return e.db.FindOrCreatePlayer(ctx, steamID, summary.PersonaName, summary.AvatarFull)
}

// isStale reports whether the player's library needs a resync: no ownership
// rows at all, or any row older than the staleness window.
func (e *Engine) isStale(ctx context.Context, playerID int64) (bool, error) {
	oldest, err := e.db.OldestSyncTime(ctx, playerID)
	if err != nil {
		return false, err
	}
	if oldest.IsZero() {
		return true, nil
	}
	return e.now().Sub(oldest) > e.stalenessWindow, nil
}

// resync pulls the full owned-games list and upserts every title.
func (e *Engine) resync(ctx context.Context, player *models.Player) error {
	start := e.now()

	games, err := e.client.GetOwnedGames(ctx, player.SteamID)
	if err != nil {
		return fmt.Errorf("fetch owned games for %s: %w", player.SteamID, err)
	}

	recent := e.recentPlaytime(ctx, player.SteamID)

	syncedAt := e.now().UTC()
	for _, game := range games {
		entry := e.enricher.Enrich(ctx, game.AppID, game.Name)
		stored, err := e.db.UpsertCatalogEntry(ctx, entry)
		if err != nil {
			return fmt.Errorf("upsert catalog entry %q: %w", game.Name, err)
		}
		recentMinutes := game.Playtime2Weeks
		if minutes, ok := recent[game.AppID]; ok {
			recentMinutes = minutes
		}
		if err := e.db.UpsertOwnership(ctx, player.ID, stored.ID, game.PlaytimeForever, recentMinutes, syncedAt); err != nil {
			return err
		}
		metrics.SyncTitlesProcessed.Inc()
	}

	e.snapshotOwnedGames(player.SteamID, games)

	if e.publisher != nil {
		event := events.LibrarySynced{
			SteamID:    player.SteamID,
			TitleCount: len(games),
			SyncedAt:   syncedAt,
		}
		if err := e.publisher.Publish(events.TopicLibrarySynced, event); err != nil {
			logging.Warn().Err(err).Str("steam_id", player.SteamID).Msg("Failed to publish sync event")
		}
	}

	duration := e.now().Sub(start)
	metrics.SyncDuration.Observe(duration.Seconds())
	logging.Info().
		Str("steam_id", player.SteamID).
		Int("titles", len(games)).
		Dur("duration", duration).
		Msg("Library synced")
	return nil
}

// recentPlaytime fetches per-title 2-week counters from the dedicated
// recently-played endpoint, which is authoritative over the counters the
// owned-games payload carries. A failed fetch degrades to the owned-games
// counters instead of failing the sync.
func (e *Engine) recentPlaytime(ctx context.Context, steamID string) map[int64]int {
	games, err := e.client.GetRecentlyPlayedGames(ctx, steamID)
	if err != nil {
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Recently played fetch failed, using owned-games counters")
		return nil
	}
	recent := make(map[int64]int, len(games))
	for _, g := range games {
		recent[g.AppID] = g.Playtime2Weeks
	}
	return recent
}

// snapshotOwnedGames caches the raw owned-games payload for consumers that
// want playtime without a database round trip (e.g. the recommendation
// sampler).
func (e *Engine) snapshotOwnedGames(steamID string, games []steammodels.OwnedGame) {
	if err := cache.SetJSON(e.cache, ownedGamesKey(steamID), &games, ownedGamesSnapshotTTL); err != nil {
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Failed to cache owned games snapshot")
	}
}

// CachedOwnedGames returns the raw owned-games snapshot from the last sync,
// if still cached.
func (e *Engine) CachedOwnedGames(steamID string) ([]steammodels.OwnedGame, bool) {
	games, found, err := cache.GetJSON[[]steammodels.OwnedGame](e.cache, ownedGamesKey(steamID))
	if err != nil || !found || games == nil {
		return nil, false
	}
	return *games, true
}
