// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package pipeline coordinates the full request flows: sync-on-demand,
// aggregation, recommendation generation, favorites, and profiles, with
// cache-aside response caching in front of all of it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/database"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
	"github.com/playdexapp/playdex/internal/models"
	"github.com/playdexapp/playdex/internal/stats"
)

const (
	// libraryTTL and recommendationsTTL bound how long assembled responses
	// are served without touching sync or the database.
	libraryTTL         = time.Hour
	recommendationsTTL = time.Hour

	// recommendationFreshness is the embedded expiry on a generated
	// envelope, independent of the outer cache TTL. An envelope older than
	// this is regenerated even when the cache still holds it.
	recommendationFreshness = 24 * time.Hour

	vanityTTL = 24 * time.Hour

	// Profile views are summaries: only the top titles and the leading
	// recommendations appear, even when more are available.
	profileTopGames        = 5
	profileRecommendations = 3
)

// Syncer keeps a player's library fresh. Implemented by *sync.Engine.
type Syncer interface {
	SyncLibrary(ctx context.Context, steamID string) (*models.Player, error)
}

// Recommender generates recommendation envelopes. Implemented by
// *recommend.Engine.
type Recommender interface {
	Generate(ctx context.Context, steamID string, records []models.OwnershipRecord) *models.RecommendationEnvelope
}

// VanityResolver resolves vanity profile names. Implemented by the Steam
// client.
type VanityResolver interface {
	ResolveVanityURL(ctx context.Context, vanityName string) (string, error)
}

// Enricher classifies a title from storefront metadata. Implemented by
// *sync.CatalogEnricher. The coordinator needs it only for favorites on
// titles the catalog has never seen.
type Enricher interface {
	Enrich(ctx context.Context, appID int64, name string) *models.CatalogEntry
}

// DBInterface defines the database operations the coordinator needs.
// Implemented by *database.DB.
type DBInterface interface {
	GetPlayerBySteamID(ctx context.Context, steamID string) (*models.Player, error)
	GetOwnership(ctx context.Context, playerID int64) ([]models.OwnershipRecord, error)
	GetEntryByAppID(ctx context.Context, appID int64) (*models.CatalogEntry, error)
	UpsertCatalogEntry(ctx context.Context, entry *models.CatalogEntry) (*models.CatalogEntry, error)
	UpsertOwnership(ctx context.Context, playerID, entryID int64, playtimeMinutes, recent2WeekMinutes int, syncedAt time.Time) error
	SetFavorite(ctx context.Context, playerID, entryID int64, favorite bool) error
	ListFavorites(ctx context.Context, playerID int64) ([]models.FavoriteGame, error)
	PlaytimeByGenre(ctx context.Context, playerID int64) ([]database.GenrePlaytime, error)
}

// Coordinator wires the pipeline together. All public operations follow the
// same shape: serve from cache when possible, otherwise sync, compute,
// cache, return.
type Coordinator struct {
	syncer      Syncer
	recommender Recommender
	enricher    Enricher
	vanity      VanityResolver
	db          DBInterface
	cache       cache.Store

	now func() time.Time
}

// NewCoordinator creates a pipeline coordinator.
func NewCoordinator(syncer Syncer, recommender Recommender, enricher Enricher, vanity VanityResolver, db DBInterface, store cache.Store) *Coordinator {
	return &Coordinator{
		syncer:      syncer,
		recommender: recommender,
		enricher:    enricher,
		vanity:      vanity,
		db:          db,
		cache:       store,
		now:         time.Now,
	}
}

func libraryKey(steamID string) string         { return "games:" + steamID }
func recommendationsKey(steamID string) string { return "recommendations:" + steamID }
func vanityKey(name string) string             { return "vanity:" + name }

// GetLibrary returns the assembled library view for a player, syncing from
// Steam first when the stored data is stale.
func (c *Coordinator) GetLibrary(ctx context.Context, steamID string) (*models.LibraryResponse, error) {
	key := libraryKey(steamID)
	if cached, found, err := cache.GetJSON[models.LibraryResponse](c.cache, key); err == nil && found && cached != nil {
		return cached, nil
	}

	records, err := c.syncedOwnership(ctx, steamID)
	if err != nil {
		return nil, err
	}

	response := stats.BuildLibraryResponse(records)
	if err := cache.SetJSON(c.cache, key, &response, libraryTTL); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return &response, nil
}

// GetRecommendations returns the recommendation envelope for a player.
// Two expiry policies apply: the outer cache TTL, and the envelope's own
// freshness window. A cached envelope is reused only while both hold.
func (c *Coordinator) GetRecommendations(ctx context.Context, steamID string) (*models.RecommendationEnvelope, error) {
	key := recommendationsKey(steamID)
	if cached, found, err := cache.GetJSON[models.CachedRecommendations](c.cache, key); err == nil && found && cached != nil {
		if c.now().Sub(cached.LastUpdated) < recommendationFreshness {
			metrics.RecommendationsTotal.WithLabelValues("cached").Inc()
			return &cached.Recommendations, nil
		}
	}

	records, err := c.syncedOwnership(ctx, steamID)
	if err != nil {
		return nil, err
	}

	envelope := c.recommender.Generate(ctx, steamID, records)
	wrapped := models.CachedRecommendations{
		Recommendations: *envelope,
		LastUpdated:     c.now().UTC(),
	}
	if err := cache.SetJSON(c.cache, key, &wrapped, recommendationsTTL); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return envelope, nil
}

// GetProfile composes the player profile: identity, library summary, top
// recommendations, favorite genres, and the derived mood.
func (c *Coordinator) GetProfile(ctx context.Context, steamID string) (*models.UserProfile, error) {
	player, err := c.syncer.SyncLibrary(ctx, steamID)
	if err != nil {
		return nil, err
	}

	records, err := c.db.GetOwnership(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	library := stats.BuildLibraryResponse(records)

	genreTotals, err := c.db.PlaytimeByGenre(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	genreMinutes := make([]stats.GenreMinutes, 0, len(genreTotals))
	for _, g := range genreTotals {
		genreMinutes = append(genreMinutes, stats.GenreMinutes{Genre: g.Genre, Minutes: g.Minutes})
	}

	recommendations, err := c.GetRecommendations(ctx, steamID)
	if err != nil {
		// A profile without recommendations is still a profile.
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Recommendations unavailable for profile")
		recommendations = &models.RecommendationEnvelope{}
	}

	topGames := stats.TopGames(records)
	if len(topGames) > profileTopGames {
		topGames = topGames[:profileTopGames]
	}
	topPicks := recommendations.Games
	if len(topPicks) > profileRecommendations {
		topPicks = topPicks[:profileRecommendations]
	}

	return &models.UserProfile{
		Profile: *player,
		Games: models.ProfileGames{
			TotalGames:       library.TotalGames,
			TopGames:         topGames,
			Activity:         library.Activity,
			MultiplayerStats: library.MultiplayerStats,
		},
		Recommendations: topPicks,
		FavoriteGenres:  stats.FavoriteGenres(genreMinutes),
		Mood:            stats.Mood(library.Activity),
	}, nil
}

// AddFavorite marks an owned title as a favorite and invalidates the
// player's recommendation cache, since favorites feed future prompts.
func (c *Coordinator) AddFavorite(ctx context.Context, steamID string, appID int64) error {
	return c.setFavorite(ctx, steamID, appID, true)
}

// RemoveFavorite unmarks a favorite.
func (c *Coordinator) RemoveFavorite(ctx context.Context, steamID string, appID int64) error {
	return c.setFavorite(ctx, steamID, appID, false)
}

func (c *Coordinator) setFavorite(ctx context.Context, steamID string, appID int64, favorite bool) error {
	player, err := c.syncer.SyncLibrary(ctx, steamID)
	if err != nil {
		return err
	}

	entry, err := c.db.GetEntryByAppID(ctx, appID)
	if err != nil {
		if !favorite || !errors.Is(err, models.ErrNotFound) {
			return err
		}
		// Favoriting a title the catalog has never seen: classify it from
		// the storefront and register it.
		entry, err = c.db.UpsertCatalogEntry(ctx, c.enricher.Enrich(ctx, appID, ""))
		if err != nil {
			return err
		}
	}

	err = c.db.SetFavorite(ctx, player.ID, entry.ID, favorite)
	if favorite && errors.Is(err, models.ErrNotFound) {
		// Unowned title: record it with zero playtime, then favorite it.
		if err := c.db.UpsertOwnership(ctx, player.ID, entry.ID, 0, 0, c.now().UTC()); err != nil {
			return err
		}
		err = c.db.SetFavorite(ctx, player.ID, entry.ID, favorite)
	}
	if err != nil {
		return err
	}

	if err := c.cache.Delete(recommendationsKey(steamID)); err != nil {
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Failed to invalidate recommendations cache")
	}
	return nil
}

// ListFavorites lists a player's favorite titles.
func (c *Coordinator) ListFavorites(ctx context.Context, steamID string) ([]models.FavoriteGame, error) {
	player, err := c.db.GetPlayerBySteamID(ctx, steamID)
	if err != nil {
		return nil, err
	}
	return c.db.ListFavorites(ctx, player.ID)
}

// ResolveVanity resolves a vanity profile name to a Steam ID, cached for a
// day.
func (c *Coordinator) ResolveVanity(ctx context.Context, name string) (string, error) {
	key := vanityKey(name)
	if cached, found, err := cache.GetJSON[string](c.cache, key); err == nil && found && cached != nil {
		return *cached, nil
	}

	steamID, err := c.vanity.ResolveVanityURL(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolve vanity %q: %w", name, err)
	}
	if err := cache.SetJSON(c.cache, key, &steamID, vanityTTL); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return steamID, nil
}

// syncedOwnership syncs the player and loads their ownership records.
func (c *Coordinator) syncedOwnership(ctx context.Context, steamID string) ([]models.OwnershipRecord, error) {
	player, err := c.syncer.SyncLibrary(ctx, steamID)
	if err != nil {
		return nil, err
	}
	return c.db.GetOwnership(ctx, player.ID)
}
