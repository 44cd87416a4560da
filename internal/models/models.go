// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package models defines the domain data structures used throughout Playdex:
// players, catalog entries, ownership records, aggregated library statistics,
// and recommendation envelopes.
package models

import "time"

// Player is a Steam user known to Playdex. Players are created lazily on
// first observation ("find or create") and never deleted by the pipeline.
type Player struct {
	ID        int64  `json:"id"`
	SteamID   string `json:"steamId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// CatalogEntry is per-title metadata shared across all players who own the
// title. AppID is nil for entries that could not be verified against the
// Steam catalog.
//
// IsMixed is true only when the title is multiplayer AND its category set
// carries the distinct co-op marker; the two markers are different category
// codes and are never satisfied by a single category.
type CatalogEntry struct {
	ID            int64  `json:"id"`
	AppID         *int64 `json:"appid"`
	Name          string `json:"name"`
	Genre         string `json:"genre"`
	IsMultiplayer bool   `json:"isMultiplayer"`
	IsMixed       bool   `json:"isMixed"`
	IsVerified    bool   `json:"isVerified"`
}

// OwnershipRecord links a player to a catalog entry with playtime state.
// One row per (player, entry) pair; updated in place on every resync.
// LastSyncedAt drives per-player staleness.
//
// Playtime is stored in minutes exactly as Steam reports it; conversion to
// hours happens at aggregation time so rounding never compounds.
type OwnershipRecord struct {
	ID                 int64         `json:"id"`
	PlayerID           int64         `json:"playerId"`
	EntryID            int64         `json:"entryId"`
	Entry              *CatalogEntry `json:"entry,omitempty"`
	PlaytimeMinutes    int           `json:"playtimeMinutes"`
	Recent2WeekMinutes int           `json:"recent2WeekMinutes"`
	LastSyncedAt       time.Time     `json:"lastSyncedAt"`
	IsFavorite         bool          `json:"isFavorite"`
}

// LibraryGame is the per-title view returned by the library endpoint.
type LibraryGame struct {
	Name             string `json:"name"`
	PlaytimeHours    int    `json:"playtime"`
	Recent2WeekHours int    `json:"playtime_2weeks"`
	Genre            string `json:"genre"`
	IsMultiplayer    bool   `json:"isMultiplayer"`
	IsMixed          bool   `json:"isMixed"`
}

// Activity holds extrapolated play-time windows in hours. The 3-day and
// 1-month values are statistical approximations derived from the 2-week
// window, not ground truth.
type Activity struct {
	Last3Days int `json:"last3Days"`
	Last2Week int `json:"last2Weeks"`
	LastMonth int `json:"lastMonth"`
}

// MultiplayerStats partitions total playtime hours into mutually exclusive
// buckets. Mixed takes precedence over multiplayer.
type MultiplayerStats struct {
	MultiplayerTime  int `json:"multiplayerTime"`
	SingleplayerTime int `json:"singleplayerTime"`
	MixedTime        int `json:"mixedTime"`
}

// LibraryResponse is the result of the "get library" pipeline operation.
type LibraryResponse struct {
	Games            []LibraryGame    `json:"games"`
	Activity         Activity         `json:"activity"`
	TotalGames       int              `json:"totalGames"`
	MultiplayerStats MultiplayerStats `json:"multiplayerStats"`
}

// RecommendedGame is a single recommendation candidate. AppID is nil when
// the title could not be resolved against the Steam catalog.
type RecommendedGame struct {
	AppID   *int64 `json:"appid"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// RecommendationEnvelope is the result of the "get recommendations" pipeline
// operation. IsLimited is true when the generative path was skipped for a
// very large library and Games carries the low-engagement sample instead.
type RecommendationEnvelope struct {
	Games            []RecommendedGame `json:"games"`
	IsLimited        bool              `json:"isLimited"`
	LowPlaytimeGames []RecommendedGame `json:"lowPlaytimeGames"`
}

// CachedRecommendations wraps a RecommendationEnvelope with its generation
// timestamp. The outer cache TTL and the embedded freshness check are two
// independent expiry policies: an envelope younger than the freshness window
// is reused even after the outer cache entry expired and was repopulated.
type CachedRecommendations struct {
	Recommendations RecommendationEnvelope `json:"recommendations"`
	LastUpdated     time.Time              `json:"lastUpdated"`
}

// FavoriteGame is the per-title view returned by the favorites endpoints.
type FavoriteGame struct {
	AppID    *int64  `json:"appid"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// GenreShare is a favorite-genre percentage of total playtime.
type GenreShare struct {
	Genre      string `json:"genre"`
	Percentage int    `json:"percentage"`
}

// ProfileGames is the library summary embedded in a user profile.
type ProfileGames struct {
	TotalGames       int              `json:"totalGames"`
	TopGames         []LibraryGame    `json:"topGames"`
	Activity         Activity         `json:"activity"`
	MultiplayerStats MultiplayerStats `json:"multiplayerStats"`
}

// UserProfile composes a player's profile, library summary, top
// recommendations, favorite genres, and a derived mood label.
type UserProfile struct {
	Profile         Player            `json:"profile"`
	Games           ProfileGames      `json:"games"`
	Recommendations []RecommendedGame `json:"recommendations"`
	FavoriteGenres  []GenreShare      `json:"favoriteGenres"`
	Mood            string            `json:"mood"`
}
