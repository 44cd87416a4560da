// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package steam defines typed response models for the Steam Web API and the
// Steam storefront API. Every upstream response is decoded into one of these
// schemas at the client boundary and default-filled there, so the rest of the
// pipeline operates on a fully-typed model and never sees missing fields.
package steam

// Category codes reported by the storefront appdetails endpoint. Multiplayer
// and co-op are distinct codes; a title is "mixed" only when both appear in
// its category set.
const (
	CategoryMultiplayer = 1
	CategoryCoop        = 2
)

// PlayerSummaries is the response wrapper for ISteamUser/GetPlayerSummaries.
type PlayerSummaries struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// PlayerSummary is a single player profile.
type PlayerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	AvatarFull  string `json:"avatarfull"`
}

// OwnedGames is the response wrapper for IPlayerService/GetOwnedGames.
type OwnedGames struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

// OwnedGame is a single owned title with playtime counters in minutes.
type OwnedGame struct {
	AppID            int64  `json:"appid"`
	Name             string `json:"name"`
	PlaytimeForever  int    `json:"playtime_forever"`
	Playtime2Weeks   int    `json:"playtime_2weeks"`
	ImgIconURL       string `json:"img_icon_url"`
	HasCommunityStat bool   `json:"has_community_visible_stats"`
}

// Sanitize clamps negative playtime counters to zero. Upstream occasionally
// reports negative values for delisted titles; aggregation must never see a
// negative contribution.
func (g *OwnedGame) Sanitize() {
	if g.PlaytimeForever < 0 {
		g.PlaytimeForever = 0
	}
	if g.Playtime2Weeks < 0 {
		g.Playtime2Weeks = 0
	}
}

// RecentlyPlayed is the response wrapper for
// IPlayerService/GetRecentlyPlayedGames.
type RecentlyPlayed struct {
	Response struct {
		TotalCount int         `json:"total_count"`
		Games      []OwnedGame `json:"games"`
	} `json:"response"`
}

// AppDetails is the storefront appdetails result for a single app, keyed by
// appid in the raw response. Success is false for delisted or region-locked
// titles.
type AppDetails struct {
	Success bool            `json:"success"`
	Data    *AppDetailsData `json:"data"`
}

// AppDetailsData carries the subset of storefront metadata Playdex consumes.
type AppDetailsData struct {
	Name       string        `json:"name"`
	Genres     []GenreTag    `json:"genres"`
	Categories []CategoryTag `json:"categories"`
}

// GenreTag is a storefront genre label. The ID is a string in the storefront
// payload, unlike category IDs.
type GenreTag struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// CategoryTag is a storefront category marker.
type CategoryTag struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// HasCategory reports whether any category in the set matches the given code.
// Evaluated across the whole set: a single category never satisfies two
// different codes.
func (d *AppDetailsData) HasCategory(code int) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Categories {
		if c.ID == code {
			return true
		}
	}
	return false
}

// PrimaryGenre returns the first reported genre description, or the empty
// string when the title reports no genres.
func (d *AppDetailsData) PrimaryGenre() string {
	if d == nil || len(d.Genres) == 0 {
		return ""
	}
	return d.Genres[0].Description
}

// AppList is the response wrapper for ISteamApps/GetAppList.
type AppList struct {
	AppList struct {
		Apps []App `json:"apps"`
	} `json:"applist"`
}

// App is a single catalog entry in the full app list.
type App struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

// VanityResolution is the response wrapper for ISteamUser/ResolveVanityURL.
// Success is 1 on a match, 42 on "no match".
type VanityResolution struct {
	Response struct {
		Success int    `json:"success"`
		SteamID string `json:"steamid"`
		Message string `json:"message"`
	} `json:"response"`
}
