// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package stats computes library aggregates: activity windows, multiplayer
// partitions, top titles, favorite genres, and the derived mood label.
//
// Everything here is pure. The same ownership records always produce the
// same response, regardless of clock, cache, or upstream state.
package stats

import (
	"math"
	"sort"

	"github.com/playdexapp/playdex/internal/models"
)

const (
	// topGamesLimit caps the per-profile top titles list.
	topGamesLimit = 10

	// monthExtrapolationFactor scales the 2-week window to ~1 month
	// (30 days / 14 days).
	monthExtrapolationFactor = 2.14

	// Mood thresholds in 2-week hours.
	moodActiveHours = 20
	moodCasualHours = 5
)

// HoursFromMinutes converts Steam's minute counters to whole hours,
// rounding half away from zero.
func HoursFromMinutes(minutes int) int {
	return int(math.Round(float64(minutes) / 60))
}

// ComputeActivity derives the three activity windows from the total 2-week
// playtime in minutes. Only the 2-week value is measured; the 3-day and
// 1-month values are linear extrapolations of it.
func ComputeActivity(total2WeekMinutes int) models.Activity {
	last3Days := int(math.Round(float64(total2WeekMinutes) * (3.0 / 14.0) / 60))
	last2Weeks := HoursFromMinutes(total2WeekMinutes)
	lastMonth := int(math.Round(float64(last2Weeks) * monthExtrapolationFactor))
	return models.Activity{
		Last3Days: last3Days,
		Last2Week: last2Weeks,
		LastMonth: lastMonth,
	}
}

// ComputeMultiplayerStats partitions total playtime hours into mutually
// exclusive buckets per title: mixed when the title carries the mixed
// marker, multiplayer otherwise when flagged multiplayer, singleplayer for
// the rest. Mixed takes precedence so the three buckets always sum to the
// library's total hours.
func ComputeMultiplayerStats(records []models.OwnershipRecord) models.MultiplayerStats {
	var s models.MultiplayerStats
	for _, r := range records {
		if r.Entry == nil {
			continue
		}
		hours := HoursFromMinutes(r.PlaytimeMinutes)
		switch {
		case r.Entry.IsMixed:
			s.MixedTime += hours
		case r.Entry.IsMultiplayer:
			s.MultiplayerTime += hours
		default:
			s.SingleplayerTime += hours
		}
	}
	return s
}

// toLibraryGame projects an ownership record into the response view.
func toLibraryGame(r models.OwnershipRecord) models.LibraryGame {
	g := models.LibraryGame{
		Name:             r.Entry.Name,
		PlaytimeHours:    HoursFromMinutes(r.PlaytimeMinutes),
		Recent2WeekHours: HoursFromMinutes(r.Recent2WeekMinutes),
		Genre:            r.Entry.Genre,
		IsMultiplayer:    r.Entry.IsMultiplayer,
		IsMixed:          r.Entry.IsMixed,
	}
	return g
}

// BuildLibraryResponse assembles the library view from a player's ownership
// records: the top titles by playtime, the activity windows, and the
// multiplayer partition. The title list is capped at ten; TotalGames carries
// the full library size, and the aggregates cover the whole library.
func BuildLibraryResponse(records []models.OwnershipRecord) models.LibraryResponse {
	totalGames := 0
	total2WeekMinutes := 0
	for _, r := range records {
		if r.Entry == nil {
			continue
		}
		totalGames++
		total2WeekMinutes += r.Recent2WeekMinutes
	}

	return models.LibraryResponse{
		Games:            TopGames(records),
		Activity:         ComputeActivity(total2WeekMinutes),
		TotalGames:       totalGames,
		MultiplayerStats: ComputeMultiplayerStats(records),
	}
}

// TopGames returns the player's most-played titles, capped at ten.
func TopGames(records []models.OwnershipRecord) []models.LibraryGame {
	sorted := make([]models.OwnershipRecord, 0, len(records))
	for _, r := range records {
		if r.Entry != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlaytimeMinutes > sorted[j].PlaytimeMinutes
	})

	limit := topGamesLimit
	if len(sorted) < limit {
		limit = len(sorted)
	}
	top := make([]models.LibraryGame, 0, limit)
	for _, r := range sorted[:limit] {
		top = append(top, toLibraryGame(r))
	}
	return top
}

// GenreMinutes is a per-genre playtime total in minutes.
type GenreMinutes struct {
	Genre   string
	Minutes int
}

// FavoriteGenres converts per-genre playtime totals into the top three
// percentage shares. Percentages are rounded independently, so they need
// not sum to exactly 100. Genres with zero playtime are skipped.
func FavoriteGenres(totals []GenreMinutes) []models.GenreShare {
	grand := 0
	for _, t := range totals {
		grand += t.Minutes
	}
	if grand == 0 {
		return nil
	}

	sorted := make([]GenreMinutes, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Minutes > sorted[j].Minutes
	})

	shares := make([]models.GenreShare, 0, 3)
	for _, t := range sorted {
		if len(shares) == 3 {
			break
		}
		if t.Minutes == 0 {
			continue
		}
		shares = append(shares, models.GenreShare{
			Genre:      t.Genre,
			Percentage: int(math.Round(float64(t.Minutes) / float64(grand) * 100)),
		})
	}
	return shares
}

// Mood labels a player's recent engagement from the 2-week activity window.
func Mood(activity models.Activity) string {
	switch {
	case activity.Last2Week > moodActiveHours:
		return "active"
	case activity.Last2Week > moodCasualHours:
		return "casual"
	default:
		return "occasional"
	}
}
