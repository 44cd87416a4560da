// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package models

// GenreOther is the fallback genre for titles whose first reported genre is
// not in the controlled vocabulary, or whose metadata lookup failed.
const GenreOther = "Other"

// StandardGenres is the controlled genre vocabulary. A CatalogEntry's genre
// is always one of these or GenreOther, never empty.
var StandardGenres = []string{
	"Action", "Adventure", "RPG", "Strategy", "Simulation", "Sports",
	"Racing", "MOBA", "Indie", "Casual", "Massively Multiplayer", "Puzzle",
	"Platformer", "Shooter", "Fighting", "Stealth", "Survival", "Horror",
	"Tower Defense", "Turn-Based", "Real-Time Strategy", "Visual Novel",
	"Card Game", "Music", "Party", "Education",
}

// NormalizeGenre maps a reported genre label onto the controlled vocabulary.
// Labels outside the vocabulary collapse to GenreOther; the match is exact,
// case-sensitive, matching what the upstream store reports.
func NormalizeGenre(genre string) string {
	for _, g := range StandardGenres {
		if g == genre {
			return g
		}
	}
	return GenreOther
}
