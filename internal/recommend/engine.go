// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/events"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
	"github.com/playdexapp/playdex/internal/models"
	"github.com/playdexapp/playdex/internal/stats"
)

// lowPlaytimeComment annotates fallback picks sampled from the player's own
// barely-played titles.
const lowPlaytimeComment = "Already in your library, but you've barely touched it"

// EventPublisher is the slice of the event bus the engine needs.
type EventPublisher interface {
	Publish(topic string, payload interface{}) error
}

// Engine produces recommendation envelopes. The generative path is guarded
// twice: very large libraries skip the model call entirely, and any model
// or parse failure degrades to the low-engagement fallback instead of
// erroring. Callers always get a usable envelope.
type Engine struct {
	completer Completer
	resolver  *Resolver
	publisher EventPublisher
	cfg       config.RecommendConfig

	// rng drives low-engagement sampling; guarded for concurrent requests.
	rng   *rand.Rand
	rngMu sync.Mutex

	now func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(completer Completer, resolver *Resolver, publisher EventPublisher, cfg config.RecommendConfig) *Engine {
	return &Engine{
		completer: completer,
		resolver:  resolver,
		publisher: publisher,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// Generate builds a recommendation envelope for a player's library.
//
// Path selection, in order:
//  1. Library over the size limit: generative call skipped, IsLimited set.
//  2. Recommendations disabled or no model configured: fallback only.
//  3. Generative call; on any failure, fallback only.
//
// On every non-generative path the low-playtime sample IS the
// recommendation list: Games carries the sample so callers always get
// something to show.
func (e *Engine) Generate(ctx context.Context, steamID string, records []models.OwnershipRecord) *models.RecommendationEnvelope {
	envelope := &models.RecommendationEnvelope{
		Games:            []models.RecommendedGame{},
		LowPlaytimeGames: e.lowPlaytimeSample(ctx, records),
	}

	switch {
	case len(records) > e.cfg.LibraryLimit:
		envelope.IsLimited = true
		envelope.Games = envelope.LowPlaytimeGames
		metrics.RecommendationsTotal.WithLabelValues("limited").Inc()
		logging.Info().Str("steam_id", steamID).Int("titles", len(records)).Msg("Library over limit, skipping generative call")

	case !e.cfg.Enabled || e.completer == nil:
		envelope.Games = envelope.LowPlaytimeGames
		metrics.RecommendationsTotal.WithLabelValues("degraded").Inc()

	default:
		games, err := e.generate(ctx, records)
		if err != nil {
			envelope.Games = envelope.LowPlaytimeGames
			metrics.RecommendationsTotal.WithLabelValues("degraded").Inc()
			logging.Warn().Err(err).Str("steam_id", steamID).Msg("Generative recommendations failed, serving fallback")
		} else {
			envelope.Games = games
			metrics.RecommendationsTotal.WithLabelValues("generative").Inc()
			metrics.RecommendationCandidates.Observe(float64(len(games)))
		}
	}

	e.publishGenerated(steamID, envelope)
	return envelope
}

// publishGenerated emits the recommendations.generated event.
func (e *Engine) publishGenerated(steamID string, envelope *models.RecommendationEnvelope) {
	if e.publisher == nil {
		return
	}
	event := events.RecommendationsGenerated{
		SteamID:        steamID,
		CandidateCount: len(envelope.Games),
		IsLimited:      envelope.IsLimited,
		GeneratedAt:    e.now().UTC(),
	}
	if err := e.publisher.Publish(events.TopicRecommendationsGenerated, event); err != nil {
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Failed to publish recommendations event")
	}
}

// lowPlaytimeSample picks up to SampleSize random barely-played owned
// titles. These are always computed, even on the generative path, so the
// frontend can surface "give these another try" alongside new picks.
func (e *Engine) lowPlaytimeSample(ctx context.Context, records []models.OwnershipRecord) []models.RecommendedGame {
	var candidates []models.OwnershipRecord
	for _, r := range records {
		if r.Entry == nil {
			continue
		}
		if r.PlaytimeMinutes < e.cfg.LowPlaytimeMinutes {
			candidates = append(candidates, r)
		}
	}

	e.rngMu.Lock()
	e.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	e.rngMu.Unlock()

	limit := e.cfg.SampleSize
	if len(candidates) < limit {
		limit = len(candidates)
	}

	sample := make([]models.RecommendedGame, 0, limit)
	for _, r := range candidates[:limit] {
		game := models.RecommendedGame{
			Name:    r.Entry.Name,
			Comment: lowPlaytimeComment,
		}
		if r.Entry.AppID != nil {
			game.AppID = r.Entry.AppID
		} else {
			game.AppID = e.resolver.Resolve(ctx, r.Entry.Name)
		}
		sample = append(sample, game)
	}
	return sample
}

// generate runs the generative path: prompt, completion, parse, owned-title
// dedup, appid resolution.
func (e *Engine) generate(ctx context.Context, records []models.OwnershipRecord) ([]models.RecommendedGame, error) {
	raw, err := e.completer.Complete(ctx, e.buildPrompt(records))
	if err != nil {
		return nil, err
	}

	candidates, err := parseCandidates(raw, e.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Entry != nil {
			owned[strings.ToLower(strings.TrimSpace(r.Entry.Name))] = struct{}{}
		}
	}

	games := make([]models.RecommendedGame, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := owned[strings.ToLower(strings.TrimSpace(c.Name))]; ok {
			continue
		}
		// A pick that matches nothing in the Steam catalog is likely a
		// hallucinated title; drop it.
		appID := e.resolver.Resolve(ctx, c.Name)
		if appID == nil {
			continue
		}
		games = append(games, models.RecommendedGame{
			AppID:   appID,
			Name:    c.Name,
			Comment: c.Comment,
		})
	}
	return games, nil
}

// buildPrompt renders the player's library, weighted by playtime, into the
// model prompt.
func (e *Engine) buildPrompt(records []models.OwnershipRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is a player's Steam library with hours played:\n\n")
	for _, r := range records {
		if r.Entry == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%dh", r.Entry.Name, stats.HoursFromMinutes(r.PlaytimeMinutes))
		if r.Entry.Genre != models.GenreOther {
			fmt.Fprintf(&b, ", %s", r.Entry.Genre)
		}
		b.WriteString(")\n")
	}
	// Ask for twice the cap: owned-title dedup and the parse cap trim the
	// surplus.
	fmt.Fprintf(&b,
		"\nRecommend %d Steam games this player does not own but would likely enjoy, "+
			"based on what they play most. Respond with only a JSON array of objects with "+
			"exactly two string fields, \"name\" and \"comment\", where the comment explains "+
			"the pick in at most 15 words. No markdown, no extra text.",
		e.cfg.MaxCandidates*2)
	return b.String()
}
