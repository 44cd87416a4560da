// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package supervisor

import (
	"context"
	"time"

	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/models"
)

// PlayerLister enumerates players eligible for a background refresh.
// Implemented by *database.DB.
type PlayerLister interface {
	RecentlySyncedPlayers(ctx context.Context, lookback time.Duration) ([]models.Player, error)
}

// LibrarySyncer keeps a player's library fresh. Implemented by *sync.Engine.
type LibrarySyncer interface {
	SyncLibrary(ctx context.Context, steamID string) (*models.Player, error)
}

// RefreshService periodically resyncs players who were active within the
// configured lookback window, so their next request is served warm. Players
// whose data is still fresh are skipped by the sync engine's own staleness
// check, so the loop is cheap when nothing is stale.
type RefreshService struct {
	db     PlayerLister
	syncer LibrarySyncer
	cfg    config.SyncConfig
	name   string
}

// NewRefreshService creates the background refresh scheduler.
func NewRefreshService(db PlayerLister, syncer LibrarySyncer, cfg config.SyncConfig) *RefreshService {
	return &RefreshService{
		db:     db,
		syncer: syncer,
		cfg:    cfg,
		name:   "refresh-scheduler",
	}
}

// Serve implements suture.Service. It runs refresh rounds on the configured
// interval until the context is canceled. When refresh is disabled it parks
// on the context so the supervisor does not restart-loop it.
func (s *RefreshService) Serve(ctx context.Context) error {
	if !s.cfg.RefreshEnabled || s.cfg.RefreshInterval <= 0 {
		logging.Info().Str("service", s.name).Msg("Background refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	logging.Info().
		Str("service", s.name).
		Dur("interval", s.cfg.RefreshInterval).
		Dur("lookback", s.cfg.RefreshLookback).
		Msg("Background refresh started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce refreshes every eligible player. Per-player failures are logged
// and skipped so one broken profile cannot stall the round.
func (s *RefreshService) runOnce(ctx context.Context) {
	players, err := s.db.RecentlySyncedPlayers(ctx, s.cfg.RefreshLookback)
	if err != nil {
		logging.Error().Err(err).Msg("Refresh round failed to list players")
		return
	}
	if len(players) == 0 {
		return
	}

	logging.Debug().Int("players", len(players)).Msg("Refresh round started")
	for _, player := range players {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.syncer.SyncLibrary(ctx, player.SteamID); err != nil {
			logging.Warn().
				Err(err).
				Str("steam_id", player.SteamID).
				Msg("Background refresh failed for player")
		}
	}
}

// String implements fmt.Stringer for suture's event log.
func (s *RefreshService) String() string {
	return s.name
}
