// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package sync implements library synchronization: fetching a player's
// owned titles from Steam, enriching each title with storefront metadata,
// and upserting the result into the database.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
	"github.com/playdexapp/playdex/internal/models"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
)

// appDetailsTTL is how long per-title storefront metadata is cached.
// Catalog metadata changes rarely; a week keeps steady-state syncs from
// touching the storefront API at all.
const appDetailsTTL = 7 * 24 * time.Hour

// appDetailsFetcher is the slice of the Steam client the enricher needs.
type appDetailsFetcher interface {
	GetAppDetails(ctx context.Context, appID int64) (*steammodels.AppDetails, error)
}

// CatalogEnricher classifies owned titles with storefront metadata: genre,
// multiplayer flag, and the mixed (multiplayer + distinct co-op) marker.
//
// Enrichment never fails a sync. A title whose metadata cannot be fetched
// is classified with safe defaults and left unverified, to be retried on a
// later sync once its cache entry expires.
type CatalogEnricher struct {
	client appDetailsFetcher
	cache  cache.Store
}

// NewCatalogEnricher creates an enricher backed by the given client and
// cache store.
func NewCatalogEnricher(client appDetailsFetcher, store cache.Store) *CatalogEnricher {
	return &CatalogEnricher{client: client, cache: store}
}

// appKey is the per-title metadata cache key.
func appKey(appID int64) string {
	return fmt.Sprintf("app:%d", appID)
}

// Enrich classifies a single owned title. The returned entry always has a
// usable genre and flags; IsVerified distinguishes real classifications
// from defaults.
func (e *CatalogEnricher) Enrich(ctx context.Context, appID int64, name string) *models.CatalogEntry {
	entry := &models.CatalogEntry{
		AppID: &appID,
		Name:  name,
		Genre: models.GenreOther,
	}

	data, err := e.lookupDetails(ctx, appID)
	if err != nil {
		metrics.SyncEnrichmentFailures.Inc()
		logging.Warn().Err(err).Int64("appid", appID).Str("name", name).Msg("Metadata lookup failed, using defaults")
		return entry
	}
	if data == nil {
		// Known-delisted title: defaults without counting a failure.
		return entry
	}

	if entry.Name == "" {
		entry.Name = data.Name
	}
	entry.Genre = models.NormalizeGenre(data.PrimaryGenre())
	entry.IsMultiplayer = data.HasCategory(steammodels.CategoryMultiplayer)
	entry.IsMixed = entry.IsMultiplayer && data.HasCategory(steammodels.CategoryCoop)
	entry.IsVerified = true
	return entry
}

// lookupDetails returns the storefront metadata for appID, using the
// 7-day cache. A nil result with nil error means the title is known to be
// delisted (negative cache). Transient fetch failures are returned as
// errors and deliberately not cached, so the next sync retries.
func (e *CatalogEnricher) lookupDetails(ctx context.Context, appID int64) (*steammodels.AppDetailsData, error) {
	key := appKey(appID)

	cached, found, err := cache.GetJSON[steammodels.AppDetailsData](e.cache, key)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	} else if found {
		return cached, nil
	}

	details, err := e.client.GetAppDetails(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !details.Success || details.Data == nil {
		if err := cache.SetNegative(e.cache, key, appDetailsTTL); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
		return nil, nil
	}

	if err := cache.SetJSON(e.cache, key, details.Data, appDetailsTTL); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return details.Data, nil
}
