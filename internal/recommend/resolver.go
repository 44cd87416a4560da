// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package recommend

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/logging"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
)

const (
	// appListKey caches the full Steam catalog (appid/name pairs).
	appListKey = "steam_app_list"
	appListTTL = 24 * time.Hour

	// Per-name resolution results. Successful resolutions are stable for a
	// long time; misses retry sooner since new titles appear daily.
	resolutionTTL         = 7 * 24 * time.Hour
	negativeResolutionTTL = 24 * time.Hour
)

// nameCleaner strips everything but lowercase letters, digits, colons and
// spaces, so model output and catalog names compare on their core text
// regardless of punctuation ("FTL: Faster Than Light" vs "FTL — Faster
// Than Light!").
var nameCleaner = regexp.MustCompile(`[^a-z0-9: ]`)

// normalizeName canonicalizes a title for catalog matching.
func normalizeName(name string) string {
	return strings.TrimSpace(nameCleaner.ReplaceAllString(strings.ToLower(name), ""))
}

// appListFetcher is the slice of the Steam client the resolver needs.
type appListFetcher interface {
	GetAppList(ctx context.Context) ([]steammodels.App, error)
}

// Resolver maps model-generated title names to Steam appids via the cached
// full catalog.
type Resolver struct {
	client appListFetcher
	cache  cache.Store
}

// NewResolver creates an appid resolver.
func NewResolver(client appListFetcher, store cache.Store) *Resolver {
	return &Resolver{client: client, cache: store}
}

// resolutionKey is the per-name cache key, keyed by normalized name.
func resolutionKey(normalized string) string {
	return "appid:" + normalized
}

// Resolve returns the appid for a title name, or nil when the name matches
// nothing in the Steam catalog. Resolution failures degrade to nil rather
// than erroring: an unresolved appid only means the frontend cannot link
// the title.
func (r *Resolver) Resolve(ctx context.Context, name string) *int64 {
	normalized := normalizeName(name)
	if normalized == "" {
		return nil
	}

	key := resolutionKey(normalized)
	cached, found, err := cache.GetJSON[int64](r.cache, key)
	if err == nil && found {
		return cached // nil for a cached miss
	}

	apps, err := r.appList(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("name", name).Msg("App list unavailable, skipping appid resolution")
		return nil
	}

	var match *int64
	for i := range apps {
		if normalizeName(apps[i].Name) == normalized {
			match = &apps[i].AppID
			break
		}
	}

	if match != nil {
		if err := cache.SetJSON(r.cache, key, match, resolutionTTL); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	} else {
		if err := cache.SetNegative(r.cache, key, negativeResolutionTTL); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return match
}

// appList returns the full Steam catalog, from cache when possible.
func (r *Resolver) appList(ctx context.Context) ([]steammodels.App, error) {
	cached, found, err := cache.GetJSON[[]steammodels.App](r.cache, appListKey)
	if err == nil && found && cached != nil {
		return *cached, nil
	}

	apps, err := r.client.GetAppList(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(r.cache, appListKey, &apps, appListTTL); err != nil {
		logging.Warn().Err(err).Msg("Failed to cache app list")
	}
	return apps, nil
}
