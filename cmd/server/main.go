// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package main is the entry point for the Playdex server.
//
// Playdex syncs Steam game libraries into DuckDB, aggregates playtime
// analytics, and generates game recommendations through a chat-completion
// model. The server initializes components in this order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env)
//  2. Cache: BadgerDB or in-memory TTL key/value store
//  3. Database: DuckDB storage for players, catalog entries, and ownership
//  4. Steam client: throttled, circuit-broken Web API and storefront client
//  5. Engines: catalog enricher, library sync, recommendation generation
//  6. Pipeline: cache-aside coordinator over the engines
//  7. Supervisor tree: background refresh scheduler and HTTP server
//
// # Configuration
//
// Required settings:
//   - STEAM_API_KEY: Steam Web API key
//   - OPENAI_API_KEY: required only when RECOMMEND_ENABLED=true
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, then the scheduler, event bus, cache,
// and database close in reverse initialization order.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/playdexapp/playdex/internal/api"
	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/database"
	"github.com/playdexapp/playdex/internal/events"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/pipeline"
	"github.com/playdexapp/playdex/internal/recommend"
	"github.com/playdexapp/playdex/internal/steam"
	"github.com/playdexapp/playdex/internal/supervisor"
	syncpkg "github.com/playdexapp/playdex/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("recommend_enabled", cfg.Recommend.Enabled).
		Msg("Starting Playdex")

	// Cache store
	var store cache.Store
	if cfg.Cache.Backend == "badger" {
		badgerStore, err := cache.NewBadgerStore(cfg.Cache.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open cache store")
		}
		store = badgerStore
	} else {
		store = cache.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Steam client with global throttle and circuit breaker
	throttle := steam.NewThrottle(cfg.Steam.MinCallSpacing)
	steamClient := steam.NewCircuitBreakerClient(steam.NewClient(&cfg.Steam, throttle))

	// Event bus
	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Engines
	enricher := syncpkg.NewCatalogEnricher(steamClient, store)
	syncEngine := syncpkg.NewEngine(steamClient, db, store, enricher, bus, cfg.Sync.StalenessWindow)

	var completer recommend.Completer
	if cfg.Recommend.Enabled {
		completer = recommend.NewOpenAIClient(&cfg.OpenAI)
	}
	resolver := recommend.NewResolver(steamClient, store)
	recommendEngine := recommend.NewEngine(completer, resolver, bus, cfg.Recommend)

	coordinator := pipeline.NewCoordinator(syncEngine, recommendEngine, enricher, steamClient, db, store)

	// HTTP server
	handler := api.NewHandler(coordinator, db)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Supervisor tree: refresh scheduler and HTTP server
	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddSyncService(supervisor.NewRefreshService(db, syncEngine, cfg.Sync))
	tree.AddSyncService(pipeline.NewSyncListener(bus, store))
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Server listening")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("Shutdown complete")
}
