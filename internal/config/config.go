// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package config provides centralized configuration for all Playdex
// components, loaded with Koanf v2 in three layers:
//
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file for persistent settings
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads. See
// koanf.go for the loader and the environment variable mapping.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/playdexapp/playdex/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Steam     SteamConfig     `koanf:"steam"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Sync      SyncConfig      `koanf:"sync"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SteamConfig configures the upstream Steam API client.
type SteamConfig struct {
	// APIKey is the Steam Web API key. Required.
	APIKey string `koanf:"api_key" validate:"required"`

	// WebAPIURL is the Steam Web API base URL.
	WebAPIURL string `koanf:"web_api_url" validate:"required,url"`

	// StoreAPIURL is the storefront API base URL (appdetails).
	StoreAPIURL string `koanf:"store_api_url" validate:"required,url"`

	// MinCallSpacing is the minimum interval between any two outbound Steam
	// API calls, enforced process-wide.
	MinCallSpacing time.Duration `koanf:"min_call_spacing"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// OpenAIConfig configures the generative recommendation client.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Required when recommendations are enabled.
	APIKey string `koanf:"api_key"`

	// BaseURL is the chat completions API base URL.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Model is the chat model used for recommendation generation.
	Model string `koanf:"model"`

	// MaxTokens bounds the completion length.
	MaxTokens int `koanf:"max_tokens" validate:"gt=0"`

	// Temperature controls sampling randomness.
	Temperature float64 `koanf:"temperature" validate:"gte=0,lte=2"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures the DuckDB storage layer.
type DatabaseConfig struct {
	// Path is the DuckDB database file location.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is DuckDB's memory limit (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = use runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// CacheConfig configures the key/value cache store.
type CacheConfig struct {
	// Backend selects the cache implementation: "badger" or "memory".
	Backend string `koanf:"backend" validate:"oneof=badger memory"`

	// Path is the BadgerDB directory (ignored for the memory backend).
	Path string `koanf:"path"`
}

// SyncConfig configures library synchronization.
type SyncConfig struct {
	// StalenessWindow is the age past which a player's ownership set is
	// considered stale and resynced.
	StalenessWindow time.Duration `koanf:"staleness_window"`

	// RefreshEnabled turns on the background scheduler that proactively
	// resyncs recently active players.
	RefreshEnabled bool `koanf:"refresh_enabled"`

	// RefreshInterval is how often the background scheduler runs.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// RefreshLookback bounds which players the scheduler considers: only
	// those synced within this window.
	RefreshLookback time.Duration `koanf:"refresh_lookback"`
}

// RecommendConfig configures recommendation generation.
type RecommendConfig struct {
	// Enabled turns the generative recommendation path on. When false,
	// recommendation requests always return the low-engagement fallback.
	Enabled bool `koanf:"enabled"`

	// LibraryLimit is the owned-title count above which the generative call
	// is skipped entirely (cost/latency guard).
	LibraryLimit int `koanf:"library_limit" validate:"gt=0"`

	// LowPlaytimeMinutes is the low-engagement threshold: owned titles under
	// this total playtime qualify for the fallback sample.
	LowPlaytimeMinutes int `koanf:"low_playtime_minutes" validate:"gt=0"`

	// SampleSize caps the low-engagement sample.
	SampleSize int `koanf:"sample_size" validate:"gt=0"`

	// MaxCandidates caps the candidate list parsed from the model response.
	MaxCandidates int `koanf:"max_candidates" validate:"gt=0"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural validity and required
// credentials. A missing Steam API key, or a missing OpenAI key while
// recommendations are enabled, is a fatal configuration error.
func (c *Config) Validate() error {
	if c.Steam.APIKey == "" {
		return fmt.Errorf("%w: steam.api_key (STEAM_API_KEY)", models.ErrConfigurationMissing)
	}
	if c.Recommend.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: openai.api_key (OPENAI_API_KEY) required when recommend.enabled", models.ErrConfigurationMissing)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Steam.MinCallSpacing < 0 {
		return fmt.Errorf("steam.min_call_spacing must not be negative")
	}
	if c.Sync.StalenessWindow <= 0 {
		return fmt.Errorf("sync.staleness_window must be positive")
	}
	if c.Cache.Backend == "badger" && c.Cache.Path == "" {
		return fmt.Errorf("cache.path required for badger backend")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
