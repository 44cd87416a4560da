// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/playdexapp/playdex/internal/models"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Steam.APIKey = "test-key"
	cfg.OpenAI.APIKey = "test-openai-key"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Steam.MinCallSpacing != 500*time.Millisecond {
		t.Errorf("expected 500ms min call spacing, got %v", cfg.Steam.MinCallSpacing)
	}
	if cfg.Sync.StalenessWindow != 24*time.Hour {
		t.Errorf("expected 24h staleness window, got %v", cfg.Sync.StalenessWindow)
	}
	if cfg.Recommend.LibraryLimit != 300 {
		t.Errorf("expected library limit 300, got %d", cfg.Recommend.LibraryLimit)
	}
	if cfg.Recommend.LowPlaytimeMinutes != 180 {
		t.Errorf("expected low playtime threshold 180, got %d", cfg.Recommend.LowPlaytimeMinutes)
	}
}

func TestValidateMissingSteamKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Steam.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing Steam API key")
	}
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Errorf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestValidateMissingOpenAIKeyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""
	cfg.Recommend.Enabled = true

	err := cfg.Validate()
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Errorf("expected ErrConfigurationMissing, got %v", err)
	}

	// Disabled recommendations do not require the key
	cfg.Recommend.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config with recommendations disabled, got %v", err)
	}
}

func TestValidateCacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown cache backend")
	}

	cfg.Cache.Backend = "badger"
	cfg.Cache.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for badger backend without path")
	}

	cfg.Cache.Backend = "memory"
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory backend should not require a path, got %v", err)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("STEAM_API_KEY", "env-key")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Steam.APIKey != "env-key" {
		t.Errorf("expected env Steam key, got %q", cfg.Steam.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("expected memory cache backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
	}
}

func TestEnvTransformSkipsUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unknown env var to be skipped, got %q", got)
	}
	if got := envTransformFunc("STEAM_API_KEY"); got != "steam.api_key" {
		t.Errorf("expected steam.api_key, got %q", got)
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("STEAM_API_KEY", "k")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("expected trimmed origin, got %q", cfg.Server.CORSOrigins[1])
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8480}
	if got := s.Addr(); got != "127.0.0.1:8480" {
		t.Errorf("expected 127.0.0.1:8480, got %q", got)
	}
}
