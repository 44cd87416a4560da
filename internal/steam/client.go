// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/metrics"
	"github.com/playdexapp/playdex/internal/models"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// ClientInterface defines the Steam API operations the pipeline consumes.
// Implemented by Client for production and by mocks for testing; wrapped by
// CircuitBreakerClient for resilience.
//
// All methods take a context for cancellation, funnel through the shared
// Throttle, and return typed models from internal/models/steam. They do not
// retry: retry policy is the caller's responsibility, and callers here
// tolerate partial failure by falling back to default metadata instead.
type ClientInterface interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*steammodels.PlayerSummary, error)
	GetOwnedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error)
	GetRecentlyPlayedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error)
	GetAppDetails(ctx context.Context, appID int64) (*steammodels.AppDetails, error)
	GetAppList(ctx context.Context) ([]steammodels.App, error)
	ResolveVanityURL(ctx context.Context, vanityName string) (string, error)
}

// Client handles communication with the Steam Web API and the storefront
// API. Safe for concurrent use; each request creates its own HTTP request
// and all requests share the global throttle.
type Client struct {
	webAPIURL   string
	storeAPIURL string
	apiKey      string
	client      *http.Client
	throttle    *Throttle
}

// NewClient creates a Steam API client from configuration. The throttle is
// shared: pass the same instance to every component that issues outbound
// calls.
func NewClient(cfg *config.SteamConfig, throttle *Throttle) *Client {
	return &Client{
		webAPIURL:   cfg.WebAPIURL,
		storeAPIURL: cfg.StoreAPIURL,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: cfg.Timeout},
		throttle:    throttle,
	}
}

// readBodyForError reads at most maxErrorBodySize of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// makeRequest performs a throttled GET against reqURL and decodes the JSON
// response into result. Non-2xx responses and transport failures wrap
// models.ErrUpstreamUnavailable.
func (c *Client) makeRequest(ctx context.Context, endpoint, reqURL string, result interface{}) error {
	if err := c.throttle.Wait(ctx); err != nil {
		return fmt.Errorf("throttle wait for %s: %w", endpoint, err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %s: %v", models.ErrUpstreamUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%w: %s returned status %d: %s", models.ErrUpstreamUnavailable, endpoint, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", models.ErrMalformedPayload, endpoint, err)
	}
	return nil
}

// GetPlayerSummary fetches a player profile. Returns models.ErrNotFound when
// the Steam ID matches no profile.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*steammodels.PlayerSummary, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamids", steamID)
	reqURL := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v0002/?%s", c.webAPIURL, params.Encode())

	var result steammodels.PlayerSummaries
	if err := c.makeRequest(ctx, "get_player_summaries", reqURL, &result); err != nil {
		return nil, err
	}
	if len(result.Response.Players) == 0 {
		return nil, fmt.Errorf("%w: profile for steam id %s", models.ErrNotFound, steamID)
	}
	return &result.Response.Players[0], nil
}

// GetOwnedGames fetches the full owned-title list with playtime counters.
// Playtime values are sanitized on ingress so downstream aggregation never
// sees negative contributions. An empty library returns an empty slice.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("format", "json")
	params.Set("include_appinfo", "true")
	reqURL := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v0001/?%s", c.webAPIURL, params.Encode())

	var result steammodels.OwnedGames
	if err := c.makeRequest(ctx, "get_owned_games", reqURL, &result); err != nil {
		return nil, err
	}
	games := result.Response.Games
	for i := range games {
		games[i].Sanitize()
	}
	return games, nil
}

// GetRecentlyPlayedGames fetches titles played in the last two weeks.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", steamID)
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s/IPlayerService/GetRecentlyPlayedGames/v0001/?%s", c.webAPIURL, params.Encode())

	var result steammodels.RecentlyPlayed
	if err := c.makeRequest(ctx, "get_recently_played", reqURL, &result); err != nil {
		return nil, err
	}
	games := result.Response.Games
	for i := range games {
		games[i].Sanitize()
	}
	return games, nil
}

// GetAppDetails fetches storefront metadata for a single title. The raw
// response is keyed by appid; a missing key or success=false yields an
// AppDetails with Success=false rather than an error, since delisted titles
// are an expected condition.
func (c *Client) GetAppDetails(ctx context.Context, appID int64) (*steammodels.AppDetails, error) {
	params := url.Values{}
	params.Set("appids", strconv.FormatInt(appID, 10))
	params.Set("l", "english")
	reqURL := fmt.Sprintf("%s/api/appdetails?%s", c.storeAPIURL, params.Encode())

	var result map[string]steammodels.AppDetails
	if err := c.makeRequest(ctx, "app_details", reqURL, &result); err != nil {
		return nil, err
	}

	details, ok := result[strconv.FormatInt(appID, 10)]
	if !ok {
		return &steammodels.AppDetails{Success: false}, nil
	}
	return &details, nil
}

// GetAppList fetches the full Steam catalog (appid/name pairs). The list is
// large; callers cache it.
func (c *Client) GetAppList(ctx context.Context) ([]steammodels.App, error) {
	reqURL := fmt.Sprintf("%s/ISteamApps/GetAppList/v2/", c.webAPIURL)

	var result steammodels.AppList
	if err := c.makeRequest(ctx, "get_app_list", reqURL, &result); err != nil {
		return nil, err
	}
	return result.AppList.Apps, nil
}

// ResolveVanityURL resolves a vanity profile name to a Steam ID. Returns
// models.ErrNotFound when the name matches nothing.
func (c *Client) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("vanityurl", vanityName)
	reqURL := fmt.Sprintf("%s/ISteamUser/ResolveVanityURL/v1/?%s", c.webAPIURL, params.Encode())

	var result steammodels.VanityResolution
	if err := c.makeRequest(ctx, "resolve_vanity_url", reqURL, &result); err != nil {
		return "", err
	}
	if result.Response.Success != 1 {
		return "", fmt.Errorf("%w: vanity url %q", models.ErrNotFound, vanityName)
	}
	return result.Response.SteamID, nil
}
