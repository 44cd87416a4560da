// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package api provides the HTTP surface: Chi routing, middleware, and the
// handlers that translate requests into pipeline operations.
package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playdexapp/playdex/internal/models"
)

// steamIDPattern matches 64-bit SteamIDs (17 decimal digits).
var steamIDPattern = regexp.MustCompile(`^[0-9]{17}$`)

// Pipeline is the coordinator surface the handlers call into. Implemented
// by *pipeline.Coordinator.
type Pipeline interface {
	GetLibrary(ctx context.Context, steamID string) (*models.LibraryResponse, error)
	GetRecommendations(ctx context.Context, steamID string) (*models.RecommendationEnvelope, error)
	GetProfile(ctx context.Context, steamID string) (*models.UserProfile, error)
	AddFavorite(ctx context.Context, steamID string, appID int64) error
	RemoveFavorite(ctx context.Context, steamID string, appID int64) error
	ListFavorites(ctx context.Context, steamID string) ([]models.FavoriteGame, error)
	ResolveVanity(ctx context.Context, name string) (string, error)
}

// Pinger reports storage connectivity for health checks. Implemented by
// *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the handler dependencies.
type Handler struct {
	pipeline  Pipeline
	db        Pinger
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(p Pipeline, db Pinger) *Handler {
	return &Handler{
		pipeline:  p,
		db:        db,
		startTime: time.Now(),
	}
}

// steamIDParam extracts and validates the steamID path parameter. On
// failure it writes the error response and returns false.
func steamIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	steamID := chi.URLParam(r, "steamID")
	if !steamIDPattern.MatchString(steamID) {
		respondError(w, http.StatusBadRequest, "INVALID_STEAM_ID", "steamID must be a 17-digit SteamID64", nil)
		return "", false
	}
	return steamID, true
}

// appIDParam extracts and validates the appID path parameter.
func appIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	appID, err := strconv.ParseInt(chi.URLParam(r, "appID"), 10, 64)
	if err != nil || appID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_APP_ID", "appID must be a positive integer", nil)
		return 0, false
	}
	return appID, true
}

// Health reports service health: storage connectivity and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	respondOK(w, models.HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// Library returns the aggregated library view for a player.
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}

	library, err := h.pipeline.GetLibrary(r.Context(), steamID)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, library)
}

// Recommendations returns the recommendation envelope for a player.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}

	envelope, err := h.pipeline.GetRecommendations(r.Context(), steamID)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, envelope)
}

// Profile returns the composed user profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}

	profile, err := h.pipeline.GetProfile(r.Context(), steamID)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, profile)
}

// ListFavorites returns a player's favorite titles.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}

	favorites, err := h.pipeline.ListFavorites(r.Context(), steamID)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	if favorites == nil {
		favorites = []models.FavoriteGame{}
	}
	respondOK(w, favorites)
}

// AddFavorite marks an owned title as a favorite.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}
	appID, ok := appIDParam(w, r)
	if !ok {
		return
	}

	if err := h.pipeline.AddFavorite(r.Context(), steamID, appID); err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, map[string]bool{"favorite": true})
}

// RemoveFavorite unmarks a favorite.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	steamID, ok := steamIDParam(w, r)
	if !ok {
		return
	}
	appID, ok := appIDParam(w, r)
	if !ok {
		return
	}

	if err := h.pipeline.RemoveFavorite(r.Context(), steamID, appID); err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, map[string]bool{"favorite": false})
}

// ResolveVanity resolves a vanity profile name to a SteamID64.
func (h *Handler) ResolveVanity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "vanityName")
	if name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_VANITY_NAME", "vanity name required", nil)
		return
	}

	steamID, err := h.pipeline.ResolveVanity(r.Context(), name)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondOK(w, map[string]string{"steamId": steamID})
}

// respondPipelineError maps domain errors onto HTTP status codes.
func respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "player or title not found", err)
	case errors.Is(err, models.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream service unavailable", err)
	case errors.Is(err, models.ErrMalformedPayload):
		respondError(w, http.StatusBadGateway, "UPSTREAM_MALFORMED", "upstream returned a malformed response", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", err)
	}
}
