// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playdexapp/playdex/internal/config"
)

// NewRouter assembles the HTTP routes and middleware stack.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	mw := NewMiddleware(cfg)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/health", handler.Health)

		r.Get("/library/{steamID}", handler.Library)
		r.Get("/recommendations/{steamID}", handler.Recommendations)
		r.Get("/profile/{steamID}", handler.Profile)

		r.Route("/favorites/{steamID}", func(r chi.Router) {
			r.Get("/", handler.ListFavorites)
			r.Post("/{appID}", handler.AddFavorite)
			r.Delete("/{appID}", handler.RemoveFavorite)
		})

		r.Get("/resolve/{vanityName}", handler.ResolveVanity)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
