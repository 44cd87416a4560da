// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
)

// Middleware builds the Chi middleware stack from server configuration.
type Middleware struct {
	cfg *config.ServerConfig
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(cfg *config.ServerConfig) *Middleware {
	return &Middleware{cfg: cfg}
}

// CORS returns the cross-origin middleware. Origins come from
// configuration; an empty list denies all cross-origin requests.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: m.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	})
}

// RateLimit returns the per-IP rate limiter.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	window := m.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(m.cfg.RateLimitReqs, window)
}

// RequestID assigns a request ID when the client did not send one, and
// echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// statusResponseWriter captures the response status code for metrics.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// PrometheusMetrics records request counts and latency per route pattern.
// The Chi route pattern keeps label cardinality bounded: /library/{steamID}
// is one label value, not one per player.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		duration := time.Since(start)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, pattern, http.StatusText(ww.statusCode)).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, pattern).Observe(duration.Seconds())

		logging.Debug().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", ww.statusCode).
			Dur("duration", duration).
			Msg("Request completed")
	})
}
