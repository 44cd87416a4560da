// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package steam provides the upstream Steam API client stack: a process-wide
// outbound throttle, a typed HTTP client for the Web API and storefront API,
// and a circuit-breaker wrapper for resilience.
package steam

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/playdexapp/playdex/internal/metrics"
)

// Throttle serializes all outbound Steam API calls to a minimum inter-call
// spacing. It is a single global throttle shared by every client in the
// process: concurrent requests for different players queue behind it. That
// is a deliberate trade-off — the upstream rate limit is never exceeded, at
// the cost of pipeline latency under concurrent load.
//
// The check-then-update of the last-call timestamp happens inside the
// limiter's critical section, so concurrent waiters cannot both observe the
// same slot.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle enforcing minSpacing between consecutive
// calls. A zero or negative spacing disables throttling.
func NewThrottle(minSpacing time.Duration) *Throttle {
	limit := rate.Inf
	if minSpacing > 0 {
		limit = rate.Every(minSpacing)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the caller may issue the next outbound call, or until
// the context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	start := time.Now()
	err := t.limiter.Wait(ctx)
	metrics.ThrottleWaitDuration.Observe(time.Since(start).Seconds())
	return err
}
