// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package steam

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/playdexapp/playdex/internal/logging"
	"github.com/playdexapp/playdex/internal/metrics"
	steammodels "github.com/playdexapp/playdex/internal/models/steam"
)

// CircuitBreakerClient wraps a ClientInterface with circuit breaker
// protection so a degraded Steam API cannot stall every sync in the process.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout calculations. Tests should mock the underlying client rather than
// the breaker.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a circuit breaker:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client ClientInterface) *CircuitBreakerClient {
	cbName := "steam-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a Steam API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetPlayerSummary fetches a player profile with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetPlayerSummary(ctx context.Context, steamID string) (*steammodels.PlayerSummary, error) {
	return castResult[*steammodels.PlayerSummary](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPlayerSummary(ctx, steamID)
	}))
}

// GetOwnedGames fetches the owned-title list with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetOwnedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	return castResult[[]steammodels.OwnedGame](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetOwnedGames(ctx, steamID)
	}))
}

// GetRecentlyPlayedGames fetches recent titles with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetRecentlyPlayedGames(ctx context.Context, steamID string) ([]steammodels.OwnedGame, error) {
	return castResult[[]steammodels.OwnedGame](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetRecentlyPlayedGames(ctx, steamID)
	}))
}

// GetAppDetails fetches storefront metadata with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetAppDetails(ctx context.Context, appID int64) (*steammodels.AppDetails, error) {
	return castResult[*steammodels.AppDetails](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetAppDetails(ctx, appID)
	}))
}

// GetAppList fetches the full catalog with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetAppList(ctx context.Context) ([]steammodels.App, error) {
	return castResult[[]steammodels.App](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetAppList(ctx)
	}))
}

// ResolveVanityURL resolves a vanity name with circuit breaker protection.
func (cbc *CircuitBreakerClient) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	return castResult[string](cbc.execute(func() (interface{}, error) {
		return cbc.client.ResolveVanityURL(ctx, vanityName)
	}))
}
