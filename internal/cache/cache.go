// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package cache provides the key/value cache store used as cache-aside for
// every expensive computation in the pipeline. Two backends implement the
// Store interface: a BadgerDB-backed store with native TTL support for
// production, and an in-memory store for tests and ephemeral deployments.
//
// Values are opaque serialized blobs. A cached null payload ("negative
// cache": a lookup that failed or matched nothing) is a valid result
// distinct from an absent key; callers must treat the two differently.
// There is no eviction beyond TTL expiry: keys are either deterministic and
// naturally bounded (per-title) or carry short TTLs (per-player).
package cache

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Store is a key/value cache with per-key TTL.
type Store interface {
	// Get returns the stored value and whether the key is present. A present
	// key may carry a negative (null) payload; see IsNegative.
	Get(key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases backend resources.
	Close() error
}

// negativeMarker is the stored payload for negative cache entries.
var negativeMarker = []byte("null")

// IsNegative reports whether a stored payload is a negative cache entry.
func IsNegative(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, negativeMarker)
}

// SetNegative stores a negative ("lookup failed / no match") entry under key.
func SetNegative(s Store, key string, ttl time.Duration) error {
	return s.Set(key, negativeMarker, ttl)
}

// GetJSON fetches and decodes a cached JSON value.
// Returns (nil, true, nil) for a present negative entry and
// (nil, false, nil) for an absent key.
func GetJSON[T any](s Store, key string) (*T, bool, error) {
	data, found, err := s.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if IsNegative(data) {
		return nil, true, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return &v, true, nil
}

// SetJSON encodes and stores a JSON value. A nil value stores a negative
// entry.
func SetJSON[T any](s Store, key string, v *T, ttl time.Duration) error {
	if v == nil {
		return SetNegative(s, key, ttl)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, data, ttl)
}
