// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package cache

import (
	"sync"
	"time"

	"github.com/playdexapp/playdex/internal/metrics"
)

// entry is a cached item with its expiration.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store. Expired entries are removed
// lazily on read and by a background cleanup loop every 5 minutes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates an in-memory cache store and starts its background
// cleanup goroutine. The goroutine runs until Close is called.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get retrieves a value by key, removing it if expired.
func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false, nil
	}

	metrics.CacheHits.WithLabelValues("memory").Inc()
	return e.data, true, nil
}

// Set stores a value with the given TTL.
func (m *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{data: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes a key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the background cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// Len returns the current number of entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// cleanupLoop periodically removes expired entries.
func (m *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup removes all expired entries.
func (m *MemoryStore) cleanup() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
