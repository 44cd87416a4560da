// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package pipeline

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/playdexapp/playdex/internal/cache"
	"github.com/playdexapp/playdex/internal/events"
	"github.com/playdexapp/playdex/internal/logging"
)

// Subscriber is the slice of the event bus the listener needs. Implemented
// by *events.Bus.
type Subscriber interface {
	Subscribe(topic string) (<-chan *message.Message, error)
}

// SyncListener consumes library.synced events and drops the player's cached
// library response. Background refreshes resync players without going
// through GetLibrary, so without this the assembled response would keep
// serving pre-refresh data until its TTL ran out.
type SyncListener struct {
	bus   Subscriber
	cache cache.Store
}

// NewSyncListener creates the cache-invalidation listener.
func NewSyncListener(bus Subscriber, store cache.Store) *SyncListener {
	return &SyncListener{bus: bus, cache: store}
}

// Serve subscribes and consumes until ctx is canceled. Implements
// suture.Service.
func (l *SyncListener) Serve(ctx context.Context) error {
	ch, err := l.bus.Subscribe(events.TopicLibrarySynced)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				// Bus closed; park until shutdown.
				<-ctx.Done()
				return ctx.Err()
			}
			l.handle(msg)
		}
	}
}

func (l *SyncListener) handle(msg *message.Message) {
	defer msg.Ack()

	var event events.LibrarySynced
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Malformed sync event")
		return
	}
	if err := l.cache.Delete(libraryKey(event.SteamID)); err != nil {
		logging.Warn().Err(err).Str("steam_id", event.SteamID).Msg("Failed to invalidate library cache")
		return
	}
	logging.Debug().Str("steam_id", event.SteamID).Int("titles", event.TitleCount).Msg("Library cache invalidated after sync")
}

func (l *SyncListener) String() string { return "sync-listener" }
