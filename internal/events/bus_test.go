// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package events

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, err := bus.Subscribe(TopicLibrarySynced)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	published := LibrarySynced{
		SteamID:    "76561198000000001",
		TitleCount: 42,
		SyncedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := bus.Publish(TopicLibrarySynced, published); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-ch:
		var received LibrarySynced
		if err := json.Unmarshal(msg.Payload, &received); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if received.SteamID != published.SteamID || received.TitleCount != 42 {
			t.Errorf("unexpected event: %+v", received)
		}
		if msg.UUID == "" {
			t.Error("expected non-empty message uuid")
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	syncCh, err := bus.Subscribe(TopicLibrarySynced)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(TopicRecommendationsGenerated, RecommendationsGenerated{SteamID: "x"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-syncCh:
		t.Errorf("received event on wrong topic: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
