// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/playdexapp/playdex/internal/metrics"
)

// Bus is an in-process pub/sub bus backed by Watermill's gochannel
// transport. Subscribers registered after a publish do not receive earlier
// messages.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process event bus.
func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		NewLoggerAdapter(),
	)
	return &Bus{pubsub: pubsub}
}

// Publish serializes payload as JSON and publishes it on topic with a fresh
// message UUID.
func (b *Bus) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Subscribe returns a channel of raw messages for topic. Consumers must Ack
// each message.
func (b *Bus) Subscribe(topic string) (<-chan *message.Message, error) {
	// gochannel's Subscribe context governs the subscription lifetime; the
	// bus owns it via Close.
	ch, err := b.pubsub.Subscribe(context.Background(), topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return ch, nil
}

// Close shuts down the bus and all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
