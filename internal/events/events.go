// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

// Package events provides the in-process event bus. Pipeline components
// publish domain events (library synced, recommendations generated) that
// other components consume without direct coupling.
package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/playdexapp/playdex/internal/logging"
)

// Topics.
const (
	TopicLibrarySynced            = "library.synced"
	TopicRecommendationsGenerated = "recommendations.generated"
)

// LibrarySynced is published after a full library sync completes.
type LibrarySynced struct {
	SteamID    string    `json:"steamId"`
	TitleCount int       `json:"titleCount"`
	SyncedAt   time.Time `json:"syncedAt"`
}

// RecommendationsGenerated is published after a recommendation envelope is
// freshly generated (not served from cache).
type RecommendationsGenerated struct {
	SteamID        string    `json:"steamId"`
	CandidateCount int       `json:"candidateCount"`
	IsLimited      bool      `json:"isLimited"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// loggerAdapter routes Watermill's internal logging through zerolog.
type loggerAdapter struct {
	fields watermill.LogFields
}

// NewLoggerAdapter creates a Watermill logger backed by the process logger.
func NewLoggerAdapter() watermill.LoggerAdapter {
	return &loggerAdapter{}
}

func (l *loggerAdapter) event(fields watermill.LogFields) map[string]interface{} {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(l.event(fields)).Msg(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(l.event(fields)).Msg(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(l.event(fields)).Msg(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(l.event(fields)).Msg(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{fields: l.event(fields)}
}
