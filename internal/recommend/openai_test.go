// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package recommend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/playdexapp/playdex/internal/config"
	"github.com/playdexapp/playdex/internal/models"
)

func newTestOpenAIClient(t *testing.T, handler http.Handler) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(&config.OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Model:       "gpt-4o-mini",
		MaxTokens:   512,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func TestCompleteSendsChatRequest(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}

		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"name\":\"Hades\",\"comment\":\"x\"}]"}}]}`))
	}))

	content, err := client.Complete(context.Background(), "recommend games")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != `[{"name":"Hades","comment":"x"}]` {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))

	_, err := client.Complete(context.Background(), "x")
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))

	_, err := client.Complete(context.Background(), "x")
	if !errors.Is(err, models.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}
