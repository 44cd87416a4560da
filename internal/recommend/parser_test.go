// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package recommend

import (
	"errors"
	"testing"

	"github.com/playdexapp/playdex/internal/models"
)

func TestParseCandidates(t *testing.T) {
	raw := `[{"name":"Hades","comment":"Fast roguelike action"},{"name":"Celeste","comment":"Tight platforming"}]`

	candidates, err := parseCandidates(raw, 10)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Name != "Hades" || candidates[1].Comment != "Tight platforming" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestParseCandidatesStripsFences(t *testing.T) {
	inputs := []string{
		"```json\n[{\"name\":\"Hades\",\"comment\":\"Roguelike\"}]\n```",
		"```\n[{\"name\":\"Hades\",\"comment\":\"Roguelike\"}]\n```",
		"  [{\"name\":\"Hades\",\"comment\":\"Roguelike\"}]  ",
	}
	for _, raw := range inputs {
		candidates, err := parseCandidates(raw, 10)
		if err != nil {
			t.Errorf("parse %q: %v", raw, err)
			continue
		}
		if len(candidates) != 1 || candidates[0].Name != "Hades" {
			t.Errorf("unexpected candidates for %q: %+v", raw, candidates)
		}
	}
}

func TestParseCandidatesCap(t *testing.T) {
	raw := `[
		{"name":"A","comment":"a"},{"name":"B","comment":"b"},{"name":"C","comment":"c"}
	]`
	candidates, err := parseCandidates(raw, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected cap at 2, got %d", len(candidates))
	}
}

func TestParseCandidatesMalformed(t *testing.T) {
	inputs := []string{
		`not json at all`,
		`{"name":"Hades","comment":"object not array"}`,
	}
	for _, raw := range inputs {
		if _, err := parseCandidates(raw, 10); !errors.Is(err, models.ErrMalformedPayload) {
			t.Errorf("expected ErrMalformedPayload for %q, got %v", raw, err)
		}
	}
}

func TestParseCandidatesDiscardsIncompleteEntries(t *testing.T) {
	raw := `[
		{"name":"Hades","comment":"Fast roguelike action"},
		{"name":"","comment":"empty name"},
		{"name":"Bad"},
		{"name":"Celeste","comment":"Tight platforming"}
	]`
	candidates, err := parseCandidates(raw, 10)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 surviving candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Name != "Hades" || candidates[1].Name != "Celeste" {
		t.Errorf("wrong entries survived: %+v", candidates)
	}
}

func TestParseCandidatesAllEntriesIncomplete(t *testing.T) {
	candidates, err := parseCandidates(`[{"name":"Hades"},{"name":"","comment":"x"}]`, 10)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no survivors, got %+v", candidates)
	}
}

func TestStripCodeFencesPassthrough(t *testing.T) {
	if got := stripCodeFences("[1,2,3]"); got != "[1,2,3]" {
		t.Errorf("plain input altered: %q", got)
	}
}
