// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package recommend

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/playdexapp/playdex/internal/models"
)

// rawCandidate is the shape the model is asked to produce.
type rawCandidate struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// stripCodeFences removes a wrapping Markdown code fence (``` or ```json)
// if present. Models regularly wrap JSON output in fences despite being told
// not to.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "[{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseCandidates extracts recommendation candidates from a raw model
// completion. Entries missing a non-empty string name or comment are
// discarded individually; the rest of the payload survives. The surviving
// list is capped at max entries.
func parseCandidates(raw string, max int) ([]rawCandidate, error) {
	cleaned := stripCodeFences(raw)

	var decoded []rawCandidate
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("%w: model response is not a JSON array: %v", models.ErrMalformedPayload, err)
	}

	candidates := make([]rawCandidate, 0, len(decoded))
	for _, c := range decoded {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Comment) == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates, nil
}
