// Playdex - Steam Library Sync, Analytics and Recommendations
// Copyright 2026 Playdex Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playdexapp/playdex

package models

import "errors"

// Error taxonomy for the pipeline. Callers classify failures with errors.Is
// and decide between graceful degradation and propagation:
//
//   - ErrUpstreamUnavailable: network failure or non-2xx from an external API.
//     Non-fatal for per-title enrichment (safe defaults apply), fatal for the
//     top-level owned-titles fetch.
//   - ErrConfigurationMissing: a required credential is absent. Fatal,
//     surfaced immediately, never retried.
//   - ErrMalformedPayload: unexpected shape from the generative model or the
//     catalog. Recovered locally by discarding the offending record.
//   - ErrNotFound: profile or vanity lookup with no match. Surfaced to the
//     caller as a typed failure, not retried.
var (
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrConfigurationMissing = errors.New("required configuration missing")
	ErrMalformedPayload     = errors.New("malformed upstream payload")
	ErrNotFound             = errors.New("not found")
)
