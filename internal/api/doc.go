// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package api exposes the HTTP surface of the ranking engine: the
// JSON endpoints under /api/v1, the Prometheus /metrics endpoint,
// and a liveness probe.
//
// Handlers are thin. They decode and validate the request, select a
// user profile (X-User-ID header, "default" when absent), take a
// catalog and profile snapshot, and delegate to the recommend engine
// or the profile registry. All responses use a common envelope with a
// status field and a structured error object on failure.
package api
