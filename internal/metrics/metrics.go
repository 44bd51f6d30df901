// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package metrics provides Prometheus instrumentation for:
//   - Ranking latency and outcomes per mode
//   - Profile mutation throughput
//   - Similarity row-cache efficiency
//   - Catalog load performance
//   - API endpoint latency and throughput
//   - Chat upstream outcomes
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking Metrics
	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "Duration of ranking requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"}, // "anchor", "catalog"
	)

	RankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankings_total",
			Help: "Total number of ranking requests",
		},
		[]string{"mode", "status"}, // status: "ok", "error"
	)

	RankingCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_candidates",
			Help:    "Number of catalog items considered per ranking request",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"mode"},
	)

	// Profile Metrics
	ProfileMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_mutations_total",
			Help: "Total number of profile mutations",
		},
		[]string{"operation"}, // "watch", "rate", "wishlist_add"
	)

	ProfilesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiles_active",
			Help: "Current number of in-memory user profiles",
		},
	)

	// Similarity Cache Metrics
	SimilarityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_hits_total",
			Help: "Total number of similarity row cache hits",
		},
	)

	SimilarityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_misses_total",
			Help: "Total number of similarity row cache misses",
		},
	)

	SimilarityRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_rebuild_duration_seconds",
			Help:    "Duration of similarity vector rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog Metrics
	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Duration of catalog loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_load_errors_total",
			Help: "Total number of catalog load failures",
		},
		[]string{"error_type"}, // "open", "query", "schema", "duplicate_id"
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the most recently loaded catalog",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Chat Upstream Metrics
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat upstream requests",
		},
		[]string{"outcome"}, // "ok", "upstream_error", "breaker_open", "rate_limited"
	)

	ChatRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_request_duration_seconds",
			Help:    "Duration of chat upstream calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// RecordRanking records one ranking request with its latency and outcome.
func RecordRanking(mode string, duration time.Duration, candidates int, err error) {
	RankingDuration.WithLabelValues(mode).Observe(duration.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	RankingsTotal.WithLabelValues(mode, status).Inc()
	if err == nil {
		RankingCandidates.WithLabelValues(mode).Observe(float64(candidates))
	}
}

// RecordProfileMutation records one profile write.
func RecordProfileMutation(operation string) {
	ProfileMutations.WithLabelValues(operation).Inc()
}

// RecordCatalogLoad records a catalog load attempt.
func RecordCatalogLoad(duration time.Duration, items int, errorType string) {
	if errorType != "" {
		CatalogLoadErrors.WithLabelValues(errorType).Inc()
		return
	}
	CatalogLoadDuration.Observe(duration.Seconds())
	CatalogItems.Set(float64(items))
}

// RecordChatRequest records one chat upstream call.
func RecordChatRequest(outcome string, duration time.Duration) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		ChatRequestDuration.Observe(duration.Seconds())
	}
}
