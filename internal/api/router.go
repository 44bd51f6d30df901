// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the chi router: global middleware, the /api/v1
// route group behind the configured rate limit, and the operational
// endpoints (/metrics, /api/v1/health) behind a permissive one so
// scrapers and probes are never throttled by client traffic.
func NewRouter(h *Handler, mw *Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(mw.Logger)
	r.Use(mw.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(300, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Get("/health", h.handleHealth)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Post("/recommend", h.handleRecommend)
			r.Post("/rank", h.handleRank)
			r.Post("/watch", h.handleWatch)
			r.Post("/rate", h.handleRate)
			r.Post("/wishlist", h.handleWishlist)
			r.Get("/profile", h.handleProfile)
			r.Post("/chat", h.handleChat)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
