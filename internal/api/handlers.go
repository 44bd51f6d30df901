// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/catalog"
	"github.com/tomtom215/reelrank/internal/chat"
	"github.com/tomtom215/reelrank/internal/profile"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// Handler holds the wired domain components behind the HTTP surface.
type Handler struct {
	store    *catalog.Store
	engine   *recommend.Engine
	profiles *profile.Registry
	chat     *chat.Client
	validate *validator.Validate
	logger   zerolog.Logger
	version  string
}

// NewHandler wires the domain components into an HTTP handler set.
func NewHandler(
	store *catalog.Store,
	engine *recommend.Engine,
	profiles *profile.Registry,
	chatClient *chat.Client,
	version string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		profiles: profiles,
		chat:     chatClient,
		validate: validator.New(),
		logger:   logger.With().Str("component", "api").Logger(),
		version:  version,
	}
}

// handleRecommend runs the similarity-anchored rerank. The anchor may
// be given by id or by title; title lookup is case-insensitive and
// fails on ambiguity.
func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}
	if req.Anchor.ID == "" && req.Anchor.Title == "" {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "anchor id or title required", nil)
		return
	}

	cat, err := h.store.Load(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "catalog load failed", err)
		return
	}

	prof := h.profiles.Get(userID(r)).Snapshot()
	resp, err := h.engine.Rank(r.Context(), recommend.Request{
		Mode:      recommend.ModeAnchor,
		Anchor:    recommend.ItemRef{ID: req.Anchor.ID, Title: req.Anchor.Title},
		K:         req.K,
		Catalog:   cat,
		Profile:   prof,
		RequestID: requestIDFrom(r.Context()),
	})
	if err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "ranking failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &Response{Status: "ok", Data: resp})
}

// handleRank runs the catalog-wide additive pass.
func (h *Handler) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}

	cat, err := h.store.Load(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "catalog load failed", err)
		return
	}

	prof := h.profiles.Get(userID(r)).Snapshot()
	resp, err := h.engine.Rank(r.Context(), recommend.Request{
		Mode:           recommend.ModeCatalog,
		PreferredGenre: req.PreferredGenre,
		K:              req.K,
		Catalog:        cat,
		Profile:        prof,
		RequestID:      requestIDFrom(r.Context()),
	})
	if err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "ranking failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &Response{Status: "ok", Data: resp})
}

// handleWatch records a watch event. The item's genres are resolved
// against the current catalog; an item id that is absent from the
// catalog still records hours and counts, it just attributes no genre
// hours. A catalog that fails to load degrades the same way: profile
// writes never depend on catalog availability.
func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}

	var genres []string
	if cat, err := h.store.Load(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("catalog unavailable, recording watch without genres")
	} else if item, ok := cat.ByID(req.ItemID); ok {
		genres = item.Genres
	}

	if err := h.profiles.Get(userID(r)).RecordWatch(req.ItemID, req.Hours, genres, profile.TimePref(req.TimePref)); err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "watch rejected", err)
		return
	}

	respondJSON(w, http.StatusOK, &Response{Status: "ok"})
}

// handleRate records a rating for an item.
func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}

	if err := h.profiles.Get(userID(r)).RecordRating(req.ItemID, req.Rating); err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "rating rejected", err)
		return
	}

	respondJSON(w, http.StatusOK, &Response{Status: "ok"})
}

// handleWishlist adds an item to the wishlist. Idempotent.
func (h *Handler) handleWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}

	h.profiles.Get(userID(r)).AddToWishlist(req.ItemID)
	respondJSON(w, http.StatusOK, &Response{Status: "ok"})
}

// handleProfile returns the caller's profile snapshot.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	snap := h.profiles.Get(userID(r)).Snapshot()
	respondJSON(w, http.StatusOK, &Response{Status: "ok", Data: snap})
}

// handleChat forwards one message to the assistant backend.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil || !h.chat.Enabled() {
		h.respondError(w, r, http.StatusServiceUnavailable, CodeChatDisabled, "chat is not configured", nil)
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, CodeBadRequest, "validation failed", err)
		return
	}

	reply, err := h.chat.Chat(r.Context(), req.Message)
	if err != nil {
		status, code := mapDomainError(err)
		h.respondError(w, r, status, code, "chat request failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &Response{Status: "ok", Data: chatResponse{Reply: reply}})
}

// handleHealth is the liveness probe. It does not touch the catalog:
// a broken catalog file makes rankings fail, not the process.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &Response{
		Status: "ok",
		Data:   healthResponse{Status: "healthy", Version: h.version},
	})
}
