// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
)

// Engine is the scoring orchestrator. It is stateless between requests
// and safe for concurrent use: every Rank call operates only on the
// snapshots the request carries.
type Engine struct {
	config *Config
	logger zerolog.Logger
	sim    SimilaritySource
}

// NewEngine creates a scoring engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, sim SimilaritySource, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if sim == nil {
		return nil, fmt.Errorf("similarity source not set")
	}

	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "engine").Logger(),
		sim:    sim,
	}, nil
}

// RankByAnchor runs a similarity-anchored rerank (ModeAnchor).
func (e *Engine) RankByAnchor(ctx context.Context, anchor ItemRef, catalog *Catalog, prof Profile) (*Response, error) {
	return e.Rank(ctx, Request{
		Mode:    ModeAnchor,
		Anchor:  anchor,
		Catalog: catalog,
		Profile: prof,
	})
}

// RankCatalog runs a catalog-wide additive pass (ModeCatalog).
// preferredGenre may be empty; absence of the signal is neutral.
func (e *Engine) RankCatalog(ctx context.Context, catalog *Catalog, prof Profile, preferredGenre string) (*Response, error) {
	return e.Rank(ctx, Request{
		Mode:           ModeCatalog,
		PreferredGenre: preferredGenre,
		Catalog:        catalog,
		Profile:        prof,
	})
}

// Rank scores the request's catalog snapshot against its profile
// snapshot and returns the ordered, truncated result. It dispatches on
// req.Mode; both variants share the sort/truncate tail.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Rank(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = e.prepareRequest(req)

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("mode", req.Mode.String()).
		Logger()

	if req.Catalog == nil {
		return nil, ErrEmptyCatalog
	}

	var (
		scored []ScoredItem
		meta   ResponseMetadata
		err    error
	)

	switch req.Mode {
	case ModeAnchor:
		scored, meta, err = e.scoreAnchored(ctx, req)
	case ModeCatalog:
		scored, meta, err = e.scoreAdditive(ctx, req)
	default:
		err = fmt.Errorf("unknown mode %d", req.Mode)
	}
	candidates := 0
	if req.Catalog != nil {
		candidates = req.Catalog.Len()
	}
	metrics.RecordRanking(req.Mode.String(), time.Since(start), candidates, err)
	if err != nil {
		return nil, err
	}

	sortStable(scored)
	if len(scored) > req.K {
		scored = scored[:req.K]
	}

	meta.RequestID = req.RequestID
	meta.Mode = req.Mode.String()
	meta.LatencyMS = time.Since(start).Milliseconds()
	meta.Timestamp = time.Now()

	logger.Debug().
		Int("candidates", req.Catalog.Len()).
		Int("returned", len(scored)).
		Int64("latency_ms", meta.LatencyMS).
		Msg("ranking complete")

	return &Response{
		Items:           scored,
		TotalCandidates: req.Catalog.Len(),
		Metadata:        meta,
	}, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.K <= 0 {
		switch req.Mode {
		case ModeAnchor:
			req.K = e.config.Anchor.TopK
		default:
			req.K = e.config.Additive.TopK
		}
	}
	return req
}

// scoreAnchored computes ModeAnchor scores: similarity row as the base,
// wishlist then favorite-genre multipliers on top, in that order.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreAnchored(ctx context.Context, req Request) ([]ScoredItem, ResponseMetadata, error) {
	anchor, err := e.resolveAnchor(req.Anchor, req.Catalog)
	if err != nil {
		return nil, ResponseMetadata{}, err
	}

	row, err := e.sim.Row(req.Catalog, anchor.ID)
	if err != nil {
		return nil, ResponseMetadata{}, fmt.Errorf("similarity row: %w", err)
	}

	cfg := e.config.Anchor
	favorites := req.Profile.FavoriteGenres(cfg.FavoriteGenreCount, cfg.FallbackGenres)

	scored := make([]ScoredItem, 0, req.Catalog.Len())
	for _, item := range req.Catalog.Items() {
		if err := ctx.Err(); err != nil {
			return nil, ResponseMetadata{}, err
		}

		base := row[item.ID]
		score := base
		breakdown := map[string]float64{"base": base}

		if req.Profile.InWishlist(item.ID) {
			score *= cfg.WishlistMultiplier
			breakdown["wishlist"] = cfg.WishlistMultiplier
		}
		// Each matching favorite genre compounds.
		for _, genre := range favorites {
			if item.HasGenre(genre) {
				score *= cfg.GenreMultiplier
				breakdown["favorite_genre"] += 1
			}
		}

		scored = append(scored, ScoredItem{Item: item, Score: score, Scores: breakdown})
	}

	meta := ResponseMetadata{
		AnchorID:       anchor.ID,
		FavoriteGenres: favorites,
	}
	return scored, meta, nil
}

// resolveAnchor resolves an anchor reference against the catalog by id
// first, then by title. A miss is a loud failure, never an empty result.
func (e *Engine) resolveAnchor(ref ItemRef, catalog *Catalog) (Item, error) {
	if ref.ID != "" {
		if item, ok := catalog.ByID(ref.ID); ok {
			return item, nil
		}
		return Item{}, fmt.Errorf("anchor id %q: %w", ref.ID, ErrAnchorNotFound)
	}
	if ref.Title != "" {
		item, err := catalog.FindByTitle(ref.Title)
		if err != nil {
			return Item{}, fmt.Errorf("anchor title %q: %w", ref.Title, ErrAnchorNotFound)
		}
		return item, nil
	}
	return Item{}, fmt.Errorf("empty anchor reference: %w", ErrAnchorNotFound)
}

// scoreAdditive computes ModeCatalog scores: external rating as the
// base, then genre hours, wishlist, heavy rotation and preferred genre
// added in a fixed order. An item with no matching signal keeps its
// base score unchanged.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreAdditive(ctx context.Context, req Request) ([]ScoredItem, ResponseMetadata, error) {
	if req.Catalog.Len() == 0 {
		return nil, ResponseMetadata{}, ErrEmptyCatalog
	}

	cfg := e.config.Additive
	rotation := req.Profile.HeavyRotation(e.config.HeavyRotationThreshold)

	scored := make([]ScoredItem, 0, req.Catalog.Len())
	for _, item := range req.Catalog.Items() {
		if err := ctx.Err(); err != nil {
			return nil, ResponseMetadata{}, err
		}

		score := item.Rating
		breakdown := map[string]float64{"base": item.Rating}

		var genreBoost float64
		for _, genre := range item.Genres {
			if hours, ok := req.Profile.GenreHours[genre]; ok {
				genreBoost += hours * cfg.GenreHourWeight
			}
		}
		if genreBoost != 0 {
			score += genreBoost
			breakdown["genre_hours"] = genreBoost
		}

		if req.Profile.InWishlist(item.ID) {
			score += cfg.WishlistBonus
			breakdown["wishlist"] = cfg.WishlistBonus
		}

		if _, hot := rotation[item.ID]; hot {
			score += cfg.HeavyRotationBonus
			breakdown["heavy_rotation"] = cfg.HeavyRotationBonus
		}

		if req.PreferredGenre != "" && item.HasGenre(req.PreferredGenre) {
			score += cfg.PreferredGenreBonus
			breakdown["preferred_genre"] = cfg.PreferredGenreBonus
		}

		scored = append(scored, ScoredItem{Item: item, Score: score, Scores: breakdown})
	}

	return scored, ResponseMetadata{}, nil
}

// sortStable orders by score descending. The sort is stable, so equal
// scores keep their original catalog order - the documented tie-break.
func sortStable(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}
