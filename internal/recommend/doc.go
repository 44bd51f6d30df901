// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package recommend implements the scoring engine that turns a catalog
// snapshot and a user profile snapshot into a ranked list of movies.
//
// The engine supports two modes, dispatched by request shape:
//
//   - ModeAnchor: a similarity-anchored rerank. The base score for every
//     item is its text similarity to an anchor item; profile signals are
//     applied as multiplicative boosts (wishlist, favorite genres).
//
//   - ModeCatalog: a catalog-wide additive pass. The base score is the
//     item's external rating; profile signals are applied as additive
//     boosts (genre hours, wishlist, heavy rotation, preferred genre).
//
// The two modes deliberately keep separate numeric conventions: anchor
// scores live in the similarity range [0, ~2] and compose by
// multiplication, catalog scores live on the rating scale and compose by
// addition. Mixing the encodings would not transfer cleanly.
//
// Rank is a pure function of (catalog snapshot, profile snapshot,
// request): no hidden state, deterministic output, stable ties broken by
// original catalog order. Profile mutation is the profile package's
// concern and never happens here.
//
// This package has no dependencies on other internal packages. The
// SimilaritySource interface lets the similarity package plug in without
// creating circular imports.
package recommend
