// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package similarity computes pairwise text similarity between catalog
// items for the similarity-anchored ranking mode.
//
// Each item's title, genres and summary are folded into one document,
// tokenized, stripped of stop words and turned into a sparse
// bag-of-terms vector. Similarity between two items is the cosine of
// their vectors: symmetric, in [0, 1], exactly 1.0 for an item against
// itself, and defined as 0 when either vector is empty.
//
// The index vectorizes a catalog lazily and keys everything it derives
// (vectors and cached rows) on the catalog's content fingerprint, so a
// reloaded catalog transparently invalidates all previous work.
package similarity
