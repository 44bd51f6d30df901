// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for the ranking failure taxonomy. Callers match these
// with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNotFound indicates a title lookup matched zero items, or more
	// than one. Ambiguity is a caller error and is never silently resolved.
	ErrNotFound = errors.New("item not found")

	// ErrAnchorNotFound indicates the anchor of a similarity-anchored
	// request does not resolve in the supplied catalog snapshot.
	ErrAnchorNotFound = errors.New("anchor item not found in catalog")

	// ErrEmptyCatalog indicates a catalog-wide ranking was requested
	// against a catalog with zero items.
	ErrEmptyCatalog = errors.New("catalog has no items")
)

// Item is a single catalog row. Items are read-only within a ranking
// call; the catalog may be replaced wholesale between calls but is never
// mutated in place by the engine.
type Item struct {
	// ID is the unique, stable item identifier.
	ID string `json:"id"`

	// Title is the display title, expected unique within a snapshot.
	Title string `json:"title"`

	// Genres is the item's genre set.
	Genres []string `json:"genres"`

	// Summary is the free-form description used for text similarity.
	// May be empty.
	Summary string `json:"summary,omitempty"`

	// Rating is the external base quality score (IMDB-style, 0-10).
	// Zero when absent.
	Rating float64 `json:"rating,omitempty"`
}

// HasGenre reports whether the item carries the given genre.
// Genre matching is exact: unknown genres never match.
func (i Item) HasGenre(genre string) bool {
	for _, g := range i.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// CombinedText is the text the similarity index vectorizes: title,
// genres and summary joined into one document.
func (i Item) CombinedText() string {
	parts := make([]string, 0, len(i.Genres)+2)
	parts = append(parts, i.Title)
	parts = append(parts, i.Genres...)
	if i.Summary != "" {
		parts = append(parts, i.Summary)
	}
	return strings.Join(parts, " ")
}

// ScoredItem is an item with its final ranking score.
type ScoredItem struct {
	// Item is the catalog row.
	Item Item `json:"item"`

	// Score is the combined score after all boost rules.
	Score float64 `json:"score"`

	// Scores is a per-rule breakdown (base, wishlist, favorite_genre,
	// genre_hours, heavy_rotation, preferred_genre), kept for
	// interpretability and test assertions.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Catalog is an immutable point-in-time view of all rankable items.
// Construct one with NewCatalog; do not mutate Items afterwards.
type Catalog struct {
	items       []Item
	byID        map[string]int
	byTitle     map[string][]int
	fingerprint string
}

// NewCatalog builds a catalog snapshot from an ordered item sequence.
// The order is preserved and used as the stable tie-break in rankings.
func NewCatalog(items []Item) *Catalog {
	c := &Catalog{
		items:   items,
		byID:    make(map[string]int, len(items)),
		byTitle: make(map[string][]int, len(items)),
	}

	h := sha256.New()
	for i, item := range items {
		c.byID[item.ID] = i
		key := strings.ToLower(item.Title)
		c.byTitle[key] = append(c.byTitle[key], i)

		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1e",
			item.ID, item.Title, strings.Join(item.Genres, ","),
			item.Summary, strconv.FormatFloat(item.Rating, 'g', -1, 64))
	}
	c.fingerprint = hex.EncodeToString(h.Sum(nil))

	return c
}

// Items returns the catalog rows in original order.
// The returned slice is shared and must be treated as read-only.
func (c *Catalog) Items() []Item {
	return c.items
}

// Len returns the number of items in the snapshot.
func (c *Catalog) Len() int {
	return len(c.items)
}

// ByID returns the item with the given id.
func (c *Catalog) ByID(id string) (Item, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// FindByTitle resolves a title to exactly one item. Lookup is
// case-insensitive. Zero matches or more than one match both fail with
// ErrNotFound: a duplicated title is a caller problem, not something to
// resolve silently.
func (c *Catalog) FindByTitle(title string) (Item, error) {
	matches := c.byTitle[strings.ToLower(title)]
	switch len(matches) {
	case 1:
		return c.items[matches[0]], nil
	case 0:
		return Item{}, fmt.Errorf("title %q: %w", title, ErrNotFound)
	default:
		return Item{}, fmt.Errorf("title %q matches %d items: %w", title, len(matches), ErrNotFound)
	}
}

// Fingerprint is a content hash over all item fields, in order. Anything
// caching derived artifacts (similarity vectors, rows) must key on it so
// a reloaded catalog never serves stale data.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Profile is an immutable copy of a user's profile state, exported by
// the profile package for a single ranking call. The engine reads it and
// never writes it.
type Profile struct {
	// UserID identifies the profile's owner.
	UserID string `json:"user_id"`

	// WatchHistory maps item id to cumulative watched hours.
	WatchHistory map[string]float64 `json:"watch_history"`

	// WatchCounts maps item id to the number of watch events.
	WatchCounts map[string]int `json:"watch_counts"`

	// GenreHours maps genre to cumulative hours watched.
	GenreHours map[string]float64 `json:"genre_hours"`

	// Ratings maps item id to the latest rating (last write wins).
	Ratings map[string]float64 `json:"ratings"`

	// Wishlist is the wishlist membership set.
	Wishlist map[string]struct{} `json:"-"`

	// WishlistIDs is the JSON-serializable form of Wishlist, sorted.
	WishlistIDs []string `json:"wishlist"`

	// DayBucket and NightBucket are append-only sequences of item ids,
	// one entry per watch event carrying that time-of-day preference.
	DayBucket   []string `json:"day_bucket"`
	NightBucket []string `json:"night_bucket"`
}

// InWishlist reports wishlist membership for an item id.
func (p Profile) InWishlist(id string) bool {
	_, ok := p.Wishlist[id]
	return ok
}

// FavoriteGenres returns the profile's top-n genres by accumulated
// hours, most-watched first, ties broken alphabetically for determinism.
// When no hours are recorded at all the fallback list is returned
// unchanged: a brand-new profile still gets genre boosts, just generic
// ones. n <= 0 disables favorite genres entirely, fallback included.
func (p Profile) FavoriteGenres(n int, fallback []string) []string {
	if n <= 0 {
		return nil
	}
	if len(p.GenreHours) == 0 {
		return fallback
	}

	genres := make([]string, 0, len(p.GenreHours))
	for g := range p.GenreHours {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		hi, hj := p.GenreHours[genres[i]], p.GenreHours[genres[j]]
		if hi != hj {
			return hi > hj
		}
		return genres[i] < genres[j]
	})

	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

// HeavyRotation returns the ids watched at least threshold times. It is
// derived from WatchCounts on every call rather than stored, so it can
// never drift from the counts.
func (p Profile) HeavyRotation(threshold int) map[string]int {
	bucket := make(map[string]int)
	for id, count := range p.WatchCounts {
		if count >= threshold {
			bucket[id] = count
		}
	}
	return bucket
}

// Mode selects the scoring strategy for a request.
type Mode int

const (
	// ModeAnchor is the similarity-anchored rerank (multiplicative boosts).
	ModeAnchor Mode = iota
	// ModeCatalog is the catalog-wide additive pass.
	ModeCatalog
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeAnchor:
		return "anchor"
	case ModeCatalog:
		return "catalog"
	default:
		return "unknown"
	}
}

// ItemRef identifies an anchor item by id or, failing that, by title.
type ItemRef struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// Request is a single ranking request. The Mode tag selects the scoring
// variant; the catalog and profile snapshots carry all state the engine
// is allowed to read.
type Request struct {
	// Mode selects the scoring strategy.
	Mode Mode `json:"mode"`

	// Anchor identifies the anchor item (ModeAnchor only).
	Anchor ItemRef `json:"anchor,omitempty"`

	// PreferredGenre is the optional discovery genre (ModeCatalog only).
	PreferredGenre string `json:"preferred_genre,omitempty"`

	// K overrides the mode's configured result size when positive.
	K int `json:"k,omitempty"`

	// Catalog is the snapshot to rank.
	Catalog *Catalog `json:"-"`

	// Profile is the profile snapshot supplying boost signals.
	Profile Profile `json:"-"`

	// RequestID is a unique identifier for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the engine's answer to one ranking request.
type Response struct {
	// Items is the ordered, truncated result list.
	Items []ScoredItem `json:"items"`

	// TotalCandidates is the number of catalog items considered.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// Mode is the scoring strategy used.
	Mode string `json:"mode"`

	// AnchorID is the resolved anchor item id (ModeAnchor only).
	AnchorID string `json:"anchor_id,omitempty"`

	// FavoriteGenres is the derived favorite-genre set applied
	// (ModeAnchor only).
	FavoriteGenres []string `json:"favorite_genres,omitempty"`

	// LatencyMS is the ranking latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// SimilaritySource produces one similarity row on demand: anchor id to a
// map of item id -> score in [0, 1]. Implemented by the similarity
// package; declared here so this package stays free of internal imports.
type SimilaritySource interface {
	// Row returns the pairwise similarity of the anchor to every item in
	// the catalog. Fails with ErrAnchorNotFound (possibly wrapped) when
	// the anchor id is not in the catalog.
	Row(catalog *Catalog, anchorID string) (map[string]float64, error)
}
