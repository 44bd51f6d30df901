// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package profile maintains long-lived, mutable per-user taste state:
// watch history, watch counts, genre hours, ratings, wishlist and
// time-of-day buckets.
//
// All mutations on one user are serialized by a per-profile lock;
// operations on different users never contend. The ranking engine never
// sees a live profile: it receives an immutable snapshot taken under
// the same lock, so a ranking call can never observe a half-applied
// mutation.
//
// A profile has no catalog access. Callers resolve an item's genre set
// before recording a watch, so profile logic keeps working even when
// the catalog is unavailable.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// Mutator failure modes. Unknown item ids and genres are never errors.
var (
	// ErrInvalidRating indicates a rating outside the configured bounds.
	ErrInvalidRating = errors.New("rating out of bounds")

	// ErrInvalidDuration indicates a non-positive watch duration, which
	// would break the monotonicity of watch history.
	ErrInvalidDuration = errors.New("watch duration must be positive")

	// ErrInvalidTimePref indicates a time preference other than day or
	// night. An event that lands in neither bucket would silently skew
	// time-of-day statistics, so it is rejected instead.
	ErrInvalidTimePref = errors.New("time preference must be day or night")
)

// TimePref is a watch event's time-of-day preference.
type TimePref string

const (
	// TimeDay routes the watch event to the day bucket.
	TimeDay TimePref = "day"
	// TimeNight routes the watch event to the night bucket.
	TimeNight TimePref = "night"
)

// Config contains profile tunables.
type Config struct {
	// RatingMin and RatingMax bound record_rating values, inclusive.
	RatingMin float64 `json:"rating_min" koanf:"rating_min"`
	RatingMax float64 `json:"rating_max" koanf:"rating_max"`
}

// DefaultConfig returns the profile defaults: a 1-5 rating scale.
func DefaultConfig() Config {
	return Config{RatingMin: 1, RatingMax: 5}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RatingMax <= c.RatingMin {
		return fmt.Errorf("rating_max (%g) must exceed rating_min (%g)", c.RatingMax, c.RatingMin)
	}
	return nil
}

// UserProfile is one user's mutable taste state. Create via Registry.Get;
// the zero value is not usable.
type UserProfile struct {
	mu sync.RWMutex

	userID string
	cfg    Config

	watchHistory map[string]float64
	watchCounts  map[string]int
	genreHours   map[string]float64
	ratings      map[string]float64
	wishlist     map[string]struct{}
	dayBucket    []string
	nightBucket  []string
}

func newUserProfile(userID string, cfg Config) *UserProfile {
	return &UserProfile{
		userID:       userID,
		cfg:          cfg,
		watchHistory: make(map[string]float64),
		watchCounts:  make(map[string]int),
		genreHours:   make(map[string]float64),
		ratings:      make(map[string]float64),
		wishlist:     make(map[string]struct{}),
	}
}

// RecordWatch records one watch event: duration is added to the item's
// history and to every supplied genre, the watch count increments, and
// the item id is appended to the matching time bucket. Validation
// happens before any mutation, so a rejected event leaves no trace.
func (p *UserProfile) RecordWatch(itemID string, hours float64, genres []string, pref TimePref) error {
	if hours <= 0 {
		return fmt.Errorf("item %q: %g hours: %w", itemID, hours, ErrInvalidDuration)
	}
	if pref != TimeDay && pref != TimeNight {
		return fmt.Errorf("item %q: %q: %w", itemID, pref, ErrInvalidTimePref)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.watchHistory[itemID] += hours
	p.watchCounts[itemID]++
	for _, g := range genres {
		p.genreHours[g] += hours
	}

	if pref == TimeDay {
		p.dayBucket = append(p.dayBucket, itemID)
	} else {
		p.nightBucket = append(p.nightBucket, itemID)
	}

	metrics.RecordProfileMutation("watch")
	return nil
}

// RecordRating stores a rating with overwrite semantics: the latest
// write wins. Out-of-bounds values fail with ErrInvalidRating.
func (p *UserProfile) RecordRating(itemID string, rating float64) error {
	if rating < p.cfg.RatingMin || rating > p.cfg.RatingMax {
		return fmt.Errorf("item %q: rating %g outside [%g, %g]: %w",
			itemID, rating, p.cfg.RatingMin, p.cfg.RatingMax, ErrInvalidRating)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ratings[itemID] = rating

	metrics.RecordProfileMutation("rate")
	return nil
}

// AddToWishlist adds an item id to the wishlist. Idempotent: repeated
// adds leave the wishlist unchanged and are not errors.
func (p *UserProfile) AddToWishlist(itemID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.wishlist[itemID] = struct{}{}

	metrics.RecordProfileMutation("wishlist_add")
}

// Snapshot exports a deep, immutable copy of the profile for ranking
// and serialization. Later mutations never show through it.
func (p *UserProfile) Snapshot() recommend.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := recommend.Profile{
		UserID:       p.userID,
		WatchHistory: make(map[string]float64, len(p.watchHistory)),
		WatchCounts:  make(map[string]int, len(p.watchCounts)),
		GenreHours:   make(map[string]float64, len(p.genreHours)),
		Ratings:      make(map[string]float64, len(p.ratings)),
		Wishlist:     make(map[string]struct{}, len(p.wishlist)),
		WishlistIDs:  make([]string, 0, len(p.wishlist)),
		DayBucket:    append([]string(nil), p.dayBucket...),
		NightBucket:  append([]string(nil), p.nightBucket...),
	}
	for k, v := range p.watchHistory {
		snap.WatchHistory[k] = v
	}
	for k, v := range p.watchCounts {
		snap.WatchCounts[k] = v
	}
	for k, v := range p.genreHours {
		snap.GenreHours[k] = v
	}
	for k, v := range p.ratings {
		snap.Ratings[k] = v
	}
	for id := range p.wishlist {
		snap.Wishlist[id] = struct{}{}
		snap.WishlistIDs = append(snap.WishlistIDs, id)
	}
	sort.Strings(snap.WishlistIDs)

	return snap
}
