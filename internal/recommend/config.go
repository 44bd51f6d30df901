// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import "fmt"

// Config contains all tunables for the scoring engine. Zero values are
// replaced by defaults in DefaultConfig; the config package layers env
// and file overrides on top before handing it to NewEngine.
type Config struct {
	// Anchor contains the multiplicative weights for ModeAnchor.
	Anchor AnchorConfig `json:"anchor" koanf:"anchor"`

	// Additive contains the additive bonuses for ModeCatalog.
	Additive AdditiveConfig `json:"additive" koanf:"additive"`

	// HeavyRotationThreshold is the watch count at which an item enters
	// heavy rotation.
	HeavyRotationThreshold int `json:"heavy_rotation_threshold" koanf:"heavy_rotation_threshold"`
}

// AnchorConfig holds ModeAnchor weights. Boosts compose by
// multiplication on top of the similarity base score.
type AnchorConfig struct {
	// WishlistMultiplier scales the score of wishlisted items.
	WishlistMultiplier float64 `json:"wishlist_multiplier" koanf:"wishlist_multiplier"`

	// GenreMultiplier scales the score once per matching favorite genre;
	// multiple matches compound.
	GenreMultiplier float64 `json:"genre_multiplier" koanf:"genre_multiplier"`

	// FavoriteGenreCount is how many top genres count as favorites.
	FavoriteGenreCount int `json:"favorite_genre_count" koanf:"favorite_genre_count"`

	// FallbackGenres is the favorite-genre set applied when the profile
	// has no genre hours at all.
	FallbackGenres []string `json:"fallback_genres" koanf:"fallback_genres"`

	// TopK is the result size for ModeAnchor.
	TopK int `json:"top_k" koanf:"top_k"`
}

// AdditiveConfig holds ModeCatalog bonuses. Boosts compose by addition
// on top of the item's external rating.
type AdditiveConfig struct {
	// GenreHourWeight converts accumulated genre hours into score
	// (score += hours * weight per matching genre).
	GenreHourWeight float64 `json:"genre_hour_weight" koanf:"genre_hour_weight"`

	// WishlistBonus is the flat bonus for wishlisted items.
	WishlistBonus float64 `json:"wishlist_bonus" koanf:"wishlist_bonus"`

	// HeavyRotationBonus is the flat bonus for heavy-rotation items.
	HeavyRotationBonus float64 `json:"heavy_rotation_bonus" koanf:"heavy_rotation_bonus"`

	// PreferredGenreBonus is the flat bonus for items matching the
	// request's preferred genre.
	PreferredGenreBonus float64 `json:"preferred_genre_bonus" koanf:"preferred_genre_bonus"`

	// TopK is the result size for ModeCatalog.
	TopK int `json:"top_k" koanf:"top_k"`
}

// DefaultConfig returns the engine defaults. These match the behavior
// the product shipped with and are what the test suite pins down.
func DefaultConfig() *Config {
	return &Config{
		Anchor: AnchorConfig{
			WishlistMultiplier: 1.3,
			GenreMultiplier:    1.2,
			FavoriteGenreCount: 2,
			FallbackGenres:     []string{"Sci-Fi", "Action"},
			TopK:               10,
		},
		Additive: AdditiveConfig{
			GenreHourWeight:     0.5,
			WishlistBonus:       3,
			HeavyRotationBonus:  2,
			PreferredGenreBonus: 1,
			TopK:                20,
		},
		HeavyRotationThreshold: 3,
	}
}

// Validate checks the configuration for values that would corrupt
// rankings rather than merely change them.
func (c *Config) Validate() error {
	if c.Anchor.WishlistMultiplier <= 0 {
		return fmt.Errorf("anchor.wishlist_multiplier must be positive, got %g", c.Anchor.WishlistMultiplier)
	}
	if c.Anchor.GenreMultiplier <= 0 {
		return fmt.Errorf("anchor.genre_multiplier must be positive, got %g", c.Anchor.GenreMultiplier)
	}
	if c.Anchor.FavoriteGenreCount < 0 {
		return fmt.Errorf("anchor.favorite_genre_count must be non-negative, got %d", c.Anchor.FavoriteGenreCount)
	}
	if c.Anchor.TopK <= 0 {
		return fmt.Errorf("anchor.top_k must be positive, got %d", c.Anchor.TopK)
	}
	if c.Additive.GenreHourWeight < 0 {
		return fmt.Errorf("additive.genre_hour_weight must be non-negative, got %g", c.Additive.GenreHourWeight)
	}
	if c.Additive.WishlistBonus < 0 {
		return fmt.Errorf("additive.wishlist_bonus must be non-negative, got %g", c.Additive.WishlistBonus)
	}
	if c.Additive.HeavyRotationBonus < 0 {
		return fmt.Errorf("additive.heavy_rotation_bonus must be non-negative, got %g", c.Additive.HeavyRotationBonus)
	}
	if c.Additive.PreferredGenreBonus < 0 {
		return fmt.Errorf("additive.preferred_genre_bonus must be non-negative, got %g", c.Additive.PreferredGenreBonus)
	}
	if c.Additive.TopK <= 0 {
		return fmt.Errorf("additive.top_k must be positive, got %d", c.Additive.TopK)
	}
	if c.HeavyRotationThreshold < 1 {
		return fmt.Errorf("heavy_rotation_threshold must be at least 1, got %d", c.HeavyRotationThreshold)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Anchor.FallbackGenres = append([]string(nil), c.Anchor.FallbackGenres...)
	return &clone
}
