// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package similarity

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/cache"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// vector is a sparse bag-of-terms representation: term -> frequency.
type vector map[string]float64

// Config contains tunables for the similarity index.
type Config struct {
	// CacheSize is the maximum number of cached similarity rows.
	CacheSize int `json:"cache_size" koanf:"cache_size"`

	// CacheTTL bounds how long a cached row may be served.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// StopWords are removed from documents before vectorization.
	// Defaults to the built-in English list; matching is case-insensitive.
	// The list is fixed for the life of the process.
	StopWords []string `json:"stop_words" koanf:"stop_words"`
}

// DefaultConfig returns the index defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize: 1024,
		CacheTTL:  10 * time.Minute,
		StopWords: DefaultStopWords(),
	}
}

// Index computes similarity rows over a catalog snapshot. It implements
// recommend.SimilaritySource.
//
// Vectors are built lazily per catalog fingerprint and rebuilt whenever
// the fingerprint changes. Computed rows are cached with the
// fingerprint in the key, so rows derived from an older catalog can
// never leak into a newer one.
type Index struct {
	logger zerolog.Logger
	rows   *cache.RowCache
	stop   map[string]struct{}

	mu          sync.RWMutex
	fingerprint string
	vectors     map[string]vector
	norms       map[string]float64
}

// NewIndex creates a similarity index.
func NewIndex(cfg Config, logger zerolog.Logger) *Index {
	stop := defaultStopWords
	if cfg.StopWords != nil {
		stop = make(map[string]struct{}, len(cfg.StopWords))
		for _, w := range cfg.StopWords {
			stop[strings.ToLower(w)] = struct{}{}
		}
	}
	return &Index{
		logger: logger.With().Str("component", "similarity").Logger(),
		rows:   cache.NewRowCache(cfg.CacheSize, cfg.CacheTTL),
		stop:   stop,
	}
}

// Row returns the similarity of the anchor to every item in the
// catalog, keyed by item id. Scores are in [0, 1]; the anchor maps to
// exactly 1.0. The returned map is shared with the cache and must be
// treated as read-only.
func (x *Index) Row(catalog *recommend.Catalog, anchorID string) (map[string]float64, error) {
	if _, ok := catalog.ByID(anchorID); !ok {
		return nil, fmt.Errorf("anchor id %q: %w", anchorID, recommend.ErrAnchorNotFound)
	}

	key := catalog.Fingerprint() + ":" + anchorID
	if row, ok := x.rows.Get(key); ok {
		metrics.SimilarityCacheHits.Inc()
		return row, nil
	}
	metrics.SimilarityCacheMisses.Inc()

	// The returned maps belong to this catalog's fingerprint even if a
	// concurrent Row for a different snapshot rebuilds the shared state
	// underneath us. Never read x.vectors/x.norms here directly: a row
	// computed from another snapshot's vectors would be cached under
	// this fingerprint and served forever after.
	vectors, norms := x.snapshotVectors(catalog)

	anchorVec := vectors[anchorID]
	anchorNorm := norms[anchorID]

	row := make(map[string]float64, catalog.Len())
	for _, item := range catalog.Items() {
		if item.ID == anchorID {
			// Self-similarity is pinned, even for items whose text
			// vectorizes to nothing.
			row[item.ID] = 1.0
			continue
		}
		row[item.ID] = cosine(anchorVec, anchorNorm, vectors[item.ID], norms[item.ID])
	}

	x.rows.Add(key, row)
	return row, nil
}

// CacheStats exposes row-cache hit/miss counts and size.
func (x *Index) CacheStats() (hits, misses int64, size int) {
	return x.rows.Stats()
}

// snapshotVectors returns the per-item vectors for this catalog
// snapshot, (re)building them when the fingerprint has changed since
// the last build. The maps are replaced wholesale on rebuild and never
// mutated afterwards, so callers may read the returned maps without
// holding the lock even while another snapshot rebuilds the fields.
func (x *Index) snapshotVectors(catalog *recommend.Catalog) (map[string]vector, map[string]float64) {
	fp := catalog.Fingerprint()

	x.mu.RLock()
	if x.fingerprint == fp {
		vectors, norms := x.vectors, x.norms
		x.mu.RUnlock()
		return vectors, norms
	}
	x.mu.RUnlock()

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.fingerprint == fp {
		return x.vectors, x.norms
	}

	start := time.Now()
	vectors := make(map[string]vector, catalog.Len())
	norms := make(map[string]float64, catalog.Len())
	for _, item := range catalog.Items() {
		v := x.vectorize(item.CombinedText())
		vectors[item.ID] = v
		norms[item.ID] = norm(v)
	}

	x.fingerprint = fp
	x.vectors = vectors
	x.norms = norms

	metrics.SimilarityRebuildDuration.Observe(time.Since(start).Seconds())
	x.logger.Debug().
		Int("items", catalog.Len()).
		Dur("duration", time.Since(start)).
		Msg("similarity vectors rebuilt")
	return vectors, norms
}

// vectorize tokenizes a document into a term-frequency vector.
// Tokens are lowercased; stop words and single characters are dropped.
func (x *Index) vectorize(text string) vector {
	v := make(vector)
	for _, tok := range x.tokenize(text) {
		v[tok]++
	}
	return v
}

func (x *Index) tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := x.stop[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// norm is the Euclidean norm of a vector.
func norm(v vector) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// cosine computes the cosine similarity of two vectors with
// precomputed norms. A zero vector on either side yields 0.
func cosine(a vector, normA float64, b vector, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	// Iterate the smaller vector.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	return dot / (normA * normB)
}
