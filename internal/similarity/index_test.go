// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package similarity

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/recommend"
)

func newTestIndex() *Index {
	return NewIndex(DefaultConfig(), zerolog.Nop())
}

func testCatalog() *recommend.Catalog {
	return recommend.NewCatalog([]recommend.Item{
		{ID: "1", Title: "Space Odyssey", Genres: []string{"Sci-Fi"}, Summary: "A voyage through deep space"},
		{ID: "2", Title: "Space Wars", Genres: []string{"Sci-Fi"}, Summary: "A battle fought in deep space"},
		{ID: "3", Title: "Cooking at Home", Genres: []string{"Documentary"}, Summary: "Recipes and kitchens"},
	})
}

func TestRowSelfSimilarity(t *testing.T) {
	x := newTestIndex()

	row, err := x.Row(testCatalog(), "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}

	if row["1"] != 1.0 {
		t.Errorf("self-similarity = %g, want exactly 1.0", row["1"])
	}
	if len(row) != 3 {
		t.Errorf("len(row) = %d, want 3 (one score per catalog item)", len(row))
	}
}

func TestRowScoresBounded(t *testing.T) {
	x := newTestIndex()

	row, err := x.Row(testCatalog(), "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	for id, score := range row {
		if score < 0 || score > 1.0000001 {
			t.Errorf("score[%s] = %g, want within [0, 1]", id, score)
		}
	}
}

func TestRowRelatedScoresHigher(t *testing.T) {
	// Items 1 and 2 share genre and summary vocabulary; item 3 shares
	// nothing. The related pair must score strictly higher.
	x := newTestIndex()

	row, err := x.Row(testCatalog(), "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}

	if row["2"] <= row["3"] {
		t.Errorf("related item score %g not above unrelated %g", row["2"], row["3"])
	}
	if row["2"] <= 0 {
		t.Errorf("related item score = %g, want > 0", row["2"])
	}
	if row["3"] != 0 {
		t.Errorf("disjoint item score = %g, want 0", row["3"])
	}
}

func TestRowSymmetric(t *testing.T) {
	x := newTestIndex()
	catalog := testCatalog()

	rowA, err := x.Row(catalog, "1")
	if err != nil {
		t.Fatalf("Row(1) error = %v", err)
	}
	rowB, err := x.Row(catalog, "2")
	if err != nil {
		t.Fatalf("Row(2) error = %v", err)
	}

	if math.Abs(rowA["2"]-rowB["1"]) > 1e-12 {
		t.Errorf("sim(1,2) = %g, sim(2,1) = %g; want equal", rowA["2"], rowB["1"])
	}
}

func TestRowAnchorNotFound(t *testing.T) {
	x := newTestIndex()

	_, err := x.Row(testCatalog(), "missing")
	if !errors.Is(err, recommend.ErrAnchorNotFound) {
		t.Errorf("error = %v, want ErrAnchorNotFound", err)
	}
}

func TestRowZeroVectorItem(t *testing.T) {
	// An item whose text is all stop words vectorizes to nothing: 0
	// against everything else, but still exactly 1.0 against itself.
	catalog := recommend.NewCatalog([]recommend.Item{
		{ID: "1", Title: "The And Of", Summary: "it is a the"},
		{ID: "2", Title: "Space Odyssey", Genres: []string{"Sci-Fi"}},
	})
	x := newTestIndex()

	row, err := x.Row(catalog, "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if row["1"] != 1.0 {
		t.Errorf("self-similarity of empty vector = %g, want 1.0", row["1"])
	}
	if row["2"] != 0 {
		t.Errorf("empty vector against non-empty = %g, want 0", row["2"])
	}
}

func TestRowDeterministic(t *testing.T) {
	// Two indexes over identical content must agree score for score.
	a, err := newTestIndex().Row(testCatalog(), "2")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	b, err := newTestIndex().Row(testCatalog(), "2")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("rows differ across identical catalogs: %v vs %v", a, b)
	}
}

func TestRowCacheKeyedByFingerprint(t *testing.T) {
	x := newTestIndex()

	first, err := x.Row(testCatalog(), "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}

	// Same content again: served from cache.
	cached, err := x.Row(testCatalog(), "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if !reflect.DeepEqual(first, cached) {
		t.Error("cached row differs from computed row")
	}
	if hits, _, _ := x.CacheStats(); hits == 0 {
		t.Error("second identical request did not hit the cache")
	}

	// Changed content: the stale row must not be served.
	changed := recommend.NewCatalog([]recommend.Item{
		{ID: "1", Title: "Space Odyssey", Genres: []string{"Sci-Fi"}, Summary: "A voyage through deep space"},
		{ID: "2", Title: "Space Odyssey Too", Genres: []string{"Sci-Fi"}, Summary: "A voyage through deep space"},
		{ID: "3", Title: "Cooking at Home", Genres: []string{"Documentary"}, Summary: "Recipes and kitchens"},
	})
	fresh, err := x.Row(changed, "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if fresh["2"] <= first["2"] {
		t.Errorf("near-duplicate title score %g not above original %g; stale row served?", fresh["2"], first["2"])
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and splits", "Space ODYSSEY", []string{"space", "odyssey"}},
		{"drops stop words", "a voyage through the space", []string{"voyage", "space"}},
		{"drops punctuation and single chars", "sci-fi: a 9 x", []string{"sci", "fi"}},
		{"empty input", "", nil},
	}

	x := newTestIndex()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	a := vector{"space": 2, "voyage": 1}
	b := vector{"space": 1, "battle": 1}

	got := cosine(a, norm(a), b, norm(b))
	want := 2.0 / (math.Sqrt(5) * math.Sqrt(2))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("cosine = %g, want %g", got, want)
	}

	if got := cosine(vector{}, 0, b, norm(b)); got != 0 {
		t.Errorf("cosine with zero vector = %g, want 0", got)
	}
	if got := cosine(a, norm(a), a, norm(a)); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("cosine(v, v) = %g, want 1.0", got)
	}
}

func TestSnapshotVectorsSurviveRebuild(t *testing.T) {
	x := newTestIndex()

	catA := recommend.NewCatalog([]recommend.Item{
		{ID: "x", Title: "Deep Space Voyage"},
		{ID: "y", Title: "Deep Space Voyage"},
	})
	catB := recommend.NewCatalog([]recommend.Item{
		{ID: "x", Title: "Kitchen Recipes"},
		{ID: "y", Title: "Desert Racing"},
	})

	// Take catalog A's vectors, then let a request for catalog B
	// rebuild the shared state before A's row math runs, the way
	// rankings racing a catalog reload can.
	vectors, norms := x.snapshotVectors(catA)
	if _, err := x.Row(catB, "x"); err != nil {
		t.Fatalf("Row(catB) error = %v", err)
	}

	sim := cosine(vectors["x"], norms["x"], vectors["y"], norms["y"])
	if math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("catalog A similarity(x, y) = %g after rebuild for B, want 1.0", sim)
	}
}

func TestRowConcurrentWithCatalogReload(t *testing.T) {
	x := newTestIndex()

	// Identical text: every pair in A scores 1.0. Disjoint text:
	// every pair in B scores 0. Any cross-contamination between the
	// snapshots produces a wrong, and then cached, value.
	catA := recommend.NewCatalog([]recommend.Item{
		{ID: "x", Title: "Deep Space Voyage"},
		{ID: "y", Title: "Deep Space Voyage"},
	})
	catB := recommend.NewCatalog([]recommend.Item{
		{ID: "x", Title: "Kitchen Recipes"},
		{ID: "y", Title: "Desert Racing"},
	})

	const iterations = 200
	errCh := make(chan string, 4)
	var wg sync.WaitGroup
	for _, tc := range []struct {
		cat  *recommend.Catalog
		want float64
	}{
		{catA, 1.0}, {catB, 0.0}, {catA, 1.0}, {catB, 0.0},
	} {
		wg.Add(1)
		go func(cat *recommend.Catalog, want float64) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				row, err := x.Row(cat, "x")
				if err != nil {
					errCh <- fmt.Sprintf("Row() error = %v", err)
					return
				}
				if math.Abs(row["y"]-want) > 1e-9 {
					errCh <- fmt.Sprintf("similarity(x, y) = %g, want %g (fingerprint %s)",
						row["y"], want, cat.Fingerprint())
					return
				}
			}
		}(tc.cat, tc.want)
	}
	wg.Wait()
	close(errCh)

	for msg := range errCh {
		t.Error(msg)
	}
}

func TestConfiguredStopWords(t *testing.T) {
	cat := recommend.NewCatalog([]recommend.Item{
		{ID: "1", Title: "Alien Base"},
		{ID: "2", Title: "Alien Fortress"},
	})

	def := newTestIndex()
	row, err := def.Row(cat, "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if row["2"] <= 0 {
		t.Fatalf("similarity = %g, want > 0 (titles share a term)", row["2"])
	}

	cfg := DefaultConfig()
	cfg.StopWords = append(cfg.StopWords, "Alien")
	custom := NewIndex(cfg, zerolog.Nop())
	row, err = custom.Row(cat, "1")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if row["2"] != 0 {
		t.Errorf("similarity = %g, want 0 with the shared term stop-worded", row["2"])
	}
}
