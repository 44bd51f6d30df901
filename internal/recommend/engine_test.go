// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

// stubSimilarity serves canned similarity rows keyed by anchor id.
type stubSimilarity struct {
	rows map[string]map[string]float64
}

func (s *stubSimilarity) Row(catalog *Catalog, anchorID string) (map[string]float64, error) {
	if _, ok := catalog.ByID(anchorID); !ok {
		return nil, fmt.Errorf("anchor %q: %w", anchorID, ErrAnchorNotFound)
	}
	if row, ok := s.rows[anchorID]; ok {
		return row, nil
	}
	return map[string]float64{anchorID: 1.0}, nil
}

func newTestEngine(t *testing.T, cfg *Config, sim SimilaritySource) *Engine {
	t.Helper()
	if sim == nil {
		sim = &stubSimilarity{}
	}
	e, err := NewEngine(cfg, sim, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func emptyProfile() Profile {
	return Profile{
		WatchHistory: map[string]float64{},
		WatchCounts:  map[string]int{},
		GenreHours:   map[string]float64{},
		Ratings:      map[string]float64{},
		Wishlist:     map[string]struct{}{},
	}
}

func twoItemCatalog() *Catalog {
	return NewCatalog([]Item{
		{ID: "1", Title: "Edge of Tomorrow", Genres: []string{"Action"}, Rating: 5},
		{ID: "2", Title: "Marriage Story", Genres: []string{"Drama"}, Rating: 7},
	})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankCatalogWishlistBonus(t *testing.T) {
	// Catalog item 1 (rating 5) with wishlist entry beats item 2 (rating 7):
	// 5 + 3 = 8 > 7.
	e := newTestEngine(t, nil, nil)
	prof := emptyProfile()
	prof.Wishlist["1"] = struct{}{}

	resp, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	if len(resp.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Item.ID != "1" || resp.Items[1].Item.ID != "2" {
		t.Errorf("order = [%s %s], want [1 2]", resp.Items[0].Item.ID, resp.Items[1].Item.ID)
	}
	if !almostEqual(resp.Items[0].Score, 8) {
		t.Errorf("item 1 score = %g, want 8", resp.Items[0].Score)
	}
	if !almostEqual(resp.Items[1].Score, 7) {
		t.Errorf("item 2 score = %g, want 7", resp.Items[1].Score)
	}
}

func TestRankCatalogPreferredGenreTieBreak(t *testing.T) {
	// preferred_genre=Drama lifts item 2 to 7+1=8, tying item 1's 5+3=8.
	// Ties keep original catalog order, so item 1 stays first.
	e := newTestEngine(t, nil, nil)
	prof := emptyProfile()
	prof.Wishlist["1"] = struct{}{}

	resp, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "Drama")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	if !almostEqual(resp.Items[0].Score, 8) || !almostEqual(resp.Items[1].Score, 8) {
		t.Fatalf("scores = [%g %g], want [8 8]", resp.Items[0].Score, resp.Items[1].Score)
	}
	if resp.Items[0].Item.ID != "1" {
		t.Errorf("tie broken wrong: first = %s, want 1 (catalog order)", resp.Items[0].Item.ID)
	}
}

func TestRankCatalogNeutralWithoutSignals(t *testing.T) {
	// No profile signal at all: every item keeps its base rating.
	e := newTestEngine(t, nil, nil)

	resp, err := e.RankCatalog(context.Background(), twoItemCatalog(), emptyProfile(), "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	if resp.Items[0].Item.ID != "2" {
		t.Errorf("first = %s, want 2 (highest base rating)", resp.Items[0].Item.ID)
	}
	for _, si := range resp.Items {
		if !almostEqual(si.Score, si.Item.Rating) {
			t.Errorf("item %s score = %g, want base %g", si.Item.ID, si.Score, si.Item.Rating)
		}
	}
}

func TestRankCatalogGenreHoursAndHeavyRotation(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	prof := emptyProfile()
	prof.GenreHours["Action"] = 4 // +4*0.5 = +2 for item 1
	prof.WatchCounts["2"] = 3     // heavy rotation: +2 for item 2

	resp, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	want := map[string]float64{"1": 7, "2": 9}
	for _, si := range resp.Items {
		if !almostEqual(si.Score, want[si.Item.ID]) {
			t.Errorf("item %s score = %g, want %g", si.Item.ID, si.Score, want[si.Item.ID])
		}
	}
}

func TestRankCatalogUnknownProfileIDsAreNeutral(t *testing.T) {
	// Profile references items and genres the current catalog no longer
	// carries; they must contribute nothing rather than fail.
	e := newTestEngine(t, nil, nil)
	prof := emptyProfile()
	prof.Wishlist["ghost"] = struct{}{}
	prof.WatchCounts["ghost"] = 99
	prof.GenreHours["Mockumentary"] = 40

	resp, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}
	for _, si := range resp.Items {
		if !almostEqual(si.Score, si.Item.Rating) {
			t.Errorf("item %s score = %g, want base %g", si.Item.ID, si.Score, si.Item.Rating)
		}
	}
}

func TestRankCatalogWishlistMonotonicity(t *testing.T) {
	// Adding an item to the wishlist raises its score by exactly the
	// configured bonus, all else equal.
	e := newTestEngine(t, nil, nil)

	without, err := e.RankCatalog(context.Background(), twoItemCatalog(), emptyProfile(), "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	prof := emptyProfile()
	prof.Wishlist["2"] = struct{}{}
	with, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	scoreOf := func(resp *Response, id string) float64 {
		t.Helper()
		for _, si := range resp.Items {
			if si.Item.ID == id {
				return si.Score
			}
		}
		t.Fatalf("item %s missing from response", id)
		return 0
	}

	delta := scoreOf(with, "2") - scoreOf(without, "2")
	if !almostEqual(delta, e.Config().Additive.WishlistBonus) {
		t.Errorf("wishlist delta = %g, want %g", delta, e.Config().Additive.WishlistBonus)
	}
}

func TestRankCatalogEmptyCatalog(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	_, err := e.RankCatalog(context.Background(), NewCatalog(nil), emptyProfile(), "")
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("error = %v, want ErrEmptyCatalog", err)
	}
}

func TestRankCatalogTruncation(t *testing.T) {
	items := make([]Item, 30)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("m%d", i), Title: fmt.Sprintf("Movie %d", i), Rating: float64(30 - i)}
	}
	e := newTestEngine(t, nil, nil)

	resp, err := e.RankCatalog(context.Background(), NewCatalog(items), emptyProfile(), "")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}
	if len(resp.Items) != 20 {
		t.Errorf("len(items) = %d, want 20 (configured top_k)", len(resp.Items))
	}
	if resp.TotalCandidates != 30 {
		t.Errorf("TotalCandidates = %d, want 30", resp.TotalCandidates)
	}
	for i := 1; i < len(resp.Items); i++ {
		if resp.Items[i].Score > resp.Items[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %g > %g", i, resp.Items[i].Score, resp.Items[i-1].Score)
		}
	}
}

func TestRankByAnchorWishlistOrdering(t *testing.T) {
	// Similarities 0.5 and 0.8 to the anchor. Wishlisting the 0.5 item
	// gives 0.65, still behind 0.8. Wishlisting the 0.8 item gives 1.04,
	// still first.
	catalog := NewCatalog([]Item{
		{ID: "a", Title: "Anchor", Genres: []string{"Horror"}},
		{ID: "x", Title: "Close Call", Genres: []string{"Horror"}},
		{ID: "y", Title: "Closer Call", Genres: []string{"Horror"}},
	})
	sim := &stubSimilarity{rows: map[string]map[string]float64{
		"a": {"a": 1.0, "x": 0.5, "y": 0.8},
	}}

	tests := []struct {
		name      string
		wishlist  string
		wantFirst string // of x and y
		wantX     float64
		wantY     float64
	}{
		{"wishlist weaker item", "x", "y", 0.65, 0.8},
		{"wishlist stronger item", "y", "y", 0.5, 1.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil, sim)
			prof := emptyProfile()
			prof.Wishlist[tt.wishlist] = struct{}{}
			// No genre hours recorded: the fallback favorites are
			// Sci-Fi/Action, which match nothing here.

			resp, err := e.RankByAnchor(context.Background(), ItemRef{ID: "a"}, catalog, prof)
			if err != nil {
				t.Fatalf("RankByAnchor() error = %v", err)
			}

			var first string
			scores := map[string]float64{}
			for _, si := range resp.Items {
				scores[si.Item.ID] = si.Score
				if first == "" && si.Item.ID != "a" {
					first = si.Item.ID
				}
			}
			if first != tt.wantFirst {
				t.Errorf("first non-anchor = %s, want %s", first, tt.wantFirst)
			}
			if !almostEqual(scores["x"], tt.wantX) {
				t.Errorf("x score = %g, want %g", scores["x"], tt.wantX)
			}
			if !almostEqual(scores["y"], tt.wantY) {
				t.Errorf("y score = %g, want %g", scores["y"], tt.wantY)
			}
		})
	}
}

func TestRankByAnchorFavoriteGenresCompound(t *testing.T) {
	catalog := NewCatalog([]Item{
		{ID: "a", Title: "Anchor"},
		{ID: "b", Title: "Double Match", Genres: []string{"Sci-Fi", "Action"}},
		{ID: "c", Title: "Single Match", Genres: []string{"Sci-Fi"}},
	})
	sim := &stubSimilarity{rows: map[string]map[string]float64{
		"a": {"a": 1.0, "b": 0.5, "c": 0.5},
	}}
	e := newTestEngine(t, nil, sim)
	prof := emptyProfile()
	prof.GenreHours["Sci-Fi"] = 10
	prof.GenreHours["Action"] = 5

	resp, err := e.RankByAnchor(context.Background(), ItemRef{ID: "a"}, catalog, prof)
	if err != nil {
		t.Fatalf("RankByAnchor() error = %v", err)
	}

	scores := map[string]float64{}
	for _, si := range resp.Items {
		scores[si.Item.ID] = si.Score
	}
	if !almostEqual(scores["b"], 0.5*1.2*1.2) {
		t.Errorf("double-match score = %g, want %g", scores["b"], 0.5*1.2*1.2)
	}
	if !almostEqual(scores["c"], 0.5*1.2) {
		t.Errorf("single-match score = %g, want %g", scores["c"], 0.5*1.2)
	}
}

func TestRankByAnchorResolvesTitle(t *testing.T) {
	catalog := twoItemCatalog()
	sim := &stubSimilarity{rows: map[string]map[string]float64{
		"1": {"1": 1.0, "2": 0.2},
	}}
	e := newTestEngine(t, nil, sim)

	resp, err := e.RankByAnchor(context.Background(), ItemRef{Title: "edge of tomorrow"}, catalog, emptyProfile())
	if err != nil {
		t.Fatalf("RankByAnchor() error = %v", err)
	}
	if resp.Metadata.AnchorID != "1" {
		t.Errorf("AnchorID = %s, want 1", resp.Metadata.AnchorID)
	}
	if resp.Items[0].Item.ID != "1" {
		t.Errorf("first = %s, want the anchor itself (similarity 1.0)", resp.Items[0].Item.ID)
	}
}

func TestRankByAnchorNotFound(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	tests := []struct {
		name   string
		anchor ItemRef
	}{
		{"unknown id", ItemRef{ID: "missing"}},
		{"unknown title", ItemRef{Title: "No Such Movie"}},
		{"empty reference", ItemRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RankByAnchor(context.Background(), tt.anchor, twoItemCatalog(), emptyProfile())
			if !errors.Is(err, ErrAnchorNotFound) {
				t.Errorf("error = %v, want ErrAnchorNotFound", err)
			}
		})
	}
}

func TestRankDeterministic(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	prof := emptyProfile()
	prof.GenreHours["Drama"] = 2
	prof.Wishlist["1"] = struct{}{}

	first, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "Action")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}
	second, err := e.RankCatalog(context.Background(), twoItemCatalog(), prof, "Action")
	if err != nil {
		t.Fatalf("RankCatalog() error = %v", err)
	}

	if len(first.Items) != len(second.Items) {
		t.Fatalf("result sizes differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].Item.ID != second.Items[i].Item.ID || !almostEqual(first.Items[i].Score, second.Items[i].Score) {
			t.Errorf("position %d differs across identical runs", i)
		}
	}
}

func TestNewEngineValidation(t *testing.T) {
	bad := DefaultConfig()
	bad.Anchor.WishlistMultiplier = -1

	if _, err := NewEngine(bad, &stubSimilarity{}, zerolog.Nop()); err == nil {
		t.Error("NewEngine() with invalid config: error = nil, want error")
	}
	if _, err := NewEngine(nil, nil, zerolog.Nop()); err == nil {
		t.Error("NewEngine() without similarity source: error = nil, want error")
	}
}
