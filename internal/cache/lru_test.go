// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package cache

import (
	"fmt"
	"testing"
	"time"
)

func row(ids ...string) map[string]float64 {
	m := make(map[string]float64, len(ids))
	for i, id := range ids {
		m[id] = float64(i) / 10
	}
	return m
}

func TestRowCacheAddGet(t *testing.T) {
	c := NewRowCache(10, time.Minute)

	c.Add("fp1:anchor1", row("a", "b"))

	got, ok := c.Get("fp1:anchor1")
	if !ok {
		t.Fatal("Get() = false, want true")
	}
	if len(got) != 2 {
		t.Errorf("len(row) = %d, want 2", len(got))
	}
	if _, ok := c.Get("fp1:other"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestRowCacheEviction(t *testing.T) {
	c := NewRowCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Add(fmt.Sprintf("k%d", i), row("a"))
	}

	// Touch k0 so k1 becomes the LRU candidate.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("Get(k0) = false, want true")
	}

	c.Add("k3", row("a"))

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 survived eviction, want evicted as least recently used")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("Get(%s) = false, want true", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestRowCacheExpiration(t *testing.T) {
	c := NewRowCache(10, 10*time.Millisecond)

	c.Add("k", row("a"))
	if _, ok := c.Get("k"); !ok {
		t.Fatal("Get() before expiry = false, want true")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() after expiry = true, want false")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after lazy expiry = %d, want 0", c.Len())
	}
}

func TestRowCacheUpdateExisting(t *testing.T) {
	c := NewRowCache(10, time.Minute)

	c.Add("k", row("a"))
	c.Add("k", row("a", "b", "c"))

	got, ok := c.Get("k")
	if !ok || len(got) != 3 {
		t.Errorf("Get() after update = %v, %v; want 3-entry row, true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestRowCacheRemoveAndClear(t *testing.T) {
	c := NewRowCache(10, time.Minute)

	c.Add("k1", row("a"))
	c.Add("k2", row("b"))

	if !c.Remove("k1") {
		t.Error("Remove(k1) = false, want true")
	}
	if c.Remove("k1") {
		t.Error("Remove(k1) twice = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestRowCacheStats(t *testing.T) {
	c := NewRowCache(10, time.Minute)

	c.Add("k", row("a"))
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (2, 1, 1)", hits, misses, size)
	}
}

func TestRowCacheDefaults(t *testing.T) {
	c := NewRowCache(0, 0)

	c.Add("k", row("a"))
	if _, ok := c.Get("k"); !ok {
		t.Error("cache with default capacity/ttl dropped a fresh entry")
	}
}
