// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package catalog loads the movie catalog from a CSV file through an
// in-memory DuckDB instance.
//
// A load is a scoped acquisition: open, read_csv, build, close — the
// connection is released on every exit path. By default the store
// reloads on every call so catalog edits show up immediately; with
// caching enabled the last built snapshot is served until Invalidate.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// ErrCatalogLoad indicates missing or malformed backing data: an
// unreadable file, missing required columns, or duplicate item ids.
var ErrCatalogLoad = errors.New("catalog load failed")

// Required and optional CSV columns. Genres are pipe-separated within
// their cell ("Sci-Fi|Action").
const (
	colID      = "id"
	colTitle   = "title"
	colGenres  = "genres"
	colSummary = "summary"
	colRating  = "rating"
)

// Config contains catalog store settings.
type Config struct {
	// Path is the catalog CSV file.
	Path string `json:"path" koanf:"path"`

	// Cache serves the last loaded snapshot instead of re-reading the
	// file on every call.
	Cache bool `json:"cache" koanf:"cache"`

	// RefreshInterval drops the cached snapshot on a timer so edits to
	// the file are eventually picked up. Zero disables refresh. Only
	// meaningful when Cache is set.
	RefreshInterval time.Duration `json:"refresh_interval" koanf:"refresh_interval"`
}

// Store loads catalog snapshots from the configured CSV file.
type Store struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	cached *recommend.Catalog
}

// NewStore creates a catalog store.
func NewStore(cfg Config, logger zerolog.Logger) *Store {
	return &Store{
		cfg:    cfg,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Load reads the CSV and builds an immutable catalog snapshot,
// preserving file row order. Fails with ErrCatalogLoad (wrapped) on
// unreadable data, missing required columns or duplicate ids.
func (s *Store) Load(ctx context.Context) (*recommend.Catalog, error) {
	if s.cfg.Cache {
		s.mu.Lock()
		cached := s.cached
		s.mu.Unlock()
		if cached != nil {
			return cached, nil
		}
	}

	start := time.Now()
	items, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	catalog := recommend.NewCatalog(items)
	metrics.RecordCatalogLoad(time.Since(start), catalog.Len(), "")
	s.logger.Debug().
		Int("items", catalog.Len()).
		Dur("duration", time.Since(start)).
		Str("fingerprint", catalog.Fingerprint()[:12]).
		Msg("catalog loaded")

	if s.cfg.Cache {
		s.mu.Lock()
		s.cached = catalog
		s.mu.Unlock()
	}
	return catalog, nil
}

// Invalidate drops the cached snapshot so the next Load re-reads the
// file. No-op when caching is disabled.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context) ([]recommend.Item, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		metrics.RecordCatalogLoad(0, 0, "open")
		return nil, fmt.Errorf("open duckdb: %v: %w", err, ErrCatalogLoad)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("closing duckdb")
		}
	}()

	// all_varchar keeps parsing in our hands: a malformed rating cell
	// becomes a row error here instead of a silent DuckDB cast.
	query := fmt.Sprintf("SELECT * FROM read_csv(%s, header=true, all_varchar=true)",
		quoteLiteral(s.cfg.Path))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		metrics.RecordCatalogLoad(0, 0, "query")
		return nil, fmt.Errorf("read %s: %v: %w", s.cfg.Path, err, ErrCatalogLoad)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("closing rows")
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		metrics.RecordCatalogLoad(0, 0, "query")
		return nil, fmt.Errorf("columns: %v: %w", err, ErrCatalogLoad)
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[strings.ToLower(strings.TrimSpace(c))] = i
	}
	for _, required := range []string{colID, colTitle, colGenres} {
		if _, ok := index[required]; !ok {
			metrics.RecordCatalogLoad(0, 0, "schema")
			return nil, fmt.Errorf("missing required column %q: %w", required, ErrCatalogLoad)
		}
	}

	var items []recommend.Item
	seen := make(map[string]struct{})
	scan := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			metrics.RecordCatalogLoad(0, 0, "row")
			return nil, fmt.Errorf("row %d: %v: %w", len(items)+1, err, ErrCatalogLoad)
		}

		item, err := buildItem(index, scan)
		if err != nil {
			metrics.RecordCatalogLoad(0, 0, "row")
			return nil, fmt.Errorf("row %d: %w", len(items)+1, err)
		}
		if _, dup := seen[item.ID]; dup {
			metrics.RecordCatalogLoad(0, 0, "duplicate_id")
			return nil, fmt.Errorf("duplicate id %q: %w", item.ID, ErrCatalogLoad)
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordCatalogLoad(0, 0, "query")
		return nil, fmt.Errorf("read %s: %v: %w", s.cfg.Path, err, ErrCatalogLoad)
	}

	return items, nil
}

func buildItem(index map[string]int, scan []sql.NullString) (recommend.Item, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || !scan[i].Valid {
			return ""
		}
		return strings.TrimSpace(scan[i].String)
	}

	item := recommend.Item{
		ID:      cell(colID),
		Title:   cell(colTitle),
		Genres:  splitGenres(cell(colGenres)),
		Summary: cell(colSummary),
	}
	if item.ID == "" {
		return recommend.Item{}, fmt.Errorf("empty id: %w", ErrCatalogLoad)
	}
	if item.Title == "" {
		return recommend.Item{}, fmt.Errorf("id %q: empty title: %w", item.ID, ErrCatalogLoad)
	}

	if raw := cell(colRating); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return recommend.Item{}, fmt.Errorf("id %q: rating %q: %w", item.ID, raw, ErrCatalogLoad)
		}
		item.Rating = rating
	}

	return item, nil
}

// splitGenres splits a pipe-separated genre cell, dropping empties.
func splitGenres(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, "|")
	genres := parts[:0]
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		return nil
	}
	return genres
}

// quoteLiteral quotes a string as a SQL literal for the read_csv call,
// which cannot take a bound parameter in all driver versions.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
