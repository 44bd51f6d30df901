// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CatalogRefresher is the subset of the catalog store the refresh
// service drives.
type CatalogRefresher interface {
	Invalidate()
}

// RefreshService drops the catalog store's cached snapshot on a fixed
// interval so file edits are eventually served. The next ranking
// request after an invalidation performs the reload; readers holding
// the previous snapshot are unaffected.
type RefreshService struct {
	store    CatalogRefresher
	interval time.Duration
	logger   zerolog.Logger
}

func NewRefreshService(store CatalogRefresher, interval time.Duration, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "catalog-refresh").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.store.Invalidate()
			s.logger.Debug().Msg("catalog snapshot invalidated")
		}
	}
}

func (s *RefreshService) String() string {
	return "catalog-refresh"
}
