// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package profile

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
)

// Registry owns all in-memory user profiles. A profile is created empty
// on first access and lives for the rest of the process; deletion and
// persistence are the embedding layer's concern.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
	cfg      Config
	logger   zerolog.Logger
}

// NewRegistry creates an empty profile registry.
func NewRegistry(cfg Config, logger zerolog.Logger) *Registry {
	return &Registry{
		profiles: make(map[string]*UserProfile),
		cfg:      cfg,
		logger:   logger.With().Str("component", "profile").Logger(),
	}
}

// Get returns the profile for a user, creating it on first access.
func (r *Registry) Get(userID string) *UserProfile {
	r.mu.RLock()
	p, ok := r.profiles[userID]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return p
	}

	p = newUserProfile(userID, r.cfg)
	r.profiles[userID] = p

	metrics.ProfilesActive.Set(float64(len(r.profiles)))
	r.logger.Debug().Str("user_id", userID).Msg("profile created")
	return p
}

// Len returns the number of profiles currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
