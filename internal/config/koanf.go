// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelrank/config.yaml",
	"/etc/reelrank/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from defaults, an optional YAML file
// and environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"engine.anchor.fallback_genres",
	"similarity.stop_words",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings routes environment variable names to nested config paths
// that the generic first-underscore split cannot reach.
var envMappings = map[string]string{
	// Server
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_read_timeout":      "server.read_timeout",
	"http_write_timeout":     "server.write_timeout",
	"http_shutdown_timeout":  "server.shutdown_timeout",
	"http_rate_limit_reqs":   "server.rate_limit_reqs",
	"http_rate_limit_window": "server.rate_limit_window",
	"http_cors_origins":      "server.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Catalog
	"catalog_path":             "catalog.path",
	"catalog_cache":            "catalog.cache",
	"catalog_refresh_interval": "catalog.refresh_interval",

	// Engine (nested two levels deep)
	"engine_wishlist_multiplier":      "engine.anchor.wishlist_multiplier",
	"engine_genre_multiplier":         "engine.anchor.genre_multiplier",
	"engine_favorite_genre_count":     "engine.anchor.favorite_genre_count",
	"engine_fallback_genres":          "engine.anchor.fallback_genres",
	"engine_anchor_top_k":             "engine.anchor.top_k",
	"engine_genre_hour_weight":        "engine.additive.genre_hour_weight",
	"engine_wishlist_bonus":           "engine.additive.wishlist_bonus",
	"engine_heavy_rotation_bonus":     "engine.additive.heavy_rotation_bonus",
	"engine_preferred_genre_bonus":    "engine.additive.preferred_genre_bonus",
	"engine_catalog_top_k":            "engine.additive.top_k",
	"engine_heavy_rotation_threshold": "engine.heavy_rotation_threshold",

	// Similarity
	"similarity_cache_size": "similarity.cache_size",
	"similarity_cache_ttl":  "similarity.cache_ttl",
	"similarity_stop_words": "similarity.stop_words",

	// Profile
	"rating_min": "profile.rating_min",
	"rating_max": "profile.rating_max",

	// Chat
	"chat_enabled":         "chat.enabled",
	"chat_endpoint":        "chat.endpoint",
	"chat_api_key":         "chat.api_key",
	"chat_model":           "chat.model",
	"chat_timeout":         "chat.timeout",
	"chat_rate_per_second": "chat.rate_per_second",
	"chat_rate_burst":      "chat.rate_burst",
}

// envTransform maps environment variable names onto koanf paths.
// Unmapped variables are dropped so unrelated environment noise can
// never override configuration.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}
