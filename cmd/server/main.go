// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package main is the entry point for the ReelRank server.
//
// ReelRank is a self-hosted movie ranking service. It loads a catalog
// from a CSV file, keeps per-user taste profiles in memory, and serves
// two ranking modes over a JSON API: a similarity-anchored
// "more like this" rerank and a catalog-wide personalized pass. An
// optional chat endpoint proxies an OpenAI-compatible assistant.
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Catalog store: CSV ingestion through DuckDB
//  3. Similarity index: term-frequency vectors with an LRU row cache
//  4. Ranking engine and profile registry
//  5. Chat client (optional, circuit-broken)
//  6. HTTP server under Suture supervision
//
// Configuration is layered, highest priority first: environment
// variables, config.yaml, built-in defaults. See the config package
// for the variable names.
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections and waits for in-flight requests up to
// server.shutdown_timeout.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reelrank/internal/api"
	"github.com/tomtom215/reelrank/internal/catalog"
	"github.com/tomtom215/reelrank/internal/chat"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/profile"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/similarity"
	"github.com/tomtom215/reelrank/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, use the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("catalog_path", cfg.Catalog.Path).
		Bool("catalog_cache", cfg.Catalog.Cache).
		Bool("chat_enabled", cfg.Chat.Enabled).
		Msg("Starting ReelRank")

	logger := logging.Logger()

	store := catalog.NewStore(cfg.Catalog, logger)

	// Probe the catalog once at startup so a bad path or malformed file
	// is visible immediately. Load failures later are per-request errors.
	if cat, err := store.Load(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Catalog not loadable at startup, rankings will fail until fixed")
	} else {
		logging.Info().Int("items", cat.Len()).Str("fingerprint", cat.Fingerprint()).Msg("Catalog loaded")
	}

	index := similarity.NewIndex(cfg.Similarity, logger)

	engine, err := recommend.NewEngine(&cfg.Engine, index, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build ranking engine")
	}

	registry := profile.NewRegistry(cfg.Profile, logger)

	var chatClient *chat.Client
	if cfg.Chat.Enabled {
		chatClient = chat.NewClient(cfg.Chat, logger)
		logging.Info().Str("model", cfg.Chat.Model).Msg("Chat assistant enabled")
	}

	handler := api.NewHandler(store, engine, registry, chatClient, version, logger)
	mw := api.NewMiddleware(cfg.Server, logger)
	router := api.NewRouter(handler, mw)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.Config{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	if cfg.Catalog.Cache && cfg.Catalog.RefreshInterval > 0 {
		tree.Add(supervisor.NewRefreshService(store, cfg.Catalog.RefreshInterval, logger))
		logging.Info().Dur("interval", cfg.Catalog.RefreshInterval).Msg("Catalog refresh enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("HTTP server listening")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("Shutdown complete")
}
