// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package chat forwards user messages to an OpenAI-compatible chat
// endpoint with a fixed movie-assistant preamble. No response text is
// generated or interpreted here; the upstream owns all language
// behavior.
//
// The upstream is treated as an unreliable collaborator: calls go
// through a client-side rate limiter and a circuit breaker, so a
// misbehaving endpoint degrades chat only, never ranking.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelrank/internal/metrics"
)

// systemPreamble is prepended to every conversation.
const systemPreamble = "You are a movie assistant."

// Client failure modes, mapped to HTTP 429/503 by the API layer.
var (
	// ErrRateLimited indicates the client-side limiter rejected the call.
	ErrRateLimited = errors.New("chat rate limit exceeded")

	// ErrUnavailable indicates the circuit breaker is open or the
	// upstream returned a failure.
	ErrUnavailable = errors.New("chat upstream unavailable")
)

// Config contains chat client settings.
type Config struct {
	// Enabled toggles the chat surface entirely.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Endpoint is the base URL of an OpenAI-compatible API.
	Endpoint string `json:"endpoint" koanf:"endpoint"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `json:"-" koanf:"api_key"`

	// Model names the upstream model.
	Model string `json:"model" koanf:"model"`

	// Timeout bounds one upstream call.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RatePerSecond and RateBurst configure the client-side limiter.
	RatePerSecond float64 `json:"rate_per_second" koanf:"rate_per_second"`
	RateBurst     int     `json:"rate_burst" koanf:"rate_burst"`
}

// DefaultConfig returns the chat defaults. Chat stays disabled until an
// endpoint is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		Model:         "gpt-4o-mini",
		Timeout:       30 * time.Second,
		RatePerSecond: 1,
		RateBurst:     3,
	}
}

// Validate checks the configuration of an enabled client.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("chat.endpoint is required when chat is enabled")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("chat.timeout must be positive, got %s", c.Timeout)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("chat.rate_per_second must be positive, got %g", c.RatePerSecond)
	}
	return nil
}

// Client calls the configured chat upstream.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	logger  zerolog.Logger
}

// NewClient creates a chat client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "chat").Logger()

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "chat-upstream",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		breaker: breaker,
		logger:  logger,
	}
}

// Enabled reports whether a chat upstream is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Chat forwards one user message and returns the upstream's reply text.
// Fails with ErrRateLimited when called faster than the configured
// rate, and with ErrUnavailable when the breaker is open or the
// upstream errors.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if !c.limiter.Allow() {
		metrics.RecordChatRequest("rate_limited", 0)
		return "", ErrRateLimited
	}

	start := time.Now()
	reply, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, message)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordChatRequest("breaker_open", 0)
			return "", fmt.Errorf("circuit open: %w", ErrUnavailable)
		}
		metrics.RecordChatRequest("upstream_error", 0)
		c.logger.Warn().Err(err).Msg("chat upstream call failed")
		return "", fmt.Errorf("%v: %w", err, ErrUnavailable)
	}

	metrics.RecordChatRequest("ok", time.Since(start))
	return reply, nil
}

func (c *Client) call(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPreamble},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := c.cfg.Endpoint + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling upstream: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn().Err(cerr).Msg("closing upstream response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the log; upstream error
		// bodies are untrusted.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("upstream returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
