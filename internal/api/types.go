// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

// Response is the envelope returned by every JSON endpoint.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code alongside the message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in APIError.Code.
const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeEmptyCatalog    = "empty_catalog"
	CodeInvalidRating   = "invalid_rating"
	CodeInvalidDuration = "invalid_duration"
	CodeInvalidTimePref = "invalid_time_pref"
	CodeCatalogLoad     = "catalog_load_failed"
	CodeRateLimited     = "rate_limited"
	CodeChatUnavailable = "chat_unavailable"
	CodeChatDisabled    = "chat_disabled"
	CodeInternal        = "internal_error"
)

type anchorRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type recommendRequest struct {
	Anchor anchorRef `json:"anchor"`
	K      int       `json:"k" validate:"omitempty,gt=0"`
}

type rankRequest struct {
	PreferredGenre string `json:"preferred_genre"`
	K              int    `json:"k" validate:"omitempty,gt=0"`
}

type watchRequest struct {
	ItemID   string  `json:"item_id" validate:"required"`
	Hours    float64 `json:"hours" validate:"required"`
	TimePref string  `json:"time_pref" validate:"required,oneof=day night"`
}

type rateRequest struct {
	ItemID string  `json:"item_id" validate:"required"`
	Rating float64 `json:"rating"`
}

type wishlistRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
