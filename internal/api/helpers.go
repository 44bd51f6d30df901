// ReelRank - Personal Movie Ranking and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/catalog"
	"github.com/tomtom215/reelrank/internal/chat"
	"github.com/tomtom215/reelrank/internal/profile"
	"github.com/tomtom215/reelrank/internal/recommend"
)

func respondJSON(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Vary", "Accept-Encoding")

	body, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"status":"error","error":{"code":%q,"message":"encoding failed"}}`, CodeInternal)
		return
	}

	w.Header().Set("ETag", generateETag(body))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	evt := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = h.logger.Error()
	}
	evt.Err(err).
		Str("code", code).
		Int("status", status).
		Str("path", r.URL.Path).
		Msg(message)

	respondJSON(w, status, &Response{
		Status: "error",
		Error:  &APIError{Code: code, Message: message},
	})
}

// generateETag hashes the response body with FNV-1a. Weak validator,
// good enough for cache revalidation on identical payloads.
func generateETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`"%x"`, h.Sum64())
}

// mapDomainError translates sentinel errors from the domain packages
// into an HTTP status and error code. Unrecognized errors are 500s.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, recommend.ErrAnchorNotFound),
		errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, recommend.ErrEmptyCatalog):
		return http.StatusUnprocessableEntity, CodeEmptyCatalog
	case errors.Is(err, profile.ErrInvalidRating):
		return http.StatusBadRequest, CodeInvalidRating
	case errors.Is(err, profile.ErrInvalidDuration):
		return http.StatusBadRequest, CodeInvalidDuration
	case errors.Is(err, profile.ErrInvalidTimePref):
		return http.StatusBadRequest, CodeInvalidTimePref
	case errors.Is(err, catalog.ErrCatalogLoad):
		return http.StatusServiceUnavailable, CodeCatalogLoad
	case errors.Is(err, chat.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, chat.ErrUnavailable):
		return http.StatusServiceUnavailable, CodeChatUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
