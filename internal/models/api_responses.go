// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "CONFLICT", "message": "Post already in favorites"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "request_id": "…"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the machine-readable error body. Code is one of the ErrorKind
// codes or an HTTP-layer code such as AUTHENTICATION_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LikeResponse is returned by the like toggle.
type LikeResponse struct {
	PostID    string `json:"post_id"`
	IsLiked   bool   `json:"is_liked"`
	LikeCount int    `json:"like_count"`
}

// FavoritesResponse is returned by favorite mutations.
type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
}

// RecommendationsResponse is returned by the recommendation endpoint.
type RecommendationsResponse struct {
	Tier  string  `json:"tier"`
	Posts []*Post `json:"posts"`
}

// PostIDRequest is the body of like and favorite requests.
type PostIDRequest struct {
	PostID string `json:"postId" validate:"required,max=64"`
}
