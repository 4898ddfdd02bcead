// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/murmur/internal/auth"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/validation"
)

// decodePostID reads and validates a {"postId": ...} body. It writes the
// error response itself and reports whether the caller may continue.
func decodePostID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.PostIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondModelError(w, r, err)
		return "", false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return "", false
	}
	return req.PostID, true
}

// ToggleLike likes the post, or unlikes it if the caller already liked it.
//
// POST /api/v1/likes
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	postID, ok := decodePostID(w, r)
	if !ok {
		return
	}

	result, err := h.engagement.ToggleLike(r.Context(), postID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.LikeResponse{
		PostID:    result.PostID,
		IsLiked:   result.IsLiked,
		LikeCount: result.LikeCount,
	}, start)
}

// AddFavorite adds the post to the caller's favorites. A post that is
// already a favorite yields 409.
//
// POST /api/v1/favorites
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	postID, ok := decodePostID(w, r)
	if !ok {
		return
	}

	favorites, err := h.engagement.ToggleFavorite(r.Context(), postID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.FavoritesResponse{Favorites: favorites}, start)
}

// RemoveFavorite removes the post from the caller's favorites.
//
// DELETE /api/v1/favorites/{postID}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	favorites, err := h.engagement.RemoveFavorite(r.Context(), chi.URLParam(r, "postID"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.FavoritesResponse{Favorites: favorites}, start)
}

// ListFavorites returns the caller's favorite posts.
//
// GET /api/v1/favorites
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	posts, err := h.engagement.ListFavorites(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	respondSuccess(w, r, http.StatusOK, posts, start)
}
