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
)

// CreatePost publishes a post authored by the caller and notifies every
// follower.
//
// POST /api/v1/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var draft models.PostDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		respondModelError(w, r, err)
		return
	}
	draft.AuthorID = auth.UserIDFromContext(r.Context())

	post, err := h.publisher.PublishToFollowers(r.Context(), &draft)
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, post, start)
}

// ListPosts returns the newest posts across all categories.
//
// GET /api/v1/posts?limit=N
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", defaultListLimit)
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	posts, err := h.store.QueryPosts(r.Context(), models.PostQuery{
		Order: models.OrderNewest,
		Limit: limit,
	})
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	respondSuccess(w, r, http.StatusOK, posts, start)
}

// UpdatePost edits a post. Only the author or an admin may do so.
//
// PUT /api/v1/posts/{postID}
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var patch models.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondModelError(w, r, err)
		return
	}

	post, err := h.editor.UpdatePost(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "postID"), &patch)
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, post, start)
}

// DeletePost removes a post. Only the author or an admin may do so.
//
// DELETE /api/v1/posts/{postID}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	postID := chi.URLParam(r, "postID")

	if err := h.editor.DeletePost(r.Context(), auth.UserIDFromContext(r.Context()), postID); err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]string{"post_id": postID}, start)
}

// GetPost returns one post and counts the read as a view.
//
// GET /api/v1/posts/{postID}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	postID := chi.URLParam(r, "postID")
	if postID == "" {
		respondModelError(w, r, models.Invalid("api.GetPost", "Post ID is required"))
		return
	}

	if _, err := h.store.RecordView(r.Context(), postID); err != nil {
		respondModelError(w, r, err)
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		respondModelError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, post, start)
}

// ListCategoryPosts returns the newest posts in one category.
//
// GET /api/v1/categories/{categoryID}/posts?limit=N
func (h *Handler) ListCategoryPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	categoryID := chi.URLParam(r, "categoryID")

	limit, err := getIntParam(r, "limit", defaultListLimit)
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if _, err := h.store.GetCategory(r.Context(), categoryID); err != nil {
		respondModelError(w, r, err)
		return
	}

	posts, err := h.store.QueryPosts(r.Context(), models.PostQuery{
		Categories: models.NewIDSet(categoryID),
		Order:      models.OrderNewest,
		Limit:      limit,
	})
	if err != nil {
		respondModelError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	respondSuccess(w, r, http.StatusOK, posts, start)
}
